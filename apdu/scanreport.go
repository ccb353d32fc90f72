package apdu

// Scan report event payloads (20601 A.11.5). The six shapes share the
// data-req-id/report-number header and differ in the observation encoding:
// fixed (raw per-handle values), var (full attribute lists) and grouped
// (opaque octet strings), each with a multi-person (MP) variant.

import (
	"fmt"

	"github.com/grailbio/go-dicom/dicomio"
)

// DataReqIDAgentInitiated marks agent-initiated (unsolicited) reports.
const DataReqIDAgentInitiated uint16 = 0xF000

// ObservationScanFixed carries the fixed-format observation value of one
// metric object.
type ObservationScanFixed struct {
	ObjHandle  Handle
	ObsValData []byte
}

func (v *ObservationScanFixed) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ObjHandle)
	writeAny(e, v.ObsValData)
}

func readObservationScanFixed(d *dicomio.Decoder) ObservationScanFixed {
	return ObservationScanFixed{
		ObjHandle:  d.ReadUInt16(),
		ObsValData: readAny(d),
	}
}

// ObservationScan carries a full attribute list for one metric object.
type ObservationScan struct {
	ObjHandle  Handle
	Attributes AttributeList
}

func (v *ObservationScan) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ObjHandle)
	v.Attributes.write(e)
}

func readObservationScan(d *dicomio.Decoder) ObservationScan {
	return ObservationScan{
		ObjHandle:  d.ReadUInt16(),
		Attributes: readAttributeList(d),
	}
}

// ScanReportInfoFixed is the fixed-format scan report.
type ScanReportInfoFixed struct {
	DataReqID    uint16
	ScanReportNo uint16
	ObsScanFixed []ObservationScanFixed
}

// EncodeScanReportInfoFixed serializes v.
func EncodeScanReportInfoFixed(v *ScanReportInfoFixed) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		e.WriteUInt16(v.DataReqID)
		e.WriteUInt16(v.ScanReportNo)
		writeList(e, len(v.ObsScanFixed), func(sub *dicomio.Encoder) {
			for i := range v.ObsScanFixed {
				v.ObsScanFixed[i].write(sub)
			}
		})
	})
}

// DecodeScanReportInfoFixed parses a fixed-format scan report.
func DecodeScanReportInfoFixed(data []byte) (*ScanReportInfoFixed, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &ScanReportInfoFixed{
		DataReqID:    d.ReadUInt16(),
		ScanReportNo: d.ReadUInt16(),
	}
	readList(d, func(d *dicomio.Decoder) {
		v.ObsScanFixed = append(v.ObsScanFixed, readObservationScanFixed(d))
	})
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *ScanReportInfoFixed) String() string {
	return fmt.Sprintf("scanfixed{no:%d obs:%d}", v.ScanReportNo, len(v.ObsScanFixed))
}

// ScanReportInfoVar is the variable-format scan report.
type ScanReportInfoVar struct {
	DataReqID    uint16
	ScanReportNo uint16
	ObsScanVar   []ObservationScan
}

// EncodeScanReportInfoVar serializes v.
func EncodeScanReportInfoVar(v *ScanReportInfoVar) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		e.WriteUInt16(v.DataReqID)
		e.WriteUInt16(v.ScanReportNo)
		writeList(e, len(v.ObsScanVar), func(sub *dicomio.Encoder) {
			for i := range v.ObsScanVar {
				v.ObsScanVar[i].write(sub)
			}
		})
	})
}

// DecodeScanReportInfoVar parses a variable-format scan report.
func DecodeScanReportInfoVar(data []byte) (*ScanReportInfoVar, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &ScanReportInfoVar{
		DataReqID:    d.ReadUInt16(),
		ScanReportNo: d.ReadUInt16(),
	}
	readList(d, func(d *dicomio.Decoder) {
		v.ObsScanVar = append(v.ObsScanVar, readObservationScan(d))
	})
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *ScanReportInfoVar) String() string {
	return fmt.Sprintf("scanvar{no:%d obs:%d}", v.ScanReportNo, len(v.ObsScanVar))
}

// ScanReportInfoGrouped is the grouped-format scan report; each entry is an
// opaque octet string whose layout the configuration defines.
type ScanReportInfoGrouped struct {
	DataReqID      uint16
	ScanReportNo   uint16
	ObsScanGrouped [][]byte
}

// EncodeScanReportInfoGrouped serializes v.
func EncodeScanReportInfoGrouped(v *ScanReportInfoGrouped) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		e.WriteUInt16(v.DataReqID)
		e.WriteUInt16(v.ScanReportNo)
		writeList(e, len(v.ObsScanGrouped), func(sub *dicomio.Encoder) {
			for _, obs := range v.ObsScanGrouped {
				writeAny(sub, obs)
			}
		})
	})
}

// DecodeScanReportInfoGrouped parses a grouped-format scan report.
func DecodeScanReportInfoGrouped(data []byte) (*ScanReportInfoGrouped, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &ScanReportInfoGrouped{
		DataReqID:    d.ReadUInt16(),
		ScanReportNo: d.ReadUInt16(),
	}
	readList(d, func(d *dicomio.Decoder) {
		v.ObsScanGrouped = append(v.ObsScanGrouped, readAny(d))
	})
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *ScanReportInfoGrouped) String() string {
	return fmt.Sprintf("scangrouped{no:%d obs:%d}", v.ScanReportNo, len(v.ObsScanGrouped))
}

// ScanReportPerFixed is the per-person entry of an MP fixed report.
type ScanReportPerFixed struct {
	PersonID     uint16
	ObsScanFixed []ObservationScanFixed
}

// ScanReportInfoMPFixed is the multi-person fixed-format scan report.
type ScanReportInfoMPFixed struct {
	DataReqID    uint16
	ScanReportNo uint16
	ScanPerFixed []ScanReportPerFixed
}

// EncodeScanReportInfoMPFixed serializes v.
func EncodeScanReportInfoMPFixed(v *ScanReportInfoMPFixed) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		e.WriteUInt16(v.DataReqID)
		e.WriteUInt16(v.ScanReportNo)
		writeList(e, len(v.ScanPerFixed), func(sub *dicomio.Encoder) {
			for i := range v.ScanPerFixed {
				per := &v.ScanPerFixed[i]
				sub.WriteUInt16(per.PersonID)
				writeList(sub, len(per.ObsScanFixed), func(inner *dicomio.Encoder) {
					for j := range per.ObsScanFixed {
						per.ObsScanFixed[j].write(inner)
					}
				})
			}
		})
	})
}

// DecodeScanReportInfoMPFixed parses a multi-person fixed-format report.
func DecodeScanReportInfoMPFixed(data []byte) (*ScanReportInfoMPFixed, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &ScanReportInfoMPFixed{
		DataReqID:    d.ReadUInt16(),
		ScanReportNo: d.ReadUInt16(),
	}
	readList(d, func(d *dicomio.Decoder) {
		per := ScanReportPerFixed{PersonID: d.ReadUInt16()}
		readList(d, func(d *dicomio.Decoder) {
			per.ObsScanFixed = append(per.ObsScanFixed, readObservationScanFixed(d))
		})
		v.ScanPerFixed = append(v.ScanPerFixed, per)
	})
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *ScanReportInfoMPFixed) String() string {
	return fmt.Sprintf("scanmpfixed{no:%d persons:%d}", v.ScanReportNo, len(v.ScanPerFixed))
}

// ScanReportPerVar is the per-person entry of an MP var report.
type ScanReportPerVar struct {
	PersonID   uint16
	ObsScanVar []ObservationScan
}

// ScanReportInfoMPVar is the multi-person variable-format scan report.
type ScanReportInfoMPVar struct {
	DataReqID    uint16
	ScanReportNo uint16
	ScanPerVar   []ScanReportPerVar
}

// EncodeScanReportInfoMPVar serializes v.
func EncodeScanReportInfoMPVar(v *ScanReportInfoMPVar) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		e.WriteUInt16(v.DataReqID)
		e.WriteUInt16(v.ScanReportNo)
		writeList(e, len(v.ScanPerVar), func(sub *dicomio.Encoder) {
			for i := range v.ScanPerVar {
				per := &v.ScanPerVar[i]
				sub.WriteUInt16(per.PersonID)
				writeList(sub, len(per.ObsScanVar), func(inner *dicomio.Encoder) {
					for j := range per.ObsScanVar {
						per.ObsScanVar[j].write(inner)
					}
				})
			}
		})
	})
}

// DecodeScanReportInfoMPVar parses a multi-person variable-format report.
func DecodeScanReportInfoMPVar(data []byte) (*ScanReportInfoMPVar, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &ScanReportInfoMPVar{
		DataReqID:    d.ReadUInt16(),
		ScanReportNo: d.ReadUInt16(),
	}
	readList(d, func(d *dicomio.Decoder) {
		per := ScanReportPerVar{PersonID: d.ReadUInt16()}
		readList(d, func(d *dicomio.Decoder) {
			per.ObsScanVar = append(per.ObsScanVar, readObservationScan(d))
		})
		v.ScanPerVar = append(v.ScanPerVar, per)
	})
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *ScanReportInfoMPVar) String() string {
	return fmt.Sprintf("scanmpvar{no:%d persons:%d}", v.ScanReportNo, len(v.ScanPerVar))
}

// ScanReportPerGrouped is the per-person entry of an MP grouped report.
type ScanReportPerGrouped struct {
	PersonID       uint16
	ObsScanGrouped [][]byte
}

// ScanReportInfoMPGrouped is the multi-person grouped-format scan report.
type ScanReportInfoMPGrouped struct {
	DataReqID      uint16
	ScanReportNo   uint16
	ScanPerGrouped []ScanReportPerGrouped
}

// EncodeScanReportInfoMPGrouped serializes v.
func EncodeScanReportInfoMPGrouped(v *ScanReportInfoMPGrouped) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		e.WriteUInt16(v.DataReqID)
		e.WriteUInt16(v.ScanReportNo)
		writeList(e, len(v.ScanPerGrouped), func(sub *dicomio.Encoder) {
			for i := range v.ScanPerGrouped {
				per := &v.ScanPerGrouped[i]
				sub.WriteUInt16(per.PersonID)
				writeList(sub, len(per.ObsScanGrouped), func(inner *dicomio.Encoder) {
					for _, obs := range per.ObsScanGrouped {
						writeAny(inner, obs)
					}
				})
			}
		})
	})
}

// DecodeScanReportInfoMPGrouped parses a multi-person grouped-format report.
func DecodeScanReportInfoMPGrouped(data []byte) (*ScanReportInfoMPGrouped, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &ScanReportInfoMPGrouped{
		DataReqID:    d.ReadUInt16(),
		ScanReportNo: d.ReadUInt16(),
	}
	readList(d, func(d *dicomio.Decoder) {
		per := ScanReportPerGrouped{PersonID: d.ReadUInt16()}
		readList(d, func(d *dicomio.Decoder) {
			per.ObsScanGrouped = append(per.ObsScanGrouped, readAny(d))
		})
		v.ScanPerGrouped = append(v.ScanPerGrouped, per)
	})
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *ScanReportInfoMPGrouped) String() string {
	return fmt.Sprintf("scanmpgrouped{no:%d persons:%d}", v.ScanReportNo, len(v.ScanPerGrouped))
}
