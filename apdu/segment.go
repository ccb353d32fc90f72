package apdu

// PM-store segment transfer structures, SetTimeInvoke and DataResponse
// (20601 A.11.5).

import (
	"fmt"

	"github.com/grailbio/go-dicom/dicomio"
)

// SegmEvtStatus flag bits.
const (
	SevtstaFirstEntry     uint16 = 0x8000
	SevtstaLastEntry      uint16 = 0x4000
	SevtstaAgentAbort     uint16 = 0x0800
	SevtstaManagerConfirm uint16 = 0x0080
	SevtstaManagerAbort   uint16 = 0x0008
)

// TrigSegmXferRsp result codes.
const (
	TsxrSuccessful        uint16 = 0
	TsxrFailNoSuchSegment uint16 = 1
	TsxrFailSegmTryLater  uint16 = 2
	TsxrFailSegmEmpty     uint16 = 3
	TsxrFailOther         uint16 = 512
)

// SegmentDataEventDescr describes one segment data transfer chunk.
type SegmentDataEventDescr struct {
	SegmInstance      uint16
	SegmEvtEntryIndex uint32
	SegmEvtEntryCount uint32
	SegmEvtStatus     uint16
}

func (v *SegmentDataEventDescr) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.SegmInstance)
	e.WriteUInt32(v.SegmEvtEntryIndex)
	e.WriteUInt32(v.SegmEvtEntryCount)
	e.WriteUInt16(v.SegmEvtStatus)
}

func readSegmentDataEventDescr(d *dicomio.Decoder) SegmentDataEventDescr {
	return SegmentDataEventDescr{
		SegmInstance:      d.ReadUInt16(),
		SegmEvtEntryIndex: d.ReadUInt32(),
		SegmEvtEntryCount: d.ReadUInt32(),
		SegmEvtStatus:     d.ReadUInt16(),
	}
}

// SegmentDataEvent is the event_info of a segment data confirmed event
// report.
type SegmentDataEvent struct {
	SegmDataEventDescr   SegmentDataEventDescr
	SegmDataEventEntries []byte
}

// EncodeSegmentDataEvent serializes v.
func EncodeSegmentDataEvent(v *SegmentDataEvent) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		v.SegmDataEventDescr.write(e)
		writeAny(e, v.SegmDataEventEntries)
	})
}

// DecodeSegmentDataEvent parses a segment data event payload.
func DecodeSegmentDataEvent(data []byte) (*SegmentDataEvent, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &SegmentDataEvent{
		SegmDataEventDescr:   readSegmentDataEventDescr(d),
		SegmDataEventEntries: readAny(d),
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *SegmentDataEvent) String() string {
	return fmt.Sprintf("segmdata{inst:%d index:%d count:%d status:0x%04x entries:%dbytes}",
		v.SegmDataEventDescr.SegmInstance, v.SegmDataEventDescr.SegmEvtEntryIndex,
		v.SegmDataEventDescr.SegmEvtEntryCount, v.SegmDataEventDescr.SegmEvtStatus,
		len(v.SegmDataEventEntries))
}

// SegmentDataResult is the event_reply_info of a segment data response.
type SegmentDataResult struct {
	SegmDataEventDescr SegmentDataEventDescr
}

// EncodeSegmentDataResult serializes v.
func EncodeSegmentDataResult(v *SegmentDataResult) ([]byte, error) {
	return encodeToBytes(v.SegmDataEventDescr.write)
}

// DecodeSegmentDataResult parses a segment data response payload.
func DecodeSegmentDataResult(data []byte) (*SegmentDataResult, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &SegmentDataResult{SegmDataEventDescr: readSegmentDataEventDescr(d)}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *SegmentDataResult) String() string {
	return fmt.Sprintf("segmresult{inst:%d status:0x%04x}",
		v.SegmDataEventDescr.SegmInstance, v.SegmDataEventDescr.SegmEvtStatus)
}

// SegmentInfo describes one PM-segment in a SegmentInfoList.
type SegmentInfo struct {
	SegInstNo uint16
	SegInfo   AttributeList
}

// SegmentInfoList is the MDC_ACT_SEG_GET_INFO response payload.
type SegmentInfoList struct {
	Segments []SegmentInfo
}

// EncodeSegmentInfoList serializes v.
func EncodeSegmentInfoList(v *SegmentInfoList) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		writeList(e, len(v.Segments), func(sub *dicomio.Encoder) {
			for i := range v.Segments {
				sub.WriteUInt16(v.Segments[i].SegInstNo)
				v.Segments[i].SegInfo.write(sub)
			}
		})
	})
}

// DecodeSegmentInfoList parses a segment info response payload.
func DecodeSegmentInfoList(data []byte) (*SegmentInfoList, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &SegmentInfoList{}
	readList(d, func(d *dicomio.Decoder) {
		v.Segments = append(v.Segments, SegmentInfo{
			SegInstNo: d.ReadUInt16(),
			SegInfo:   readAttributeList(d),
		})
	})
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *SegmentInfoList) String() string {
	return fmt.Sprintf("segminfolist{segments:%d}", len(v.Segments))
}

// TrigSegmDataXferReq is the MDC_ACT_SEG_TRIG_XFER request payload.
type TrigSegmDataXferReq struct {
	SegInstNo uint16
}

// EncodeTrigSegmDataXferReq serializes v.
func EncodeTrigSegmDataXferReq(v *TrigSegmDataXferReq) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		e.WriteUInt16(v.SegInstNo)
	})
}

// DecodeTrigSegmDataXferReq parses a trigger transfer request payload.
func DecodeTrigSegmDataXferReq(data []byte) (*TrigSegmDataXferReq, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &TrigSegmDataXferReq{SegInstNo: d.ReadUInt16()}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

// TrigSegmDataXferRsp is the MDC_ACT_SEG_TRIG_XFER response payload.
type TrigSegmDataXferRsp struct {
	SegInstNo       uint16
	TrigSegmXferRsp uint16
}

// EncodeTrigSegmDataXferRsp serializes v.
func EncodeTrigSegmDataXferRsp(v *TrigSegmDataXferRsp) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		e.WriteUInt16(v.SegInstNo)
		e.WriteUInt16(v.TrigSegmXferRsp)
	})
}

// DecodeTrigSegmDataXferRsp parses a trigger transfer response payload.
func DecodeTrigSegmDataXferRsp(data []byte) (*TrigSegmDataXferRsp, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &TrigSegmDataXferRsp{
		SegInstNo:       d.ReadUInt16(),
		TrigSegmXferRsp: d.ReadUInt16(),
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *TrigSegmDataXferRsp) String() string {
	return fmt.Sprintf("trigxferrsp{inst:%d rsp:%d}", v.SegInstNo, v.TrigSegmXferRsp)
}

// AbsoluteTime is the BCD-coded wall clock time (20601 A.8).
type AbsoluteTime struct {
	Century      uint8
	Year         uint8
	Month        uint8
	Day          uint8
	Hour         uint8
	Minute       uint8
	Second       uint8
	SecFractions uint8
}

func (v *AbsoluteTime) write(e *dicomio.Encoder) {
	e.WriteByte(v.Century)
	e.WriteByte(v.Year)
	e.WriteByte(v.Month)
	e.WriteByte(v.Day)
	e.WriteByte(v.Hour)
	e.WriteByte(v.Minute)
	e.WriteByte(v.Second)
	e.WriteByte(v.SecFractions)
}

func readAbsoluteTime(d *dicomio.Decoder) AbsoluteTime {
	return AbsoluteTime{
		Century:      d.ReadByte(),
		Year:         d.ReadByte(),
		Month:        d.ReadByte(),
		Day:          d.ReadByte(),
		Hour:         d.ReadByte(),
		Minute:       d.ReadByte(),
		Second:       d.ReadByte(),
		SecFractions: d.ReadByte(),
	}
}

// SetTimeInvoke is the MDC_ACT_SET_TIME action argument.
type SetTimeInvoke struct {
	DateTime AbsoluteTime
	// Accuracy is a FLOAT-Type (8-bit exponent, 24-bit mantissa).
	Accuracy uint32
}

// EncodeSetTimeInvoke serializes v.
func EncodeSetTimeInvoke(v *SetTimeInvoke) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		v.DateTime.write(e)
		e.WriteUInt32(v.Accuracy)
	})
}

// DecodeSetTimeInvoke parses a set-time action argument.
func DecodeSetTimeInvoke(data []byte) (*SetTimeInvoke, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &SetTimeInvoke{
		DateTime: readAbsoluteTime(d),
		Accuracy: d.ReadUInt32(),
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *SetTimeInvoke) String() string {
	return fmt.Sprintf("settime{%02x%02x-%02x-%02x %02x:%02x:%02x}",
		v.DateTime.Century, v.DateTime.Year, v.DateTime.Month, v.DateTime.Day,
		v.DateTime.Hour, v.DateTime.Minute, v.DateTime.Second)
}

// Data request result codes for DataResponse.
const (
	DataReqResultNoError uint16 = 0
)

// DataResponse is the MDC_ACT_DATA_REQUEST confirmed action response
// payload: a wrapped event report produced on the manager's request.
type DataResponse struct {
	RelTimeStamp  RelativeTime
	DataReqResult uint16
	EventType     OIDType
	EventInfo     []byte
}

// EncodeDataResponse serializes v.
func EncodeDataResponse(v *DataResponse) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		e.WriteUInt32(v.RelTimeStamp)
		e.WriteUInt16(v.DataReqResult)
		e.WriteUInt16(v.EventType)
		writeAny(e, v.EventInfo)
	})
}

// DecodeDataResponse parses a data request response payload.
func DecodeDataResponse(data []byte) (*DataResponse, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &DataResponse{
		RelTimeStamp:  d.ReadUInt32(),
		DataReqResult: d.ReadUInt16(),
		EventType:     d.ReadUInt16(),
		EventInfo:     readAny(d),
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *DataResponse) String() string {
	return fmt.Sprintf("datarsp{type:%d result:%d info:%dbytes}", v.EventType, v.DataReqResult, len(v.EventInfo))
}
