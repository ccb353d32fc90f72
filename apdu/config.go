package apdu

// Configuration negotiation structures (20601 A.11.5).

import (
	"fmt"

	"github.com/grailbio/go-dicom/dicomio"
)

// Config result codes for ConfigReportRsp.
const (
	AcceptedConfig        uint16 = 0x0000
	UnsupportedConfig     uint16 = 0x0001
	StandardConfigUnknown uint16 = 0x0002
)

// ConfigObject describes one object instance of an agent configuration.
type ConfigObject struct {
	ObjClass   OIDType
	ObjHandle  Handle
	Attributes AttributeList
}

func (v *ConfigObject) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ObjClass)
	e.WriteUInt16(v.ObjHandle)
	v.Attributes.write(e)
}

func readConfigObject(d *dicomio.Decoder) ConfigObject {
	return ConfigObject{
		ObjClass:   d.ReadUInt16(),
		ObjHandle:  d.ReadUInt16(),
		Attributes: readAttributeList(d),
	}
}

// ConfigObjectList is the full object list of one configuration.
type ConfigObjectList struct {
	Objects []ConfigObject
}

func (v *ConfigObjectList) write(e *dicomio.Encoder) {
	writeList(e, len(v.Objects), func(sub *dicomio.Encoder) {
		for i := range v.Objects {
			v.Objects[i].write(sub)
		}
	})
}

func readConfigObjectList(d *dicomio.Decoder) ConfigObjectList {
	v := ConfigObjectList{}
	readList(d, func(d *dicomio.Decoder) {
		v.Objects = append(v.Objects, readConfigObject(d))
	})
	return v
}

// ConfigReport is the event_info of a NotiConfig confirmed event report.
type ConfigReport struct {
	ConfigReportID uint16
	ConfigObjList  ConfigObjectList
}

// EncodeConfigReport serializes v.
func EncodeConfigReport(v *ConfigReport) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		e.WriteUInt16(v.ConfigReportID)
		v.ConfigObjList.write(e)
	})
}

// DecodeConfigReport parses a NotiConfig event_info payload.
func DecodeConfigReport(data []byte) (*ConfigReport, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &ConfigReport{}
	v.ConfigReportID = d.ReadUInt16()
	v.ConfigObjList = readConfigObjectList(d)
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *ConfigReport) String() string {
	return fmt.Sprintf("configreport{id:0x%04x objects:%d}", v.ConfigReportID, len(v.ConfigObjList.Objects))
}

// ConfigReportRsp is the event_reply_info of the NotiConfig response.
type ConfigReportRsp struct {
	ConfigReportID uint16
	ConfigResult   uint16
}

// EncodeConfigReportRsp serializes v.
func EncodeConfigReportRsp(v *ConfigReportRsp) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		e.WriteUInt16(v.ConfigReportID)
		e.WriteUInt16(v.ConfigResult)
	})
}

// DecodeConfigReportRsp parses a NotiConfig response payload.
func DecodeConfigReportRsp(data []byte) (*ConfigReportRsp, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &ConfigReportRsp{
		ConfigReportID: d.ReadUInt16(),
		ConfigResult:   d.ReadUInt16(),
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *ConfigReportRsp) String() string {
	return fmt.Sprintf("configreportrsp{id:0x%04x result:%d}", v.ConfigReportID, v.ConfigResult)
}
