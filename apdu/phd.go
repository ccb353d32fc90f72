package apdu

// PhdAssociationInformation and the association wire constants (20601 A.4).

import (
	"fmt"

	"github.com/grailbio/go-dicom/dicomio"
)

const (
	// AssocVersion1 is the only defined association protocol version.
	AssocVersion1 uint32 = 0x80000000
	// MDER is the encoding rule this implementation writes; the encoding rules
// of an inbound association request are not checked.
	MDER uint16 = 0x8000
	// NomVersion1 is the nomenclature version bit.
	NomVersion1 uint32 = 0x80000000
	// DataProtoID20601 identifies the 20601 optimized exchange protocol.
	DataProtoID20601 uint16 = 20601

	SysTypeAgent   uint32 = 0x00800000
	SysTypeManager uint32 = 0x80000000

	// DataReqSuppInitAgent flags support for agent-initiated measurement
	// data requests.
	DataReqSuppInitAgent uint16 = 0x4000

	// ManagerConfigResponse is the dev-config-id a manager reports in its
	// AARE.
	ManagerConfigResponse uint16 = 0x0000
	// ExtendedConfigStart is the first dev-config-id of the
	// agent-defined (extended) configuration range.
	ExtendedConfigStart uint16 = 0x4000

	// AarqLength and AareLength are the fixed APDU payload lengths
	// produced by this implementation; AssocInfoLength is the encoded
	// PhdAssociationInformation size with an 8-byte system id.
	AarqLength      = 50
	AareLength      = 44
	AssocInfoLength = 38
)

// DataReqModeCapab describes the data request modes an agent supports.
type DataReqModeCapab struct {
	DataReqModeFlags        uint16
	DataReqInitAgentCount   uint8
	DataReqInitManagerCount uint8
}

// PhdAssociationInformation is the payload of the 20601 data_proto_info
// field in AARQ and AARE.
type PhdAssociationInformation struct {
	ProtocolVersion     uint32
	EncodingRules       uint16
	NomenclatureVersion uint32
	FunctionalUnits     uint32
	SystemType          uint32
	SystemID            []byte
	DevConfigID         uint16
	DataReqModeCapab    DataReqModeCapab
	OptionList          AttributeList
}

// EncodePhdAssociationInformation serializes v for use as data_proto_info.
func EncodePhdAssociationInformation(v *PhdAssociationInformation) ([]byte, error) {
	return encodeToBytes(func(e *dicomio.Encoder) {
		e.WriteUInt32(v.ProtocolVersion)
		e.WriteUInt16(v.EncodingRules)
		e.WriteUInt32(v.NomenclatureVersion)
		e.WriteUInt32(v.FunctionalUnits)
		e.WriteUInt32(v.SystemType)
		writeAny(e, v.SystemID)
		e.WriteUInt16(v.DevConfigID)
		e.WriteUInt16(v.DataReqModeCapab.DataReqModeFlags)
		e.WriteByte(v.DataReqModeCapab.DataReqInitAgentCount)
		e.WriteByte(v.DataReqModeCapab.DataReqInitManagerCount)
		v.OptionList.write(e)
	})
}

// DecodePhdAssociationInformation parses the data_proto_info payload.
func DecodePhdAssociationInformation(data []byte) (*PhdAssociationInformation, error) {
	d := dicomio.NewBytesDecoder(data, mderByteOrder, dicomio.UnknownVR)
	v := &PhdAssociationInformation{}
	v.ProtocolVersion = d.ReadUInt32()
	v.EncodingRules = d.ReadUInt16()
	v.NomenclatureVersion = d.ReadUInt32()
	v.FunctionalUnits = d.ReadUInt32()
	v.SystemType = d.ReadUInt32()
	v.SystemID = readAny(d)
	v.DevConfigID = d.ReadUInt16()
	v.DataReqModeCapab.DataReqModeFlags = d.ReadUInt16()
	v.DataReqModeCapab.DataReqInitAgentCount = d.ReadByte()
	v.DataReqModeCapab.DataReqInitManagerCount = d.ReadByte()
	v.OptionList = readAttributeList(d)
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *PhdAssociationInformation) String() string {
	return fmt.Sprintf("phdassoc{sysid:%x config:0x%04x}", v.SystemID, v.DevConfigID)
}
