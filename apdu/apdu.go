// Package apdu implements the IEEE 11073-20601 APDU data model and its MDER
// (Medical Device Encoding Rules) codec. It sits below the communication
// state machines.
package apdu

import (
	"encoding/binary"
	"fmt"

	"github.com/grailbio/go-dicom/dicomio"
)

// MDER is big-endian throughout.
var mderByteOrder = binary.BigEndian

// APDU is the top-level choice transported over the wire.
type APDU interface {
	// WritePayload encodes the APDU contents, excluding the four-byte
	// choice/length header that is common to all APDU types.
	WritePayload(*dicomio.Encoder)
	// Print human-readable description for debugging.
	String() string
}

// Choice tags for the APDU union (20601 A.4).
const (
	ChoiceAarq uint16 = 0xE200
	ChoiceAare uint16 = 0xE300
	ChoiceRlrq uint16 = 0xE400
	ChoiceRlre uint16 = 0xE500
	ChoiceAbrt uint16 = 0xE600
	ChoicePrst uint16 = 0xE700
)

func choiceOf(v APDU) (uint16, error) {
	switch v.(type) {
	case *Aarq:
		return ChoiceAarq, nil
	case *Aare:
		return ChoiceAare, nil
	case *Rlrq:
		return ChoiceRlrq, nil
	case *Rlre:
		return ChoiceRlre, nil
	case *Abrt:
		return ChoiceAbrt, nil
	case *Prst:
		return ChoicePrst, nil
	}
	return 0, fmt.Errorf("apdu: unknown APDU type %T", v)
}

// DecodeAPDU decodes the payload of an APDU with the given choice tag.
func DecodeAPDU(choice uint16, payload []byte) (APDU, error) {
	d := dicomio.NewBytesDecoder(payload, mderByteOrder, dicomio.UnknownVR)
	var v APDU
	switch choice {
	case ChoiceAarq:
		v = decodeAarq(d)
	case ChoiceAare:
		v = decodeAare(d)
	case ChoiceRlrq:
		v = &Rlrq{Reason: d.ReadUInt16()}
	case ChoiceRlre:
		v = &Rlre{Reason: d.ReadUInt16()}
	case ChoiceAbrt:
		v = &Abrt{Reason: d.ReadUInt16()}
	case ChoicePrst:
		v = decodePrst(d)
	default:
		return nil, fmt.Errorf("apdu: unknown choice 0x%04x", choice)
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return v, nil
}

// DataProto is one entry of the AARQ data protocol list (20601 A.4).
type DataProto struct {
	ID uint16
	// Info is the encoded PhdAssociationInformation for DataProtoID20601.
	Info []byte
}

func (v *DataProto) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ID)
	writeAny(e, v.Info)
}

func readDataProto(d *dicomio.Decoder) DataProto {
	return DataProto{
		ID:   d.ReadUInt16(),
		Info: readAny(d),
	}
}

// Aarq is the association request, normally sent by the Agent.
type Aarq struct {
	AssocVersion  uint32
	DataProtoList []DataProto
}

func (v *Aarq) WritePayload(e *dicomio.Encoder) {
	e.WriteUInt32(v.AssocVersion)
	writeList(e, len(v.DataProtoList), func(sub *dicomio.Encoder) {
		for i := range v.DataProtoList {
			v.DataProtoList[i].write(sub)
		}
	})
}

func decodeAarq(d *dicomio.Decoder) *Aarq {
	v := &Aarq{}
	v.AssocVersion = d.ReadUInt32()
	readList(d, func(d *dicomio.Decoder) {
		v.DataProtoList = append(v.DataProtoList, readDataProto(d))
	})
	return v
}

// Proto20601 returns the 20601 protocol entry of the request, if present.
func (v *Aarq) Proto20601() *DataProto {
	for i := range v.DataProtoList {
		if v.DataProtoList[i].ID == DataProtoID20601 {
			return &v.DataProtoList[i]
		}
	}
	return nil
}

func (v *Aarq) String() string {
	return fmt.Sprintf("AARQ{version:0x%08x protos:%d}", v.AssocVersion, len(v.DataProtoList))
}

// Association result values for Aare.Result (20601 A.5).
const (
	Accepted                        uint16 = 0
	RejectedPermanent               uint16 = 1
	RejectedTransient               uint16 = 2
	AcceptedUnknownConfig           uint16 = 3
	RejectedNoCommonProtocol        uint16 = 4
	RejectedNoCommonParameter       uint16 = 5
	RejectedUnknown                 uint16 = 6
	RejectedUnauthorized            uint16 = 7
	RejectedUnsupportedAssocVersion uint16 = 8
)

// Aare is the association response, sent by the Manager.
type Aare struct {
	Result   uint16
	Selected DataProto
}

func (v *Aare) WritePayload(e *dicomio.Encoder) {
	e.WriteUInt16(v.Result)
	v.Selected.write(e)
}

func decodeAare(d *dicomio.Decoder) *Aare {
	return &Aare{
		Result:   d.ReadUInt16(),
		Selected: readDataProto(d),
	}
}

func (v *Aare) String() string {
	return fmt.Sprintf("AARE{result:%d proto:%d}", v.Result, v.Selected.ID)
}

// Release request reasons (20601 A.6).
const (
	ReleaseRequestReasonNormal               uint16 = 0
	ReleaseRequestReasonNoMoreConfigurations uint16 = 1
	ReleaseRequestReasonConfigurationChanged uint16 = 2
)

// Release response reasons.
const (
	ReleaseResponseReasonNormal uint16 = 0
)

// Rlrq is the association release request.
type Rlrq struct {
	Reason uint16
}

func (v *Rlrq) WritePayload(e *dicomio.Encoder) {
	e.WriteUInt16(v.Reason)
}

func (v *Rlrq) String() string {
	return fmt.Sprintf("RLRQ{reason:%d}", v.Reason)
}

// Rlre is the association release response.
type Rlre struct {
	Reason uint16
}

func (v *Rlre) WritePayload(e *dicomio.Encoder) {
	e.WriteUInt16(v.Reason)
}

func (v *Rlre) String() string {
	return fmt.Sprintf("RLRE{reason:%d}", v.Reason)
}

// Abort reasons (20601 A.7).
const (
	AbortReasonUndefined            uint16 = 0
	AbortReasonBufferOverflow       uint16 = 1
	AbortReasonResponseTimeout      uint16 = 2
	AbortReasonConfigurationTimeout uint16 = 3
)

// Abrt aborts the association unconditionally.
type Abrt struct {
	Reason uint16
}

func (v *Abrt) WritePayload(e *dicomio.Encoder) {
	e.WriteUInt16(v.Reason)
}

func (v *Abrt) String() string {
	return fmt.Sprintf("ABRT{reason:%d}", v.Reason)
}

// Prst carries one DATA-apdu.
type Prst struct {
	Data DataApdu
}

func (v *Prst) WritePayload(e *dicomio.Encoder) {
	body, err := encodeToBytes(v.Data.write)
	if err != nil {
		e.SetError(err)
		return
	}
	e.WriteUInt16(uint16(len(body)))
	e.WriteBytes(body)
}

func decodePrst(d *dicomio.Decoder) *Prst {
	length := d.ReadUInt16()
	d.PushLimit(int64(length))
	defer d.PopLimit()
	v := &Prst{Data: readDataApdu(d)}
	return v
}

func (v *Prst) String() string {
	return fmt.Sprintf("PRST{%s}", v.Data.String())
}
