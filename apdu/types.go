package apdu

import (
	"bytes"
	"fmt"

	"github.com/grailbio/go-dicom/dicomio"
)

// OIDType is a nomenclature code (IEEE 11073-10101).
type OIDType = uint16

// Handle identifies an object within the MDS. Handle 0 is the MDS itself.
type Handle = uint16

// InvokeID correlates a ROIV with its eventual RORS/ROER/RORJ.
type InvokeID = uint16

// RelativeTime is a 1/8ms tick counter, per 20601 A.8.
type RelativeTime = uint32

// writeAny writes an ASN.1 Any as a 16-bit length followed by the raw
// contents.
func writeAny(e *dicomio.Encoder, v []byte) {
	e.WriteUInt16(uint16(len(v)))
	e.WriteBytes(v)
}

func readAny(d *dicomio.Decoder) []byte {
	length := d.ReadUInt16()
	return d.ReadBytes(int(length))
}

// encodeToBytes runs the given callback against a fresh big-endian encoder and
// returns the produced bytes. All MDER list and Any length prefixes are
// computed this way.
func encodeToBytes(f func(*dicomio.Encoder)) ([]byte, error) {
	e := dicomio.NewBytesEncoder(mderByteOrder, dicomio.UnknownVR)
	f(e)
	if err := e.Error(); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// writeList writes the MDER list header (count, byte length) followed by the
// per-entry payloads produced by f.
func writeList(e *dicomio.Encoder, count int, f func(*dicomio.Encoder)) {
	body, err := encodeToBytes(f)
	if err != nil {
		e.SetError(err)
		return
	}
	e.WriteUInt16(uint16(count))
	e.WriteUInt16(uint16(len(body)))
	e.WriteBytes(body)
}

// readList reads the MDER list header and invokes f once per entry, bounded by
// the encoded byte length.
func readList(d *dicomio.Decoder, f func(*dicomio.Decoder)) {
	count := d.ReadUInt16()
	length := d.ReadUInt16()
	d.PushLimit(int64(length))
	defer d.PopLimit()
	for i := 0; i < int(count); i++ {
		if d.Error() != nil {
			return
		}
		f(d)
	}
}

// AVAType is an attribute-id/value pair (20601 A.2).
type AVAType struct {
	AttributeID OIDType
	Value       []byte
}

func (v *AVAType) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.AttributeID)
	writeAny(e, v.Value)
}

func readAVAType(d *dicomio.Decoder) AVAType {
	return AVAType{
		AttributeID: d.ReadUInt16(),
		Value:       readAny(d),
	}
}

func (v *AVAType) String() string {
	return fmt.Sprintf("ava{id:%d value:%dbytes}", v.AttributeID, len(v.Value))
}

// AttributeList is a sequence of AVAs.
type AttributeList struct {
	List []AVAType
}

func (v *AttributeList) write(e *dicomio.Encoder) {
	writeList(e, len(v.List), func(sub *dicomio.Encoder) {
		for i := range v.List {
			v.List[i].write(sub)
		}
	})
}

func readAttributeList(d *dicomio.Decoder) AttributeList {
	v := AttributeList{}
	readList(d, func(d *dicomio.Decoder) {
		v.List = append(v.List, readAVAType(d))
	})
	return v
}

// Lookup returns the value of the attribute with the given id, or nil.
func (v *AttributeList) Lookup(id OIDType) []byte {
	for i := range v.List {
		if v.List[i].AttributeID == id {
			return v.List[i].Value
		}
	}
	return nil
}

func (v *AttributeList) String() string {
	buf := bytes.Buffer{}
	buf.WriteString("[")
	for i := range v.List {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(v.List[i].String())
	}
	buf.WriteString("]")
	return buf.String()
}

// ModifyOperator values for AttributeModEntry (20601 A.10).
const (
	ReplaceValue uint16 = 0
	AddValues    uint16 = 1
	RemoveValues uint16 = 2
	SetToDefault uint16 = 3
)

// AttributeModEntry is one entry of a Set modification list.
type AttributeModEntry struct {
	ModifyOperator uint16
	Attribute      AVAType
}

func (v *AttributeModEntry) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ModifyOperator)
	v.Attribute.write(e)
}

func readAttributeModEntry(d *dicomio.Decoder) AttributeModEntry {
	return AttributeModEntry{
		ModifyOperator: d.ReadUInt16(),
		Attribute:      readAVAType(d),
	}
}

// AttributeIDList is a sequence of attribute ids.
type AttributeIDList struct {
	List []OIDType
}

func (v *AttributeIDList) write(e *dicomio.Encoder) {
	writeList(e, len(v.List), func(sub *dicomio.Encoder) {
		for _, id := range v.List {
			sub.WriteUInt16(id)
		}
	})
}

func readAttributeIDList(d *dicomio.Decoder) AttributeIDList {
	v := AttributeIDList{}
	readList(d, func(d *dicomio.Decoder) {
		v.List = append(v.List, d.ReadUInt16())
	})
	return v
}
