package apdu

// Wire framing: every APDU travels as a two-byte choice tag, a two-byte
// payload length and the payload, all big-endian.

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/suyashkumar/dicom/pkg/dicomio"
)

// EncodeAPDU serializes v, including the choice/length header.
func EncodeAPDU(v APDU) ([]byte, error) {
	choice, err := choiceOf(v)
	if err != nil {
		return nil, err
	}
	payload, err := encodeToBytes(v.WritePayload)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	e := dicomio.NewWriter(&buf, binary.BigEndian, false)
	if err := e.WriteUInt16(choice); err != nil {
		return nil, err
	}
	if err := e.WriteUInt16(uint16(len(payload))); err != nil {
		return nil, err
	}
	if err := e.WriteBytes(payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FrameReader decodes consecutive APDUs from one transport stream.
type FrameReader struct {
	d       *dicomio.Reader
	maxSize int
}

// NewFrameReader wraps a transport stream. maxSize bounds the declared
// payload length to avoid unbounded allocation on garbage input.
func NewFrameReader(in io.Reader, maxSize int) *FrameReader {
	return &FrameReader{
		d:       dicomio.NewReader(bufio.NewReader(in), binary.BigEndian, math.MaxInt64),
		maxSize: maxSize,
	}
}

// Next reads and decodes one APDU. A frame whose payload fails to decode
// leaves the reader positioned at the next frame boundary.
func (r *FrameReader) Next() (APDU, error) {
	choice, err := r.d.ReadUInt16()
	if err != nil {
		return nil, err
	}
	length, err := r.d.ReadUInt16()
	if err != nil {
		return nil, err
	}
	if int(length) > r.maxSize {
		return nil, fmt.Errorf("apdu: declared length %d exceeds limit %d", length, r.maxSize)
	}
	payload, err := r.d.ReadString(uint32(length))
	if err != nil {
		return nil, err
	}
	return DecodeAPDU(choice, []byte(payload))
}

// ReadAPDU reads one APDU from the stream. Use a FrameReader when decoding
// a sequence of frames from one connection.
func ReadAPDU(in io.Reader, maxSize int) (APDU, error) {
	return NewFrameReader(in, maxSize).Next()
}
