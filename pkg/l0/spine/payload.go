package spine

import (
	"bytes"
	"encoding/binary"
)

// Fixed payload sizes of the typed records.
const (
	AckSize           = 4
	DataCharacterSize = 32
	MotorStateSize    = 12
	DataFrameSize     = 768

	// MaxTextLen is the usable length of a DataCharacter text field; the
	// last byte is reserved for the terminator.
	MaxTextLen = DataCharacterSize - 1
)

// Ack is the acknowledgment sent by the body board. Positive values
// indicate success, negative values are failure codes.
type Ack struct {
	Value int32
}

// EncodeTo writes the record into b, which is usually a channel payload.
func (a *Ack) EncodeTo(b []byte) error {
	if len(b) < AckSize {
		return ErrShortBuffer
	}
	binary.LittleEndian.PutUint32(b, uint32(a.Value))
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (a *Ack) MarshalBinary() ([]byte, error) {
	b := make([]byte, AckSize)
	return b, a.EncodeTo(b)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (a *Ack) UnmarshalBinary(b []byte) error {
	if len(b) < AckSize {
		return ErrShortBuffer
	}
	a.Value = int32(binary.LittleEndian.Uint32(b))
	return nil
}

// DataCharacter carries text between the test-station serial pad on the
// charger contacts and the head board. The field is NUL terminated.
type DataCharacter struct {
	Text [DataCharacterSize]byte
}

// SetText zero-fills the field and copies at most MaxTextLen bytes of s.
func (d *DataCharacter) SetText(s string) {
	d.Text = [DataCharacterSize]byte{}
	if len(s) > MaxTextLen {
		s = s[:MaxTextLen]
	}
	copy(d.Text[:], s)
}

// String returns the text up to the first NUL.
func (d *DataCharacter) String() string {
	text := d.Text[:]
	if n := bytes.IndexByte(text, 0); n >= 0 {
		text = text[:n]
	}
	return string(text)
}

// EncodeTo writes the record into b.
func (d *DataCharacter) EncodeTo(b []byte) error {
	if len(b) < DataCharacterSize {
		return ErrShortBuffer
	}
	copy(b, d.Text[:])
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (d *DataCharacter) MarshalBinary() ([]byte, error) {
	b := make([]byte, DataCharacterSize)
	return b, d.EncodeTo(b)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *DataCharacter) UnmarshalBinary(b []byte) error {
	if len(b) < DataCharacterSize {
		return ErrShortBuffer
	}
	copy(d.Text[:], b)
	return nil
}
