package spine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// Direction identifies one side of the link with its tag and size table.
// The tables are protocol constants; the same code may have a different
// size, or no meaning at all, in the other direction.
type Direction struct {
	name  string
	tag   [3]byte
	sizes map[MessageType]int
}

var (
	// HeadToBody is the direction of frames sent by the head board.
	HeadToBody = &Direction{
		name: "h2b",
		tag:  [3]byte{'H', '2', 'B'},
		sizes: map[MessageType]int{
			TypeDataCharacter:  DataCharacterSize,
			TypeDataFrame:      64,
			TypeShutdown:       0,
			TypeUpdateFirmware: 1028,
			TypeMode:           0,
			TypeVersion:        0,
			TypeLights:         16,
			TypeValidate:       0,
			TypeErase:          0,
		},
	}

	// BodyToHead is the direction of frames sent by the body board.
	BodyToHead = &Direction{
		name: "b2h",
		tag:  [3]byte{'B', '2', 'H'},
		sizes: map[MessageType]int{
			TypeDataCharacter:  DataCharacterSize,
			TypeUpdateFirmware: 32,
			TypeDataFrame:      DataFrameSize,
			TypeBootFrame:      0,
			TypeAck:            AckSize,
			TypeVersion:        40,
			TypeValidate:       0,
		},
	}
)

// Directions lists both directions.
var Directions = []*Direction{HeadToBody, BodyToHead}

// ParseDirection finds a direction by name ("h2b", "b2h") or tag.
func ParseDirection(s string) (*Direction, error) {
	for _, d := range Directions {
		if strings.EqualFold(s, d.name) || strings.EqualFold(s, d.Tag()) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("unknown direction %q", s)
}

// String implements fmt.Stringer.
func (d *Direction) String() string {
	return d.name
}

// Tag returns the 3-byte ASCII tag following the sync byte.
func (d *Direction) Tag() string {
	return string(d.tag[:])
}

// Size looks up the payload size of t. ok is false if t is not valid in
// this direction.
func (d *Direction) Size(t MessageType) (size int, ok bool) {
	size, ok = d.sizes[t]
	return
}

// Types returns the valid message types in ascending code order.
func (d *Direction) Types() []MessageType {
	types := make([]MessageType, 0, len(d.sizes))
	for t := range d.sizes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// PopulateHeader writes sync, tag, type and the table size of t into buf
// and returns that size. Unknown types are refused with ErrUnknownType and
// buf is left untouched.
func (d *Direction) PopulateHeader(buf []byte, t MessageType) (int, error) {
	size, ok := d.Size(t)
	if !ok {
		return 0, fmt.Errorf("%w: %s in %s", ErrUnknownType, t, d)
	}
	if len(buf) < HeaderSize {
		return 0, ErrShortBuffer
	}
	buf[0] = SyncByte
	copy(buf[TagOffset:TypeOffset], d.tag[:])
	binary.LittleEndian.PutUint16(buf[TypeOffset:], uint16(t))
	binary.LittleEndian.PutUint16(buf[SizeOffset:], uint16(size))
	return size, nil
}

// Decode runs a single receive over an in-memory frame and returns the
// message type and payload. Bytes after the frame are ignored.
func (d *Direction) Decode(frame []byte) (MessageType, []byte, error) {
	ch := NewChannel(d)
	t, size, err := ch.Receive(bytes.NewReader(frame))
	if err != nil {
		return TypeInvalid, nil, err
	}
	payload := make([]byte, size)
	copy(payload, ch.Payload(size))
	return t, payload, nil
}
