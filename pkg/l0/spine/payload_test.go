package spine

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAck(t *testing.T) {
	ch := NewChannel(BodyToHead)
	ack := Ack{Value: 1}
	payload, err := ack.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0}, payload)

	size, err := ch.Encode(TypeAck, payload)
	require.NoError(t, err)
	frame := ch.Frame(size)
	require.Equal(t, []byte{0xAA, 'B', '2', 'H', 0x61, 0x6B, 0x04, 0x00, 0x01, 0x00, 0x00, 0x00}, frame[:12])
	require.Equal(t, Checksum([]byte{1, 0, 0, 0}), binary.LittleEndian.Uint32(frame[12:]))

	var decoded Ack
	require.NoError(t, decoded.UnmarshalBinary(ch.Payload(size)))
	require.Equal(t, int32(1), decoded.Value)

	require.NoError(t, decoded.UnmarshalBinary([]byte{0xfe, 0xff, 0xff, 0xff}))
	require.Equal(t, int32(-2), decoded.Value)
	require.ErrorIs(t, decoded.UnmarshalBinary([]byte{1}), ErrShortBuffer)
}

func TestDataCharacter(t *testing.T) {
	var dc DataCharacter
	dc.SetText("Hello H2B!")
	require.Equal(t, "Hello H2B!", dc.String())
	b, err := dc.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, DataCharacterSize)
	require.Equal(t, make([]byte, DataCharacterSize-10), b[10:])

	long := bytes.Repeat([]byte{'x'}, 40)
	dc.SetText(string(long))
	require.Equal(t, string(long[:MaxTextLen]), dc.String())
	require.Equal(t, byte(0), dc.Text[MaxTextLen])

	var parsed DataCharacter
	require.NoError(t, parsed.UnmarshalBinary(append([]byte("ok"), make([]byte, 30)...)))
	require.Equal(t, "ok", parsed.String())

	// an unterminated field is taken whole
	require.NoError(t, parsed.UnmarshalBinary(bytes.Repeat([]byte{'y'}, DataCharacterSize)))
	require.Len(t, parsed.String(), DataCharacterSize)
}
