package spine

// Frame layout, identical for both directions.
const (
	// SyncByte starts every frame.
	SyncByte byte = 0xAA

	// TagOffset is where the 3-byte direction tag starts.
	TagOffset = 1
	// TypeOffset is the offset of the 16-bit message type.
	TypeOffset = 4
	// SizeOffset is the offset of the 16-bit payload size.
	SizeOffset = 6
	// PayloadOffset is where the payload starts.
	PayloadOffset = 8

	// HeaderSize is sync + tag + type + size.
	HeaderSize = PayloadOffset
	// CRCSize is the size of the CRC trailer.
	CRCSize = 4

	// MaxPayloadSize is the largest payload in any table (updateFirmware, H2B).
	MaxPayloadSize = 1028
	// BufferSize is the capacity of a channel's staging buffer.
	BufferSize = HeaderSize + MaxPayloadSize + CRCSize
)

// FrameSize returns the number of bytes on the wire for a payload of size.
func FrameSize(payloadSize int) int {
	return HeaderSize + payloadSize + CRCSize
}
