package spine

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Channel is the receive/send state of one direction: the direction's
// tables and a single staging buffer reused for every frame.
type Channel struct {
	dir *Direction
	buf [BufferSize]byte
}

// NewChannel creates a Channel for dir.
func NewChannel(dir *Direction) *Channel {
	return &Channel{dir: dir}
}

// Direction returns the direction of the channel.
func (c *Channel) Direction() *Direction {
	return c.dir
}

// Receive reads one frame from r into the buffer and returns its type and
// payload size.
//
// Sync and tag are compared byte by byte and the call gives up on the first
// mismatch without rescanning that byte; resynchronization happens across
// repeated calls. On any failure the result is (TypeInvalid, 0, err), where
// err either satisfies IsFrameError or comes from r.
func (c *Channel) Receive(r io.Reader) (MessageType, int, error) {
	buf := c.buf[:]
	expect := [TypeOffset]byte{SyncByte, c.dir.tag[0], c.dir.tag[1], c.dir.tag[2]}
	for i, want := range expect {
		if _, err := io.ReadFull(r, buf[i:i+1]); err != nil {
			return TypeInvalid, 0, err
		}
		if buf[i] != want {
			return TypeInvalid, 0, fmt.Errorf("%w: byte %d is 0x%02x, want 0x%02x",
				ErrSyncMismatch, i, buf[i], want)
		}
	}

	if _, err := io.ReadFull(r, buf[TypeOffset:PayloadOffset]); err != nil {
		return TypeInvalid, 0, err
	}
	t, size := c.Header()
	expected, ok := c.dir.Size(t)
	if !ok {
		expected = -1
	}
	if expected != size {
		return TypeInvalid, 0, &TypeSizeError{Dir: c.dir, Type: t, Size: size, Expected: expected}
	}

	if _, err := io.ReadFull(r, buf[PayloadOffset:PayloadOffset+size+CRCSize]); err != nil {
		return TypeInvalid, 0, err
	}
	if got, want := readCRC(buf, size), Checksum(c.Payload(size)); got != want {
		return TypeInvalid, 0, fmt.Errorf("%w: %s trailer %08x, computed %08x",
			ErrCRCMismatch, t, got, want)
	}
	return t, size, nil
}

// ReceiveMessage is Receive without the error: any failure yields
// (TypeInvalid, 0).
func (c *Channel) ReceiveMessage(r io.Reader) (MessageType, int) {
	t, size, _ := c.Receive(r)
	return t, size
}

// Header decodes type and size currently in the buffer.
func (c *Channel) Header() (MessageType, int) {
	return MessageType(binary.LittleEndian.Uint16(c.buf[TypeOffset:])),
		int(binary.LittleEndian.Uint16(c.buf[SizeOffset:]))
}

// PopulateHeader writes the header for t into the buffer and returns the
// payload size from the table.
func (c *Channel) PopulateHeader(t MessageType) (int, error) {
	return c.dir.PopulateHeader(c.buf[:], t)
}

// Payload returns the payload region of the buffer. The slice aliases the
// buffer and is overwritten by the next receive or encode.
func (c *Channel) Payload(size int) []byte {
	return c.buf[PayloadOffset : PayloadOffset+size]
}

// Frame returns header, payload and trailer for a payload of size.
func (c *Channel) Frame(size int) []byte {
	return c.buf[:FrameSize(size)]
}

// Seal recomputes the CRC over the payload in the buffer and writes it to
// the trailer.
func (c *Channel) Seal(size int) uint32 {
	return writeCRC(c.buf[:], size)
}

// CRC returns the trailer currently in the buffer.
func (c *Channel) CRC(size int) uint32 {
	return readCRC(c.buf[:], size)
}

// Send writes header, payload and trailer from the buffer to w verbatim.
// Whoever filled the buffer is responsible for the trailer.
func (c *Channel) Send(w io.Writer, size int) error {
	if size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrPayloadSize, size)
	}
	if size > MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	_, err := w.Write(c.Frame(size))
	return err
}

// Encode builds a complete frame of type t with the given payload, which
// must have exactly the table size.
func (c *Channel) Encode(t MessageType, payload []byte) (int, error) {
	if size, ok := c.dir.Size(t); ok && size != len(payload) {
		return 0, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrPayloadSize, t, size, len(payload))
	}
	size, err := c.PopulateHeader(t)
	if err != nil {
		return 0, err
	}
	copy(c.Payload(size), payload)
	c.Seal(size)
	return size, nil
}

// DataCharacterMsg builds a dataCharacter frame carrying at most 31 bytes of
// text and returns the payload size. The CRC covers the whole fixed-size
// text field.
func (c *Channel) DataCharacterMsg(text string) (int, error) {
	size, err := c.PopulateHeader(TypeDataCharacter)
	if err != nil {
		return 0, err
	}
	var msg DataCharacter
	msg.SetText(text)
	if err = msg.EncodeTo(c.Payload(size)); err != nil {
		return 0, err
	}
	c.Seal(size)
	return size, nil
}
