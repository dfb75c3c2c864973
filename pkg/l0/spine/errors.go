package spine

import (
	"errors"
	"fmt"
)

var (
	// ErrSyncMismatch indicates a byte did not match the sync byte or tag.
	ErrSyncMismatch = errors.New("sync mismatch")
	// ErrCRCMismatch indicates the trailer disagrees with the payload.
	ErrCRCMismatch = errors.New("crc mismatch")
	// ErrUnknownType indicates a message type is not valid in the direction
	// used to encode it.
	ErrUnknownType = errors.New("unknown message type")
	// ErrPayloadSize indicates a payload does not match the table size.
	ErrPayloadSize = errors.New("payload size mismatch")
	// ErrPayloadTooLarge indicates a size beyond MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
	// ErrShortBuffer indicates a buffer too small for the requested layout.
	ErrShortBuffer = errors.New("buffer too short")
)

// TypeSizeError is a received header whose type is not in the direction's
// table or whose size differs from the table.
type TypeSizeError struct {
	Dir  *Direction
	Type MessageType
	Size int
	// Expected is the table size, or -1 if Type is unknown.
	Expected int
}

// Error implements error.
func (e *TypeSizeError) Error() string {
	if e.Expected < 0 {
		return fmt.Sprintf("%s: type %s not valid, size %d", e.Dir, e.Type, e.Size)
	}
	return fmt.Sprintf("%s: type %s size %d, expected %d", e.Dir, e.Type, e.Size, e.Expected)
}

// IsFrameError reports whether err rejects a frame (sync, type/size or CRC)
// as opposed to a failure of the underlying stream. Callers keep receiving
// after frame errors.
func IsFrameError(err error) bool {
	var tse *TypeSizeError
	return errors.Is(err, ErrSyncMismatch) ||
		errors.Is(err, ErrCRCMismatch) ||
		errors.As(err, &tse)
}
