package mqtt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes/any"

	"github.com/robotalks/spine.go/pkg/l0/spine"
)

// TypeURLPrefix starts the type URL of every mirrored frame. The rest is
// "<dir>/0x<code>".
const TypeURLPrefix = "spine.robotalks.io/frame/"

// ErrNotFrame indicates an envelope that does not carry a spine frame.
var ErrNotFrame = errors.New("envelope does not carry a spine frame")

// Mirrored is a decoded mirror message.
type Mirrored struct {
	Dir     *spine.Direction
	Type    spine.MessageType
	Frame   []byte
	Payload []byte
}

// TypeURL names frames of t traveling in dir.
func TypeURL(dir *spine.Direction, t spine.MessageType) string {
	return fmt.Sprintf("%s%s/0x%04x", TypeURLPrefix, dir, uint16(t))
}

// EncodeEnvelope wraps a complete frame in a protobuf Any.
func EncodeEnvelope(dir *spine.Direction, t spine.MessageType, frame []byte) ([]byte, error) {
	return proto.Marshal(&any.Any{TypeUrl: TypeURL(dir, t), Value: frame})
}

// DecodeEnvelope unwraps a mirror message and validates the frame inside
// with the receive path of its direction.
func DecodeEnvelope(data []byte) (*Mirrored, error) {
	var env any.Any
	if err := proto.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(env.TypeUrl, TypeURLPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrNotFrame, env.TypeUrl)
	}
	parts := strings.Split(env.TypeUrl[len(TypeURLPrefix):], "/")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: %q", ErrNotFrame, env.TypeUrl)
	}
	dir, err := spine.ParseDirection(parts[0])
	if err != nil {
		return nil, err
	}
	t, err := spine.ParseMessageType(parts[1])
	if err != nil {
		return nil, err
	}
	rt, payload, err := dir.Decode(env.Value)
	if err != nil {
		return nil, err
	}
	if rt != t {
		return nil, fmt.Errorf("envelope says %s, frame is %s", t, rt)
	}
	return &Mirrored{Dir: dir, Type: t, Frame: env.Value, Payload: payload}, nil
}
