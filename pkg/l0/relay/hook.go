package relay

import (
	"bytes"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/spine.go/pkg/l0/spine"
)

// Hook inspects the payload of a received frame and may rewrite it in
// place. It returns true if the payload was modified.
type Hook interface {
	ProcessPayload(t spine.MessageType, payload []byte) bool
}

// HookFunc is the func form of Hook.
type HookFunc func(spine.MessageType, []byte) bool

// ProcessPayload implements Hook.
func (f HookFunc) ProcessPayload(t spine.MessageType, payload []byte) bool {
	return f(t, payload)
}

// Dispatcher routes payloads to the hook registered for their type.
// Types without a hook pass through unmodified.
type Dispatcher struct {
	hooks map[spine.MessageType][]Hook
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{hooks: make(map[spine.MessageType][]Hook)}
}

// Handle registers a hook for t. Hooks registered for the same type run
// in registration order and see each other's modifications.
func (d *Dispatcher) Handle(t spine.MessageType, hook Hook) *Dispatcher {
	d.hooks[t] = append(d.hooks[t], hook)
	return d
}

// HandleFunc registers a func hook for t.
func (d *Dispatcher) HandleFunc(t spine.MessageType, fn func(spine.MessageType, []byte) bool) *Dispatcher {
	return d.Handle(t, HookFunc(fn))
}

// Handled tells whether any hook is registered for t.
func (d *Dispatcher) Handled(t spine.MessageType) bool {
	return len(d.hooks[t]) > 0
}

// ProcessPayload implements Hook.
func (d *Dispatcher) ProcessPayload(t spine.MessageType, payload []byte) bool {
	modified := false
	for _, hook := range d.hooks[t] {
		if hook.ProcessPayload(t, payload) {
			modified = true
		}
	}
	return modified
}

// AckHook adapts fn to a Hook working on decoded Ack records.
func AckHook(fn func(*spine.Ack) bool) Hook {
	return HookFunc(func(_ spine.MessageType, payload []byte) bool {
		var msg spine.Ack
		if msg.UnmarshalBinary(payload) != nil || !fn(&msg) {
			return false
		}
		return msg.EncodeTo(payload) == nil
	})
}

// DataCharacterHook adapts fn to a Hook working on decoded text records.
func DataCharacterHook(fn func(*spine.DataCharacter) bool) Hook {
	return HookFunc(func(_ spine.MessageType, payload []byte) bool {
		var msg spine.DataCharacter
		if msg.UnmarshalBinary(payload) != nil || !fn(&msg) {
			return false
		}
		return msg.EncodeTo(payload) == nil
	})
}

// DataFrameHook adapts fn to a Hook working on decoded body telemetry.
func DataFrameHook(fn func(*spine.B2HDataFrame) bool) Hook {
	return HookFunc(func(_ spine.MessageType, payload []byte) bool {
		var msg spine.B2HDataFrame
		if msg.UnmarshalBinary(payload) != nil || !fn(&msg) {
			return false
		}
		return msg.EncodeTo(payload) == nil
	})
}

// TextEcho writes the text of every dataCharacter payload to w, up to the
// first NUL. The payload is never modified.
func TextEcho(w io.Writer) Hook {
	return HookFunc(func(_ spine.MessageType, payload []byte) bool {
		text := payload
		if n := bytes.IndexByte(text, 0); n >= 0 {
			text = text[:n]
		}
		if len(text) > 0 {
			if _, err := w.Write(text); err != nil {
				glog.V(2).Infof("text echo: %v", err)
			}
		}
		return false
	})
}
