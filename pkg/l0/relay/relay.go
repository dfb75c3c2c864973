package relay

import (
	"context"
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/spine.go/pkg/l0/spine"
)

// Observer is notified of every forwarded frame. frame aliases the relay
// buffer and is only valid during the call.
type Observer interface {
	ObserveFrame(dir *spine.Direction, t spine.MessageType, frame []byte)
}

// ObserveFrameFunc is the func form of Observer.
type ObserveFrameFunc func(*spine.Direction, spine.MessageType, []byte)

// ObserveFrame implements Observer.
func (f ObserveFrameFunc) ObserveFrame(dir *spine.Direction, t spine.MessageType, frame []byte) {
	f(dir, t, frame)
}

// Relay receives frames of one direction, passes the payload through a
// hook and forwards the frame with a recomputed CRC.
//
// A Relay owns its channel buffer; a single goroutine must drive it.
type Relay struct {
	Channel   *spine.Channel
	Hook      Hook
	Observers []Observer

	// In and Out are used by Run.
	In  io.Reader
	Out io.Writer

	counters Counters
}

// New creates a Relay for frames traveling in dir.
func New(dir *spine.Direction) *Relay {
	return &Relay{Channel: spine.NewChannel(dir)}
}

// Direction returns the direction being relayed.
func (r *Relay) Direction() *spine.Direction {
	return r.Channel.Direction()
}

// WithHook sets the hook.
func (r *Relay) WithHook(hook Hook) *Relay {
	r.Hook = hook
	return r
}

// Observe adds observers.
func (r *Relay) Observe(observers ...Observer) *Relay {
	r.Observers = append(r.Observers, observers...)
	return r
}

// Counters returns the live statistics.
func (r *Relay) Counters() *Counters {
	return &r.counters
}

// Name implements framework.Named.
func (r *Relay) Name() string {
	return "relay-" + r.Direction().String()
}

// RelayMessage relays exactly one frame from in to out.
//
// If the receive fails nothing is written and (spine.TypeInvalid, err) is
// returned; spine.IsFrameError(err) tells whether the caller should simply
// call again. On success the CRC is recomputed whether or not the hook
// changed the payload.
func (r *Relay) RelayMessage(in io.Reader, out io.Writer) (spine.MessageType, error) {
	t, size, err := r.Channel.Receive(in)
	if err != nil {
		if spine.IsFrameError(err) {
			r.counters.countReject(err)
		}
		return spine.TypeInvalid, err
	}
	r.counters.Received.Add(1)

	if r.Hook != nil && r.Hook.ProcessPayload(t, r.Channel.Payload(size)) {
		r.counters.Modified.Add(1)
	}
	r.Channel.Seal(size)

	if err = r.Channel.Send(out, size); err != nil {
		r.counters.WriteFailures.Add(1)
		return t, fmt.Errorf("forward %s: %w", t, err)
	}
	r.counters.Forwarded.Add(1)

	if len(r.Observers) > 0 {
		frame := r.Channel.Frame(size)
		for _, o := range r.Observers {
			o.ObserveFrame(r.Direction(), t, frame)
		}
	}
	return t, nil
}

// Run implements framework.Runnable. It relays from In to Out until the
// context is done or a stream fails. Rejected frames are only counted and
// logged. A blocked read is not interrupted by the context; close In to
// unblock it.
func (r *Relay) Run(ctx context.Context) error {
	glog.V(1).Infof("%s: started", r.Name())
	defer glog.V(1).Infof("%s: stopped", r.Name())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		t, err := r.RelayMessage(r.In, r.Out)
		switch {
		case err == nil:
			if glog.V(3) {
				glog.Infof("%s: forwarded %s", r.Name(), t)
			}
		case spine.IsFrameError(err):
			glog.V(2).Infof("%s: rejected: %v", r.Name(), err)
		default:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}
