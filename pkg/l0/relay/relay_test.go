package relay

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/spine.go/pkg/l0/spine"
)

func encodeFrame(t *testing.T, dir *spine.Direction, typ spine.MessageType, payload []byte) []byte {
	ch := spine.NewChannel(dir)
	size, err := ch.Encode(typ, payload)
	require.NoError(t, err)
	return append([]byte(nil), ch.Frame(size)...)
}

func ackFrame(t *testing.T, value int32) []byte {
	payload, err := (&spine.Ack{Value: value}).MarshalBinary()
	require.NoError(t, err)
	return encodeFrame(t, spine.BodyToHead, spine.TypeAck, payload)
}

type recorder struct {
	types  []spine.MessageType
	frames [][]byte
}

func (r *recorder) ObserveFrame(dir *spine.Direction, t spine.MessageType, frame []byte) {
	r.types = append(r.types, t)
	r.frames = append(r.frames, append([]byte(nil), frame...))
}

func TestRelayAckPassThrough(t *testing.T) {
	in := ackFrame(t, 1)
	require.Equal(t, []byte{0xAA, 'B', '2', 'H', 0x61, 0x6B, 0x04, 0x00, 0x01, 0x00, 0x00, 0x00}, in[:12])

	r := New(spine.BodyToHead)
	var out bytes.Buffer
	typ, err := r.RelayMessage(bytes.NewReader(in), &out)
	require.NoError(t, err)
	require.Equal(t, spine.TypeAck, typ)
	require.Equal(t, in, out.Bytes())
	require.Equal(t, spine.FrameSize(spine.AckSize), out.Len())

	s := r.Counters().Snapshot()
	require.Equal(t, uint64(1), s.Received)
	require.Equal(t, uint64(1), s.Forwarded)
	require.Zero(t, s.Modified)
}

func TestRelayPassThroughEveryType(t *testing.T) {
	r := New(spine.BodyToHead).WithHook(NewDispatcher().
		HandleFunc(spine.TypeDataFrame, func(spine.MessageType, []byte) bool { return false }))
	for _, typ := range spine.BodyToHead.Types() {
		size, _ := spine.BodyToHead.Size(typ)
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i)
		}
		in := encodeFrame(t, spine.BodyToHead, typ, payload)
		var out bytes.Buffer
		rt, err := r.RelayMessage(bytes.NewReader(in), &out)
		require.NoError(t, err, typ.String())
		require.Equal(t, typ, rt)
		require.Equal(t, in, out.Bytes(), typ.String())
	}
}

func TestRelayNoForwardOnFailure(t *testing.T) {
	good := ackFrame(t, 5)
	badCRC := append([]byte(nil), good...)
	badCRC[len(badCRC)-1] ^= 0x80
	wrongDir := encodeFrame(t, spine.HeadToBody, spine.TypeShutdown, nil)
	vs := []byte{0xAA, 'B', '2', 'H', 0x76, 0x73, 0, 0}
	vs = binary.LittleEndian.AppendUint32(vs, spine.Checksum(nil))

	testCases := []struct {
		name  string
		frame []byte
		check func(CountersSnapshot) uint64
	}{
		{"crc", badCRC, func(s CountersSnapshot) uint64 { return s.CRCErrors }},
		{"tag", wrongDir, func(s CountersSnapshot) uint64 { return s.SyncErrors }},
		{"type", vs, func(s CountersSnapshot) uint64 { return s.TypeErrors }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := New(spine.BodyToHead)
			var out bytes.Buffer
			typ, err := r.RelayMessage(bytes.NewReader(tc.frame), &out)
			require.Equal(t, spine.TypeInvalid, typ)
			require.True(t, spine.IsFrameError(err))
			require.Zero(t, out.Len())
			require.Equal(t, uint64(1), tc.check(r.Counters().Snapshot()))
			require.Equal(t, uint64(1), r.Counters().Snapshot().Rejected())
		})
	}
}

func TestRelayModifyingHook(t *testing.T) {
	r := New(spine.BodyToHead).WithHook(NewDispatcher().
		Handle(spine.TypeAck, AckHook(func(a *spine.Ack) bool {
			a.Value = -a.Value
			return true
		})))
	var out bytes.Buffer
	_, err := r.RelayMessage(bytes.NewReader(ackFrame(t, 3)), &out)
	require.NoError(t, err)
	require.Equal(t, ackFrame(t, -3), out.Bytes())
	require.Equal(t, uint64(1), r.Counters().Snapshot().Modified)

	// the forwarded frame is accepted by a receiver
	typ, payload, err := spine.BodyToHead.Decode(out.Bytes())
	require.NoError(t, err)
	require.Equal(t, spine.TypeAck, typ)
	require.Equal(t, []byte{0xfd, 0xff, 0xff, 0xff}, payload)
}

func TestRelayRecomputesCRCWhenHookLies(t *testing.T) {
	// the hook edits the payload but reports no change; the trailer is
	// still recomputed
	r := New(spine.BodyToHead).WithHook(HookFunc(func(_ spine.MessageType, p []byte) bool {
		p[0] = 9
		return false
	}))
	var out bytes.Buffer
	_, err := r.RelayMessage(bytes.NewReader(ackFrame(t, 1)), &out)
	require.NoError(t, err)
	require.Equal(t, ackFrame(t, 9), out.Bytes())
	require.Zero(t, r.Counters().Snapshot().Modified)
}

func TestRelayTextEcho(t *testing.T) {
	var echo bytes.Buffer
	r := New(spine.BodyToHead).WithHook(NewDispatcher().
		Handle(spine.TypeDataCharacter, TextEcho(&echo)))

	ch := spine.NewChannel(spine.BodyToHead)
	size, err := ch.DataCharacterMsg("Test")
	require.NoError(t, err)
	in := append([]byte(nil), ch.Frame(size)...)

	var out bytes.Buffer
	_, err = r.RelayMessage(bytes.NewReader(in), &out)
	require.NoError(t, err)
	require.Equal(t, "Test", echo.String())
	require.Equal(t, in, out.Bytes())
}

func TestRelayTextEchoWriteFailure(t *testing.T) {
	r := New(spine.BodyToHead).WithHook(NewDispatcher().
		Handle(spine.TypeDataCharacter, TextEcho(failWriter{})))

	ch := spine.NewChannel(spine.BodyToHead)
	size, err := ch.DataCharacterMsg("Test")
	require.NoError(t, err)
	in := append([]byte(nil), ch.Frame(size)...)

	var out bytes.Buffer
	typ, err := r.RelayMessage(bytes.NewReader(in), &out)
	require.NoError(t, err)
	require.Equal(t, spine.TypeDataCharacter, typ)
	require.Equal(t, in, out.Bytes())
}

func TestRelayDataFrameHook(t *testing.T) {
	var seen uint32
	d := NewDispatcher().Handle(spine.TypeDataFrame, DataFrameHook(func(f *spine.B2HDataFrame) bool {
		seen = f.SequenceNumber
		f.Status |= spine.EncodersOff
		return true
	}))
	require.True(t, d.Handled(spine.TypeDataFrame))
	require.False(t, d.Handled(spine.TypeAck))

	frame := spine.B2HDataFrame{SequenceNumber: 77}
	payload, err := frame.MarshalBinary()
	require.NoError(t, err)
	in := encodeFrame(t, spine.BodyToHead, spine.TypeDataFrame, payload)

	r := New(spine.BodyToHead).WithHook(d)
	var out bytes.Buffer
	_, err = r.RelayMessage(bytes.NewReader(in), &out)
	require.NoError(t, err)
	require.Equal(t, uint32(77), seen)

	_, fwd, err := spine.BodyToHead.Decode(out.Bytes())
	require.NoError(t, err)
	var decoded spine.B2HDataFrame
	require.NoError(t, decoded.UnmarshalBinary(fwd))
	require.True(t, decoded.Status.Has(spine.EncodersOff))
}

func TestDispatcherDefaultsToNoop(t *testing.T) {
	d := NewDispatcher()
	payload := []byte{1, 2, 3, 4}
	require.False(t, d.ProcessPayload(spine.TypeAck, payload))
	require.Equal(t, []byte{1, 2, 3, 4}, payload)

	var order []int
	d.HandleFunc(spine.TypeAck, func(spine.MessageType, []byte) bool { order = append(order, 1); return false })
	d.HandleFunc(spine.TypeAck, func(spine.MessageType, []byte) bool { order = append(order, 2); return true })
	require.True(t, d.ProcessPayload(spine.TypeAck, payload))
	require.Equal(t, []int{1, 2}, order)
}

func TestRelayObservers(t *testing.T) {
	rec := &recorder{}
	r := New(spine.BodyToHead).Observe(rec)
	var out bytes.Buffer
	_, err := r.RelayMessage(bytes.NewReader(ackFrame(t, 2)), &out)
	require.NoError(t, err)
	require.Equal(t, []spine.MessageType{spine.TypeAck}, rec.types)
	require.Equal(t, out.Bytes(), rec.frames[0])
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRelayWriteFailure(t *testing.T) {
	r := New(spine.BodyToHead)
	typ, err := r.RelayMessage(bytes.NewReader(ackFrame(t, 1)), failWriter{})
	require.Error(t, err)
	require.False(t, spine.IsFrameError(err))
	require.Equal(t, spine.TypeAck, typ)
	require.Equal(t, uint64(1), r.Counters().Snapshot().WriteFailures)
}

func TestRelayRun(t *testing.T) {
	var in bytes.Buffer
	in.Write([]byte{0x00, 0x42})
	in.Write(ackFrame(t, 1))
	in.Write([]byte{0xAA, 'X'})
	in.Write(ackFrame(t, 2))

	var out bytes.Buffer
	r := New(spine.BodyToHead)
	r.In, r.Out = &in, &out
	err := r.Run(context.Background())
	require.Equal(t, io.EOF, err)

	expect := append(ackFrame(t, 1), ackFrame(t, 2)...)
	require.Equal(t, expect, out.Bytes())
	s := r.Counters().Snapshot()
	require.Equal(t, uint64(2), s.Forwarded)
	require.Equal(t, uint64(3), s.SyncErrors)
}

func TestRelayRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(spine.BodyToHead)
	r.In, r.Out = bytes.NewReader(ackFrame(t, 1)), io.Discard
	require.Equal(t, context.Canceled, r.Run(ctx))
	require.Zero(t, r.Counters().Snapshot().Received)
}
