package sh

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/spine.go/pkg/env"
	"github.com/robotalks/spine.go/pkg/l0/link"
	"github.com/robotalks/spine.go/pkg/l0/spine"
)

// loopLink reads back what was written.
type loopLink struct {
	bytes.Buffer
	closed bool
}

func (l *loopLink) Close() error {
	l.closed = true
	return nil
}

func newTestShell() (*Shell, *loopLink) {
	s := newShell(&env.Config{})
	l := &loopLink{}
	s.Link = l
	return s, l
}

func TestSendRecv(t *testing.T) {
	s, l := newTestShell()
	size, err := s.Send(spine.BodyToHead, spine.TypeAck, []byte{1, 0, 0, 0})
	require.NoError(t, err)
	require.Equal(t, spine.AckSize, size)
	require.Equal(t, spine.FrameSize(spine.AckSize), l.Len())

	r, err := s.Recv(spine.BodyToHead)
	require.NoError(t, err)
	require.Equal(t, &Received{
		Dir:     "b2h",
		Type:    "ack",
		Code:    "ak",
		Size:    4,
		Payload: "01000000",
		Summary: "ack 1",
	}, r)
}

func TestSendZeroPayload(t *testing.T) {
	s, _ := newTestShell()
	size, err := s.Send(spine.HeadToBody, spine.TypeLights, nil)
	require.NoError(t, err)
	require.Equal(t, 16, size)

	r, err := s.Recv(spine.HeadToBody)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("00", 16), r.Payload)

	_, err = s.Send(spine.HeadToBody, spine.TypeAck, nil)
	require.ErrorIs(t, err, spine.ErrUnknownType)
	_, err = s.Send(spine.HeadToBody, spine.TypeLights, []byte{1})
	require.ErrorIs(t, err, spine.ErrPayloadSize)
}

func TestTextRecv(t *testing.T) {
	s, _ := newTestShell()
	require.NoError(t, s.Text(spine.HeadToBody, "hello body"))
	r, err := s.Recv(spine.HeadToBody)
	require.NoError(t, err)
	require.Equal(t, `text "hello body"`, r.Summary)

	// a frame sent for one direction is rejected by the other
	require.NoError(t, s.Text(spine.HeadToBody, "x"))
	_, err = s.Recv(spine.BodyToHead)
	require.ErrorIs(t, err, spine.ErrSyncMismatch)
}

func TestClose(t *testing.T) {
	s, l := newTestShell()
	require.NoError(t, s.Close())
	require.True(t, l.closed)
	require.Nil(t, s.Link)
	require.NoError(t, s.Close())
}

func TestOpenInvalid(t *testing.T) {
	s, l := newTestShell()
	require.Error(t, s.Open("bogus://"))
	require.Same(t, l, s.Link)
}

func TestOpenReplacesLink(t *testing.T) {
	s, l := newTestShell()
	next := &loopLink{}
	s.dial = func(ep *link.Endpoint) (io.ReadWriteCloser, error) {
		if !l.closed {
			return nil, errors.New("port busy")
		}
		require.Equal(t, "/dev/ttyS1", ep.Address)
		return next, nil
	}
	require.NoError(t, s.Open("serial:///dev/ttyS1"))
	require.True(t, l.closed)
	require.Same(t, next, s.Link)
	require.Equal(t, "serial:///dev/ttyS1", s.URL)
}

func TestTables(t *testing.T) {
	out := Tables()
	require.Contains(t, out, "h2b (H2B)\n")
	require.Contains(t, out, "b2h (B2H)\n")
	require.Contains(t, out, "  uf 0x6675 updateFirmware  1028\n")
	require.Contains(t, out, "  fd 0x6466 dataFrame        768\n")
	require.NotContains(t, out, " vs ")
}
