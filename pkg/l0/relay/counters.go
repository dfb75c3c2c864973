package relay

import (
	"errors"
	"sync/atomic"

	"github.com/robotalks/spine.go/pkg/l0/spine"
)

// Counters tracks relay statistics. All fields are safe for concurrent
// access.
type Counters struct {
	Received      atomic.Uint64 // frames that passed validation
	Forwarded     atomic.Uint64 // frames written to the outbound stream
	Modified      atomic.Uint64 // frames a hook reported as rewritten
	SyncErrors    atomic.Uint64 // sync byte or tag mismatches
	TypeErrors    atomic.Uint64 // unknown types or wrong sizes
	CRCErrors     atomic.Uint64 // trailer mismatches
	WriteFailures atomic.Uint64
}

// CountersSnapshot is a plain-value copy of Counters.
type CountersSnapshot struct {
	Received      uint64
	Forwarded     uint64
	Modified      uint64
	SyncErrors    uint64
	TypeErrors    uint64
	CRCErrors     uint64
	WriteFailures uint64
}

// Rejected sums all frame-level rejections.
func (s CountersSnapshot) Rejected() uint64 {
	return s.SyncErrors + s.TypeErrors + s.CRCErrors
}

// Snapshot returns a point-in-time copy of all counters.
func (c *Counters) Snapshot() CountersSnapshot {
	return CountersSnapshot{
		Received:      c.Received.Load(),
		Forwarded:     c.Forwarded.Load(),
		Modified:      c.Modified.Load(),
		SyncErrors:    c.SyncErrors.Load(),
		TypeErrors:    c.TypeErrors.Load(),
		CRCErrors:     c.CRCErrors.Load(),
		WriteFailures: c.WriteFailures.Load(),
	}
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	c.Received.Store(0)
	c.Forwarded.Store(0)
	c.Modified.Store(0)
	c.SyncErrors.Store(0)
	c.TypeErrors.Store(0)
	c.CRCErrors.Store(0)
	c.WriteFailures.Store(0)
}

func (c *Counters) countReject(err error) {
	var tse *spine.TypeSizeError
	switch {
	case errors.Is(err, spine.ErrSyncMismatch):
		c.SyncErrors.Add(1)
	case errors.Is(err, spine.ErrCRCMismatch):
		c.CRCErrors.Add(1)
	case errors.As(err, &tse):
		c.TypeErrors.Add(1)
	}
}
