// Package capture records relayed frames in a SQLite database and plays
// them back.
package capture

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/robotalks/spine.go/pkg/l0/spine"
)

// DefaultQueueSize is the number of frames buffered ahead of the writer.
const DefaultQueueSize = 1024

const schema = `
CREATE TABLE IF NOT EXISTS frames (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	at_ns     INTEGER NOT NULL,
	direction TEXT    NOT NULL,
	type      INTEGER NOT NULL,
	frame     BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS frames_direction ON frames(direction, id);
`

// Frame is a recorded frame.
type Frame struct {
	ID    int64
	Time  time.Time
	Dir   *spine.Direction
	Type  spine.MessageType
	Frame []byte
}

type pending struct {
	at    time.Time
	dir   *spine.Direction
	t     spine.MessageType
	frame []byte
}

// Recorder stores frames. ObserveFrame only queues; Run performs the
// inserts, so the relay never waits on the disk.
type Recorder struct {
	db      *sql.DB
	queue   chan pending
	dropped atomic.Uint64

	// Now stamps observed frames.
	Now func() time.Time
}

// Open opens or creates the capture database at path.
func Open(ctx context.Context, path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open capture db: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping capture db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if _, err = db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Recorder{
		db:    db,
		queue: make(chan pending, DefaultQueueSize),
		Now:   time.Now,
	}, nil
}

// Close closes the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// Name implements framework.Named.
func (r *Recorder) Name() string {
	return "capture"
}

// Dropped is the number of frames lost because the queue was full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// ObserveFrame implements relay.Observer.
func (r *Recorder) ObserveFrame(dir *spine.Direction, t spine.MessageType, frame []byte) {
	p := pending{at: r.Now(), dir: dir, t: t, frame: append([]byte(nil), frame...)}
	select {
	case r.queue <- p:
	default:
		if r.dropped.Add(1) == 1 {
			glog.Warning("capture queue full, dropping frames")
		}
	}
}

// Run implements framework.Runnable. It writes queued frames until ctx is
// done, then flushes what is still queued.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case p := <-r.queue:
			if err := r.insert(context.Background(), p); err != nil {
				return err
			}
		case <-ctx.Done():
			return r.flush()
		}
	}
}

func (r *Recorder) flush() error {
	for {
		select {
		case p := <-r.queue:
			if err := r.insert(context.Background(), p); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (r *Recorder) insert(ctx context.Context, p pending) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO frames (at_ns, direction, type, frame) VALUES (?, ?, ?, ?)`,
		p.at.UnixNano(), p.dir.String(), int64(p.t), p.frame)
	if err != nil {
		return fmt.Errorf("insert frame: %w", err)
	}
	return nil
}

// Frames lists recorded frames in capture order. limit <= 0 means all.
// dir may be nil for both directions.
func (r *Recorder) Frames(ctx context.Context, dir *spine.Direction, limit int) ([]Frame, error) {
	query := `SELECT id, at_ns, direction, type, frame FROM frames`
	var args []interface{}
	if dir != nil {
		query += ` WHERE direction = ?`
		args = append(args, dir.String())
	}
	query += ` ORDER BY id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var (
			f       Frame
			atNS    int64
			dirName string
			typ     int64
		)
		if err = rows.Scan(&f.ID, &atNS, &dirName, &typ, &f.Frame); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		if f.Dir, err = spine.ParseDirection(dirName); err != nil {
			return nil, err
		}
		f.Time = time.Unix(0, atNS)
		f.Type = spine.MessageType(typ)
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// Replay writes the recorded frames of dir to w in capture order and
// returns how many were written.
func (r *Recorder) Replay(ctx context.Context, dir *spine.Direction, w io.Writer) (int, error) {
	frames, err := r.Frames(ctx, dir, 0)
	if err != nil {
		return 0, err
	}
	for n, f := range frames {
		if err = ctx.Err(); err != nil {
			return n, err
		}
		if _, err = w.Write(f.Frame); err != nil {
			return n, err
		}
	}
	return len(frames), nil
}
