package entry

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
	// SyncOnAppend fsyncs after every record instead of leaving it to
	// Sync/Close.
	SyncOnAppend bool
}

// WAL is the push/pop journal. It is safe for concurrent use; appends are
// serialised by an internal mutex, which is the journal's business and
// never taken on the stack's own push/pop path.
type WAL struct {
	mu         sync.Mutex
	dir        string
	segSize    int64
	segDur     time.Duration
	syncAll    bool
	current    *segment
	segIndex   int
	lastRotate time.Time
	closed     bool
}

var ErrClosed = errors.New("entry wal: closed")

// Open resumes appending to the newest segment in cfg.Dir, creating the
// directory and a first segment if needed.
func Open(cfg Config) (*WAL, error) {
	if cfg.Dir == "" {
		cfg.Dir = "./wal_entry"
	}
	if cfg.SegmentSize == 0 {
		cfg.SegmentSize = 2 * 1024 * 1024
	}
	if cfg.SegmentDuration == 0 {
		cfg.SegmentDuration = 5 * time.Minute
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create entry wal dir")
	}

	_, last, err := listSegments(cfg.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "list entry wal segments")
	}
	if last < 0 {
		last = 0
	}

	seg, err := openSegment(cfg.Dir, last)
	if err != nil {
		return nil, errors.Wrapf(err, "open segment %d", last)
	}

	return &WAL{
		dir:        cfg.Dir,
		segSize:    cfg.SegmentSize,
		segDur:     cfg.SegmentDuration,
		syncAll:    cfg.SyncOnAppend,
		current:    seg,
		segIndex:   last,
		lastRotate: time.Now(),
	}, nil
}

func (w *WAL) Append(r *Record) error {
	buf := encodeFrame(r)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	if err := w.current.append(buf); err != nil {
		return errors.Wrapf(err, "append %s seq=%d", r.Type, r.Seq)
	}
	if w.syncAll {
		if err := w.current.sync(); err != nil {
			return errors.Wrap(err, "sync entry wal")
		}
	}

	// The record is already in the current segment. A failed rotation
	// keeps that segment current and is retried on the next append.
	if w.current.offset >= w.segSize || time.Since(w.lastRotate) >= w.segDur {
		if err := w.rotate(); err != nil {
			log.Printf("[wal] rotation after seq=%d deferred: %v", r.Seq, err)
		}
	}
	return nil
}

// rotate switches to the next segment. On error the current segment is
// left open and current.
func (w *WAL) rotate() error {
	next := w.segIndex + 1
	seg, err := openSegment(w.dir, next)
	if err != nil {
		return errors.Wrapf(err, "rotate to segment %d", next)
	}
	if err := w.current.sync(); err != nil {
		_ = seg.close()
		return errors.Wrapf(err, "sync segment %d", w.segIndex)
	}
	if err := w.current.close(); err != nil {
		log.Printf("[wal] close segment %d: %v", w.segIndex, err)
	}

	w.current = seg
	w.segIndex = next
	w.lastRotate = time.Now()
	return nil
}

// Checkpoint closes the current segment and starts a new one, returning
// its index. Records appended after Checkpoint returns live in that
// segment or later ones.
func (w *WAL) Checkpoint() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrClosed
	}
	if err := w.rotate(); err != nil {
		return 0, err
	}
	return w.segIndex, nil
}

func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.current.sync()
}

func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.current.sync(); err != nil {
		_ = w.current.close()
		return err
	}
	return w.current.close()
}

// Dir returns the journal directory.
func (w *WAL) Dir() string { return w.dir }
