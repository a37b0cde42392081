package exit

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// -------------------- State --------------------

type ExitState uint8

const (
	StateNew ExitState = iota
	StateSent
	StateAcked
	StateFailed
)

func (s ExitState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Record --------------------

// ExitRecord is one popped item waiting to be announced downstream.
type ExitRecord struct {
	ID          uint64
	State       ExitState
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

const recordHeader = 1 + 4 + 8

var ErrInvalidRecord = errors.New("exit wal: invalid record")

// binary encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodeRecord(r ExitRecord) []byte {
	buf := make([]byte, recordHeader+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[recordHeader:], r.Payload)
	return buf
}

func decodeRecord(id uint64, b []byte) (ExitRecord, error) {
	if len(b) < recordHeader {
		return ExitRecord{}, errors.Wrapf(ErrInvalidRecord, "id=%d len=%d", id, len(b))
	}
	payload := make([]byte, len(b)-recordHeader)
	copy(payload, b[recordHeader:])
	return ExitRecord{
		ID:          id,
		State:       ExitState(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

// -------------------- WAL --------------------

// ExitWAL is the pop outbox, kept in pebble so an item acknowledged to a
// popper is announced at least once even across restarts.
type ExitWAL struct {
	db *pebble.DB
}

func Open(dir string) (*ExitWAL, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open exit wal %s", dir)
	}
	return &ExitWAL{db: db}, nil
}

func (w *ExitWAL) Close() error {
	return w.db.Close()
}

// -------------------- API --------------------

// PutNew records a freshly popped item.
func (w *ExitWAL) PutNew(id uint64, payload []byte) error {
	rec := ExitRecord{ID: id, State: StateNew, Payload: payload}
	return w.db.Set(keyFor(id), encodeRecord(rec), pebble.Sync)
}

func (w *ExitWAL) MarkSent(id uint64) error {
	return w.update(id, func(r *ExitRecord) { r.State = StateSent })
}

func (w *ExitWAL) MarkAcked(id uint64) error {
	return w.update(id, func(r *ExitRecord) { r.State = StateAcked })
}

func (w *ExitWAL) MarkFailed(id uint64) error {
	return w.update(id, func(r *ExitRecord) {
		r.State = StateFailed
		r.Retries++
	})
}

func (w *ExitWAL) update(id uint64, fn func(*ExitRecord)) error {
	rec, err := w.Get(id)
	if err != nil {
		return err
	}
	fn(&rec)
	rec.LastAttempt = time.Now().UnixNano()
	return w.db.Set(keyFor(id), encodeRecord(rec), pebble.Sync)
}

// Get returns the current record for an item.
func (w *ExitWAL) Get(id uint64) (ExitRecord, error) {
	val, closer, err := w.db.Get(keyFor(id))
	if err != nil {
		return ExitRecord{}, errors.Wrapf(err, "get exit record %d", id)
	}
	defer closer.Close()

	return decodeRecord(id, val)
}

// DeleteAcked removes every ACKED record and returns how many it removed.
func (w *ExitWAL) DeleteAcked() (int, error) {
	batch := w.db.NewBatch()
	defer batch.Close()

	n := 0
	err := w.ScanByState(StateAcked, func(rec ExitRecord) error {
		n++
		return batch.Delete(keyFor(rec.ID), nil)
	})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return n, batch.Commit(pebble.Sync)
}

// -------------------- Scan --------------------

// ScanByState iterates, in ID order, all records in one of the given
// states. This is used by the Broadcaster.
func (w *ExitWAL) ScanByState(state ExitState, fn func(ExitRecord) error) error {
	return w.scan(func(s ExitState) bool { return s == state }, fn)
}

// ScanPending iterates records not yet acknowledged downstream.
func (w *ExitWAL) ScanPending(fn func(ExitRecord) error) error {
	return w.scan(func(s ExitState) bool { return s != StateAcked }, fn)
}

func (w *ExitWAL) scan(match func(ExitState) bool, fn func(ExitRecord) error) error {
	iter, err := w.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		val := iter.Value()
		if len(val) == 0 || !match(ExitState(val[0])) {
			continue
		}

		id, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeRecord(id, val)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// -------------------- Helpers --------------------

const keyPrefix = "pop/"

func keyFor(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, id))
}

func parseKey(b []byte) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(string(b), keyPrefix), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse exit key %q", b)
	}
	return id, nil
}
