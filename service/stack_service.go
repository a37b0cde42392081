package service

import (
	"time"

	"github.com/cockroachdb/errors"

	"lifo/domain/stack"
	"lifo/infra/metrics"
	"lifo/infra/sequence"
	entrywal "lifo/infra/wal/entry"
	exitwal "lifo/infra/wal/exit"
	"lifo/snapshot"
)

// Item is one value held by the service.
type Item struct {
	ID      uint64
	Payload []byte
}

// Config carries the optional collaborators. A zero Config runs the stack
// purely in memory.
type Config struct {
	Journal *entrywal.WAL
	Outbox  *exitwal.ExitWAL
	Metrics *metrics.Metrics
}

/*
StackService is the only write entry point into the system.

Coordination between:
- domain (stack)
- infra (sequence, journal, outbox, metrics)
happens here. The stack itself stays lock-free; durability is layered
around it.
*/
type StackService struct {
	stack   *stack.Stack[Item]
	seq     *sequence.Sequencer
	journal *entrywal.WAL
	outbox  *exitwal.ExitWAL
	metrics *metrics.Metrics
}

func NewStackService(st *stack.Stack[Item], seq *sequence.Sequencer, cfg Config) *StackService {
	return &StackService{
		stack:   st,
		seq:     seq,
		journal: cfg.Journal,
		outbox:  cfg.Outbox,
		metrics: cfg.Metrics,
	}
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// Push journals payload and places it on top of the stack. It returns the
// item ID. Nothing is pushed if the journal write fails.
func (s *StackService) Push(payload []byte) (uint64, error) {
	id := s.seq.Next()
	data := append([]byte(nil), payload...)

	if s.journal != nil {
		if err := s.journal.Append(entrywal.NewRecord(entrywal.RecordPush, id, data)); err != nil {
			return 0, errors.Wrapf(err, "journal push %d", id)
		}
	}

	s.stack.Push(Item{ID: id, Payload: data})
	if s.metrics != nil {
		s.metrics.Pushes.Inc()
	}
	return id, nil
}

// Pop removes the top item. ok is false if the stack was empty.
//
// The item is removed from memory before it is journaled; if the journal
// or outbox write fails the item is still returned together with the
// error, and a restart will bring it back (at-least-once).
func (s *StackService) Pop() (Item, bool, error) {
	it, ok := s.stack.Pop()
	if !ok {
		if s.metrics != nil {
			s.metrics.EmptyPops.Inc()
		}
		return Item{}, false, nil
	}
	if s.metrics != nil {
		s.metrics.Pops.Inc()
	}

	if s.journal != nil {
		if err := s.journal.Append(entrywal.NewRecord(entrywal.RecordPop, it.ID, nil)); err != nil {
			return it, true, errors.Wrapf(err, "journal pop %d", it.ID)
		}
	}
	if s.outbox != nil {
		if err := s.outbox.PutNew(it.ID, it.Payload); err != nil {
			return it, true, errors.Wrapf(err, "outbox pop %d", it.ID)
		}
	}
	return it, true, nil
}

// AdvanceEpoch recycles retired nodes whose grace period has elapsed.
func (s *StackService) AdvanceEpoch() int {
	return s.stack.Reclaim()
}

// Reclaim lets the service drive the reclaimer job directly.
func (s *StackService) Reclaim() int {
	return s.AdvanceEpoch()
}

// Checkpoint writes the stack contents through w and drops the journal
// segments the checkpoint covers. Call it only while no push or pop is in
// flight, e.g. after the transport has stopped.
func (s *StackService) Checkpoint(w *snapshot.Writer) (*snapshot.Snapshot, error) {
	if s.journal == nil {
		return nil, errors.New("checkpoint requires a journal")
	}
	seg, err := s.journal.Checkpoint()
	if err != nil {
		return nil, errors.Wrap(err, "rotate journal")
	}

	items := s.Snapshot()
	snap := &snapshot.Snapshot{
		Seq:     s.seq.Current(),
		Segment: seg,
		Created: time.Now(),
		Items:   make([]snapshot.Entry, len(items)),
	}
	for i, it := range items {
		snap.Items[i] = snapshot.Entry{ID: it.ID, Payload: it.Payload}
	}

	if err := w.Write(snap); err != nil {
		return nil, err
	}
	if _, err := entrywal.Compact(s.journal.Dir(), seg); err != nil {
		return snap, errors.Wrap(err, "compact journal")
	}
	return snap, nil
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

func (s *StackService) Len() int {
	return s.stack.Len()
}

func (s *StackService) Stats() stack.Stats {
	return s.stack.Stats()
}

// MetricsSnapshot adapts Stats for the metrics collector.
func (s *StackService) MetricsSnapshot() metrics.Snapshot {
	st := s.stack.Stats()
	return metrics.Snapshot{
		Depth:        st.Depth,
		Epoch:        st.Epoch,
		Participants: st.Participants,
		Pending:      st.Pending,
		Retired:      st.Retired,
		Reclaimed:    st.Reclaimed,
		Dropped:      st.Dropped,
	}
}

// Snapshot returns the items from top to bottom. The view is weakly
// consistent with concurrent pushes and pops. Callers must treat the
// payloads as read-only.
func (s *StackService) Snapshot() []Item {
	out := make([]Item, 0, s.stack.Len())
	s.stack.Walk(func(it Item) bool {
		out = append(out, it)
		return true
	})
	return out
}

// Close tears down the stack and flushes the journal. It returns the
// number of items left unpopped; they remain in the journal.
func (s *StackService) Close() (int, error) {
	left := s.stack.Close()
	if s.journal != nil {
		if err := s.journal.Sync(); err != nil {
			return left, errors.Wrap(err, "sync journal")
		}
	}
	return left, nil
}
