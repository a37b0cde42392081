package sequence

import "sync/atomic"

// Sequencer hands out item IDs. IDs are strictly increasing and never
// zero, so zero can mean "no item".
type Sequencer struct {
	last atomic.Uint64
}

// New creates a sequencer whose first ID is start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns a fresh ID.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued ID.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Observe raises the floor to at least v, so IDs recovered from the
// journal are never handed out again.
func (s *Sequencer) Observe(v uint64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
