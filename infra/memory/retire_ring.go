package memory

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// RetireRing is a lock-free SPSC ring buffer for retired objects.
//
// Each participant owns one ring as its retire bag: the goroutine holding
// the participant is both producer and consumer, and ownership handoff
// between goroutines goes through the participant's owned flag.
type RetireRing[T any] struct {
	head  uint64
	_pad1 [56]byte
	tail  uint64
	_pad2 [56]byte
	buf   []T
	mask  uint64
}

func NewRetireRing[T any](size uint64) *RetireRing[T] {
	if size == 0 || size&(size-1) != 0 {
		panic(errors.AssertionFailedf("RetireRing size %d must be a non-zero power of two", size))
	}
	return &RetireRing[T]{
		buf:  make([]T, size),
		mask: size - 1,
	}
}

// Enqueue adds v; returns false if full.
func (r *RetireRing[T]) Enqueue(v T) bool {
	h := r.head
	t := atomic.LoadUint64(&r.tail)
	if h-t == uint64(len(r.buf)) {
		return false
	}
	r.buf[h&r.mask] = v
	atomic.StoreUint64(&r.head, h+1)
	return true
}

// Peek returns the oldest element without removing it.
func (r *RetireRing[T]) Peek() (T, bool) {
	t := r.tail
	h := atomic.LoadUint64(&r.head)
	if t == h {
		var zero T
		return zero, false
	}
	return r.buf[t&r.mask], true
}

// Dequeue removes the oldest element.
func (r *RetireRing[T]) Dequeue() (T, bool) {
	var zero T
	t := r.tail
	h := atomic.LoadUint64(&r.head)
	if t == h {
		return zero, false
	}
	v := r.buf[t&r.mask]
	r.buf[t&r.mask] = zero
	atomic.StoreUint64(&r.tail, t+1)
	return v, true
}

// Len may be called from any goroutine. Head is loaded first, so a
// concurrent consumer can only make the result smaller than the truth.
func (r *RetireRing[T]) Len() int {
	h := atomic.LoadUint64(&r.head)
	t := atomic.LoadUint64(&r.tail)
	if t > h {
		return 0
	}
	return int(h - t)
}

func (r *RetireRing[T]) Cap() int { return len(r.buf) }

func (r *RetireRing[T]) IsFull() bool { return r.Len() == len(r.buf) }
