package stack

import (
	"sync/atomic"

	"lifo/infra/memory"
)

// noCopy makes `go vet` flag copies of a Stack.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Config tunes a Stack. The zero value is ready to use.
type Config struct {
	// RetireBagSize is the per-goroutine retire bag capacity; see
	// memory.Config.
	RetireBagSize uint64
}

// Stack is a lock-free LIFO stack safe for concurrent use by any number
// of pushers and poppers. An empty stack has a nil head.
//
// A Stack must not be copied after first use.
type Stack[T any] struct {
	noCopy noCopy

	head  atomic.Pointer[node[T]]
	_     [56]byte
	size  atomic.Int64
	gc    *memory.Collector
	nodes *memory.Pool[node[T]]
}

// Stats describes a stack and its reclamation backlog.
type Stats struct {
	Depth int64
	memory.Stats
}

// New creates an empty stack.
func New[T any]() *Stack[T] {
	return NewWithConfig[T](Config{})
}

func NewWithConfig[T any](cfg Config) *Stack[T] {
	s := &Stack[T]{}
	s.nodes = memory.NewPool(
		func() *node[T] { return &node[T]{} },
		func(n *node[T]) { n.release(nodeRetired) },
	)
	s.gc = memory.NewCollector(s.nodes, memory.Config{
		RetireBagSize: cfg.RetireBagSize,
	})
	return s
}

// Push places v on top of the stack.
//
// Push never dereferences the observed head, so it needs no pin: if the
// head was popped and recycled back to the same address in between, the
// CAS succeeding is still correct because n.next equals the live head.
func (s *Stack[T]) Push(v T) {
	n := s.nodes.Get()
	n.transition(nodeFree, nodeLive)
	n.value = v

	head := s.head.Load()
	for {
		n.next.Store(head)
		if s.head.CompareAndSwap(head, n) {
			break
		}
		head = s.head.Load()
	}
	s.size.Add(1)
}

// Pop removes and returns the top value. ok is false if the stack was
// empty at the instant it was observed.
func (s *Stack[T]) Pop() (v T, ok bool) {
	g := s.gc.Pin()
	defer g.Unpin()

	for {
		head := s.head.Load()
		if head == nil {
			return v, false
		}
		// head cannot be recycled while we are pinned, so next is the
		// link it was pushed with and the CAS below is ABA-free.
		next := head.next.Load()
		if s.head.CompareAndSwap(head, next) {
			head.transition(nodeLive, nodeRetired)
			v = head.value
			s.size.Add(-1)
			g.Retire(head)
			return v, true
		}
	}
}

// Len returns the number of elements. It is exact only when the stack is
// quiescent.
func (s *Stack[T]) Len() int {
	return int(s.size.Load())
}

// Walk calls fn for each value from top to bottom until fn returns false.
// The traversal is weakly consistent: values pushed or popped while it runs
// may or may not be visited, but every visited value was on the stack at
// some point during the call. fn must not retain pointers into the values
// beyond what T itself permits.
func (s *Stack[T]) Walk(fn func(T) bool) {
	g := s.gc.Pin()
	defer g.Unpin()

	for n := s.head.Load(); n != nil; n = n.next.Load() {
		if !fn(n.value) {
			return
		}
	}
}

// Reclaim returns retired nodes whose grace period has elapsed to the node
// pool and reports how many it returned.
func (s *Stack[T]) Reclaim() int {
	return s.gc.Reclaim()
}

func (s *Stack[T]) Stats() Stats {
	return Stats{
		Depth: s.size.Load(),
		Stats: s.gc.Stats(),
	}
}

// Close tears the stack down, releasing every node it still owns, and
// returns the number of values that were never popped. The caller must
// ensure no other goroutine uses the stack during or after Close.
func (s *Stack[T]) Close() int {
	count := 0
	n := s.head.Swap(nil)
	for n != nil {
		next := n.next.Load()
		n.release(nodeLive)
		n = next
		count++
	}
	s.size.Store(0)
	s.gc.Drain()
	return count
}
