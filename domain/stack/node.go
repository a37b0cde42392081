package stack

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

const (
	nodeFree uint32 = iota
	nodeLive
	nodeRetired
)

type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
	state atomic.Uint32
}

// transition moves n from one lifecycle state to the next. Anything else
// means two owners believe they hold the same node, which is a
// reclamation bug and must not be survived.
func (n *node[T]) transition(from, to uint32) {
	if !n.state.CompareAndSwap(from, to) {
		panic(errors.AssertionFailedf(
			"stack: node %p in state %s, expected %s",
			n, stateName(n.state.Load()), stateName(from),
		))
	}
}

// release clears the payload of a node leaving the stack's ownership.
func (n *node[T]) release(from uint32) {
	n.transition(from, nodeFree)
	var zero T
	n.value = zero
	n.next.Store(nil)
}

func stateName(s uint32) string {
	switch s {
	case nodeFree:
		return "free"
	case nodeLive:
		return "live"
	case nodeRetired:
		return "retired"
	default:
		return "unknown"
	}
}
