package memory

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// Pool is a typed object pool.
// It is type-safe for normal use, but can also participate
// in epoch-based reclamation via PutAny.
//
// release, when set, runs on every object before it re-enters the pool.
// It is where owners clear payloads and check their own lifecycle state.
type Pool[T any] struct {
	p       *sync.Pool
	release func(*T)
}

func NewPool[T any](ctor func() *T, release func(*T)) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
		release: release,
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	if p.release != nil {
		p.release(v)
	}
	p.p.Put(v)
}

// PutAny allows Pool[T] to satisfy ReclaimablePool.
func (p *Pool[T]) PutAny(v any) {
	obj, ok := v.(*T)
	if !ok || obj == nil {
		panic(errors.AssertionFailedf("memory.Pool: PutAny received %T", v))
	}
	p.Put(obj)
}
