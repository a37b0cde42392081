package reclaimer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"lifo/domain/stack"
)

type countingReclaimer struct {
	calls atomic.Int64
}

func (c *countingReclaimer) Reclaim() int {
	c.calls.Add(1)
	return 0
}

func TestJobTicksUntilCancelled(t *testing.T) {
	target := &countingReclaimer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		New(target, time.Millisecond).Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for target.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("reclaimer did not tick")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestJobDrainsIdleStack(t *testing.T) {
	s := stack.New[int]()
	for i := 0; i < 10; i++ {
		s.Push(i)
	}
	for i := 0; i < 10; i++ {
		s.Pop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go New(s, time.Millisecond).Run(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for s.Stats().Pending != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("retired nodes still pending: %+v", s.Stats())
		}
		time.Sleep(time.Millisecond)
	}
	if st := s.Stats(); st.Reclaimed != st.Retired-st.Dropped {
		t.Fatalf("unbalanced accounting %+v", st)
	}
}
