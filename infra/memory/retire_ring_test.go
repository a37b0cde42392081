package memory

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func TestRetireRingBasic(t *testing.T) {
	r := NewRetireRing[int](4)

	if !r.Enqueue(1) || !r.Enqueue(2) {
		t.Fatal("enqueue failed unexpectedly")
	}
	if v, ok := r.Peek(); !ok || v != 1 {
		t.Errorf("expected peek to be 1, got %v %v", v, ok)
	}
	if v, _ := r.Dequeue(); v != 1 {
		t.Error("expected first dequeue to be 1")
	}
	if v, _ := r.Dequeue(); v != 2 {
		t.Error("expected second dequeue to be 2")
	}
	if _, ok := r.Dequeue(); ok {
		t.Error("expected empty ring to report !ok")
	}
}

func TestRetireRingFull(t *testing.T) {
	r := NewRetireRing[int](2)
	r.Enqueue(1)
	r.Enqueue(2)
	if !r.IsFull() {
		t.Fatal("expected ring to be full")
	}
	if r.Enqueue(3) {
		t.Fatal("enqueue into full ring succeeded")
	}
	r.Dequeue()
	if !r.Enqueue(3) {
		t.Fatal("enqueue after dequeue failed")
	}
	if r.Len() != 2 || r.Cap() != 2 {
		t.Fatalf("len=%d cap=%d, want 2/2", r.Len(), r.Cap())
	}
}

func TestRetireRingWraps(t *testing.T) {
	r := NewRetireRing[int](4)
	for i := 0; i < 100; i++ {
		if !r.Enqueue(i) {
			t.Fatalf("enqueue %d failed", i)
		}
		if v, ok := r.Dequeue(); !ok || v != i {
			t.Fatalf("dequeue got %d, want %d", v, i)
		}
	}
}

func TestRetireRingSizeMustBePowerOfTwo(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for size 3")
		}
		if err, ok := r.(error); !ok || !errors.HasAssertionFailure(err) {
			t.Fatalf("expected assertion failure, got %v", r)
		}
	}()
	NewRetireRing[int](3)
}
