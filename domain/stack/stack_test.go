package stack

import "testing"

func TestPopOnNewStackIsEmpty(t *testing.T) {
	s := New[int]()
	for i := 0; i < 3; i++ {
		if v, ok := s.Pop(); ok {
			t.Fatalf("pop %d on empty stack returned %d", i, v)
		}
	}
}

func TestPushThenPopOneValue(t *testing.T) {
	s := New[int]()
	s.Push(42)

	v, ok := s.Pop()
	if !ok || v != 42 {
		t.Fatalf("got (%d, %v), want (42, true)", v, ok)
	}
	if _, ok := s.Pop(); ok {
		t.Fatal("expected empty stack after popping the only value")
	}
}

func TestPushThenPop100Values(t *testing.T) {
	s := New[int]()
	for i := 0; i < 100; i++ {
		s.Push(i)
	}
	if s.Len() != 100 {
		t.Fatalf("len %d, want 100", s.Len())
	}
	for i := 0; i < 100; i++ {
		v, ok := s.Pop()
		if !ok {
			t.Fatalf("pop %d: stack unexpectedly empty", i)
		}
		if v != 99-i {
			t.Fatalf("pop %d: got %d, want %d", i, v, 99-i)
		}
	}
	if _, ok := s.Pop(); ok {
		t.Fatal("expected empty stack")
	}
}

func TestNodesAreRecycled(t *testing.T) {
	s := New[string]()
	for i := 0; i < 1000; i++ {
		s.Push("x")
		if v, ok := s.Pop(); !ok || v != "x" {
			t.Fatalf("round %d: got (%q, %v)", i, v, ok)
		}
	}
	s.Reclaim()

	st := s.Stats()
	if st.Retired != 1000 {
		t.Fatalf("retired %d, want 1000", st.Retired)
	}
	if st.Reclaimed == 0 {
		t.Fatal("no node was ever reclaimed")
	}
	if st.Pending != 0 {
		t.Fatalf("expected empty retire bags once idle, got %d", st.Pending)
	}
	if st.Reclaimed+st.Dropped != st.Retired {
		t.Fatalf("accounting mismatch: %+v", st)
	}
}

func TestWalkTopToBottom(t *testing.T) {
	s := New[int]()
	for i := 1; i <= 5; i++ {
		s.Push(i)
	}

	var got []int
	s.Walk(func(v int) bool {
		got = append(got, v)
		return true
	})
	want := []int{5, 4, 3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("walk got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walk got %v, want %v", got, want)
		}
	}

	n := 0
	s.Walk(func(int) bool {
		n++
		return n < 2
	})
	if n != 2 {
		t.Fatalf("walk did not stop early: visited %d", n)
	}
}

func TestCloseReleasesRemainingNodes(t *testing.T) {
	s := New[*int]()
	for i := 0; i < 10; i++ {
		v := i
		s.Push(&v)
	}
	s.Pop()
	s.Pop()

	if n := s.Close(); n != 8 {
		t.Fatalf("Close released %d live values, want 8", n)
	}
	st := s.Stats()
	if st.Depth != 0 || st.Pending != 0 {
		t.Fatalf("stack not torn down: %+v", st)
	}
	if _, ok := s.Pop(); ok {
		t.Fatal("pop after Close returned a value")
	}
}

func TestReleaseTwicePanics(t *testing.T) {
	n := &node[int]{}
	n.transition(nodeFree, nodeLive)
	n.transition(nodeLive, nodeRetired)
	n.release(nodeRetired)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double release")
		}
	}()
	n.release(nodeRetired)
}

func TestRetireTwicePanics(t *testing.T) {
	n := &node[int]{}
	n.transition(nodeFree, nodeLive)
	n.transition(nodeLive, nodeRetired)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double retire")
		}
	}()
	n.transition(nodeLive, nodeRetired)
}

func TestReleaseClearsPayload(t *testing.T) {
	v := 7
	n := &node[*int]{value: &v}
	n.transition(nodeFree, nodeLive)
	n.release(nodeLive)
	if n.value != nil || n.next.Load() != nil {
		t.Fatal("released node still references its payload or successor")
	}
}
