package queue

import (
	"testing"
	"time"
)

// TestPrioritisedDequeue is scenario S1 from spec.md §8.
func TestPrioritisedDequeue(t *testing.T) {
	q1 := New(Options{Name: "q1"})
	q2 := New(Options{Name: "q2"})
	s := NewSet(SetOptions{Name: "s"})

	if err := s.Add(q1, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(q2, 2); err != nil {
		t.Fatal(err)
	}

	a := NewSlot()
	b := NewSlot()
	if err := q2.EnqueueTail(a); err != nil {
		t.Fatal(err)
	}
	if err := q1.EnqueueTail(b); err != nil {
		t.Fatal(err)
	}

	first, err := s.Dequeue(Forever)
	if err != nil {
		t.Fatal(err)
	}
	if first.Slot != b || first.ID != 1 {
		t.Fatalf("first = %+v, want slot=b id=1", first)
	}

	second, err := s.Dequeue(Forever)
	if err != nil {
		t.Fatal(err)
	}
	if second.Slot != a || second.ID != 2 {
		t.Fatalf("second = %+v, want slot=a id=2", second)
	}
}

func TestSetDequeueOnEmptySetFails(t *testing.T) {
	s := NewSet(SetOptions{})
	_, err := s.Dequeue(NoWait)
	if err != ErrQueueSetEmpty {
		t.Fatalf("got %v, want ErrQueueSetEmpty", err)
	}
}

func TestSetDequeueNoWaitOnEmptyMembersReturnsNilNil(t *testing.T) {
	q := New(Options{})
	s := NewSet(SetOptions{})
	s.Add(q, 1)

	d, err := s.Dequeue(NoWait)
	if err != nil || d.Slot != nil {
		t.Fatalf("got %+v, %v; want zero Dequeued, nil", d, err)
	}
}

func TestSetDequeueForeverWakesOnEnqueueFromAnyMember(t *testing.T) {
	q1 := New(Options{})
	q2 := New(Options{})
	s := NewSet(SetOptions{})
	s.Add(q1, 5)
	s.Add(q2, 1)

	resultCh := make(chan Dequeued, 1)
	go func() {
		d, err := s.Dequeue(Forever)
		if err != nil {
			t.Error(err)
			return
		}
		resultCh <- d
	}()

	time.Sleep(20 * time.Millisecond)
	a := NewSlot()
	// Enqueue onto the higher-id (lower priority) queue; since it's the
	// only message present, it still wins immediately on arrival.
	if err := q1.EnqueueTail(a); err != nil {
		t.Fatal(err)
	}

	select {
	case d := <-resultCh:
		if d.Slot != a || d.ID != 5 {
			t.Fatalf("got %+v, want slot=a id=5", d)
		}
	case <-time.After(time.Second):
		t.Fatal("Set.Dequeue(Forever) never woke up")
	}
}

func TestSetRemoveRestoresDirectDequeue(t *testing.T) {
	q := New(Options{})
	s := NewSet(SetOptions{})
	s.Add(q, 1)
	s.Remove(q)

	a := NewSlot()
	q.EnqueueTail(a)
	got, err := q.Dequeue(NoWait)
	if err != nil {
		t.Fatal(err)
	}
	if got != a {
		t.Fatalf("got %p, want %p", got, a)
	}
}

func TestSetDequeueTimesOutWithinBounds(t *testing.T) {
	q := New(Options{})
	s := NewSet(SetOptions{})
	s.Add(q, 1)

	start := time.Now()
	d, err := s.Dequeue(WaitPolicy(200))
	elapsed := time.Since(start)

	if err != nil || d.Slot != nil {
		t.Fatalf("got %+v, %v; want zero Dequeued, nil", d, err)
	}
	if elapsed < 200*time.Millisecond {
		t.Fatalf("returned too early: %v", elapsed)
	}
	if elapsed > time.Second {
		t.Fatalf("returned too late: %v", elapsed)
	}
}
