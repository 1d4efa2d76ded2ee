package message

import (
	"reflect"
	"testing"

	"github.com/flipk/threadslinger2/pool"
	"github.com/flipk/threadslinger2/queue"
)

type shapeBase struct {
	Base
	Name string
}

type circle struct {
	shapeBase
	Radius float64
}

type square struct {
	shapeBase
	Side float64
}

func newShapePool() *pool.Pool {
	return pool.New(pool.Options{
		Width: pool.SizeOf(
			reflect.TypeOf(circle{}),
			reflect.TypeOf(square{}),
		),
		InitialSlots: 2,
	})
}

// TestNarrowPolymorphicDispatch is S4 from spec.md §8: two derived types
// share one pool and one base-typed queue; the consumer narrows each
// dequeued handle to find its concrete type, with no lost references and
// no false-positive narrow.
func TestNarrowPolymorphicDispatch(t *testing.T) {
	p := newShapePool()
	q := queue.New(queue.Options{})

	hc := Acquire[circle](p, pool.NoWait, func(c *circle) {
		c.Name = "c1"
		c.Radius = 2.5
	})
	hs := Acquire[square](p, pool.NoWait, func(s *square) {
		s.Name = "s1"
		s.Side = 3
	})

	wc := Widen[*circle](&hc)
	if err := Enqueue[Message](q, &wc); err != nil {
		t.Fatalf("enqueue circle: %v", err)
	}
	ws := Widen[*square](&hs)
	if err := Enqueue[Message](q, &ws); err != nil {
		t.Fatalf("enqueue square: %v", err)
	}

	first, err := Dequeue[Message](q, queue.NoWait)
	if err != nil || first.Empty() {
		t.Fatalf("dequeue 1: h=%v err=%v", first, err)
	}

	asSquare := Narrow[square](&first)
	if !asSquare.Empty() {
		t.Fatal("narrowing the circle to *square should fail (empty result)")
	}
	if first.Empty() {
		t.Fatal("a failed Narrow must not disturb the source handle")
	}

	asCircle := Narrow[circle](&first)
	if asCircle.Empty() {
		t.Fatal("narrowing the circle to *circle should succeed")
	}
	if asCircle.Get().Radius != 2.5 || asCircle.Get().Name != "c1" {
		t.Fatalf("unexpected circle payload: %+v", asCircle.Get())
	}
	if asCircle.UseCount() != 2 {
		t.Fatalf("UseCount after successful Narrow = %d, want 2 (first + asCircle)", asCircle.UseCount())
	}
	first.Drop()
	asCircle.Drop()

	second, err := Dequeue[Message](q, queue.NoWait)
	if err != nil || second.Empty() {
		t.Fatalf("dequeue 2: h=%v err=%v", second, err)
	}
	asSquare2 := Narrow[square](&second)
	if asSquare2.Empty() {
		t.Fatal("narrowing the square to *square should succeed")
	}
	if asSquare2.Get().Side != 3 || asSquare2.Get().Name != "s1" {
		t.Fatalf("unexpected square payload: %+v", asSquare2.Get())
	}
	second.Drop()
	asSquare2.Drop()

	if got := p.Stats().SlotsInUse; got != 0 {
		t.Fatalf("SlotsInUse = %d, want 0 after all handles dropped", got)
	}
}

// TestWidenEmptyHandleStaysEmpty guards against the typed-nil-in-interface
// trap: widening an empty, concretely typed Handle must still report
// Empty() == true, and Enqueue on the result must fail with
// ErrEnqueueEmptyHandle rather than dereferencing a nil Base.
func TestWidenEmptyHandleStaysEmpty(t *testing.T) {
	var empty Handle[*circle]
	if !empty.Empty() {
		t.Fatal("zero-value Handle must be empty")
	}

	widened := Widen[*circle](&empty)
	if !widened.Empty() {
		t.Fatal("widening an empty handle must still be empty")
	}

	q := queue.New(queue.Options{})
	if err := Enqueue[Message](q, &widened); err != ErrEnqueueEmptyHandle {
		t.Fatalf("got %v, want ErrEnqueueEmptyHandle", err)
	}
}

func TestTakeGiveRoundTripIsIdentity(t *testing.T) {
	p := newShapePool()
	h := Acquire[circle](p, pool.NoWait, func(c *circle) { c.Name = "x" })
	before := h.UseCount()

	raw := h.Take()
	if !h.Empty() {
		t.Fatal("Take did not empty the source handle")
	}

	var h2 Handle[*circle]
	h2.Give(raw)
	if h2.Empty() {
		t.Fatal("Give did not install the raw pointer")
	}
	if h2.UseCount() != before {
		t.Fatalf("UseCount changed across take/give round trip: %d -> %d", before, h2.UseCount())
	}
	h2.Drop()
}

func TestCloneIncrementsAndDropDecrements(t *testing.T) {
	p := newShapePool()
	h := Acquire[circle](p, pool.NoWait, nil)
	clone := h.Clone()
	if h.UseCount() != 2 || clone.UseCount() != 2 {
		t.Fatalf("UseCount after Clone = %d/%d, want 2/2", h.UseCount(), clone.UseCount())
	}
	clone.Drop()
	if h.UseCount() != 1 {
		t.Fatalf("UseCount after dropping clone = %d, want 1", h.UseCount())
	}
	if !h.Unique() {
		t.Fatal("expected Unique after clone dropped")
	}
	h.Drop()
	if got := p.Stats().SlotsInUse; got != 0 {
		t.Fatalf("SlotsInUse = %d, want 0", got)
	}
}

// TestResetDropsOldAndTakesNew exercises Reset against borrowed (not
// taken) pointers: h1 and h2 each keep their own owning handle throughout,
// and h.Reset increments/decrements independently of them.
func TestResetDropsOldAndTakesNew(t *testing.T) {
	p := newShapePool()
	h1 := Acquire[circle](p, pool.NoWait, func(c *circle) { c.Name = "first" })
	h2 := Acquire[circle](p, pool.NoWait, func(c *circle) { c.Name = "second" })

	var h Handle[*circle]
	h.Reset(h1.Get())
	if h.Get().Name != "first" {
		t.Fatalf("Name = %q, want first", h.Get().Name)
	}
	if h1.UseCount() != 2 {
		t.Fatalf("h1 UseCount after Reset borrow = %d, want 2", h1.UseCount())
	}

	h.Reset(h2.Get())
	if h.Get().Name != "second" {
		t.Fatalf("Name = %q, want second", h.Get().Name)
	}
	if h1.UseCount() != 1 {
		t.Fatalf("h1 UseCount after h moved on = %d, want 1", h1.UseCount())
	}
	if h2.UseCount() != 2 {
		t.Fatalf("h2 UseCount after Reset borrow = %d, want 2", h2.UseCount())
	}

	h.Drop()
	h1.Drop()
	h2.Drop()

	if got := p.Stats().SlotsInUse; got != 0 {
		t.Fatalf("SlotsInUse = %d, want 0", got)
	}
}
