// Package message implements the typed message base and the shared
// handle that owns it (spec.md §4.G/§4.H): construction and destruction
// of a user payload coupled to pool allocate/release through an atomic
// refcount, with safe polymorphic narrowing across a user-defined class
// hierarchy that shares one base.
package message

import (
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/flipk/threadslinger2/fault"
	"github.com/flipk/threadslinger2/pool"
	"github.com/flipk/threadslinger2/queue"
)

// Message is satisfied by any *T that embeds Base, via Go's method
// promotion — the capability-interface translation of the base/derived
// class hierarchy spec.md §9 describes (DESIGN.md has the full
// rationale).
type Message interface {
	tslBase() *Base
}

// Destroyer is the optional interface a message payload implements to
// run its own teardown when the last handle drops, the Go equivalent of
// the user's "possibly virtual" destructor (spec.md §4.G).
type Destroyer interface {
	Destroy()
}

// Base is the field every pooled message type embeds: a back-pointer to
// the owning pool and slot, and the atomic refcount spec.md §4.G/§9
// requires to live inline with the payload for cache locality. The zero
// value is only meaningful while the message is under construction by
// Acquire; user code never constructs a Base directly.
type Base struct {
	pool *pool.Pool
	slot *queue.Slot
	refs atomic.Int64
}

// tslBase lets Base satisfy Message, and lets every embedder satisfy it
// too through method promotion.
func (b *Base) tslBase() *Base { return b }

// UseCount is an advisory read of the refcount (0 before Acquire
// finishes constructing the message).
func (b *Base) UseCount() int64 { return b.refs.Load() }

// ptrMessage constrains a generic Acquire/Narrow call to a pointer type
// that both names the payload's field layout (T) and, via embedding,
// satisfies Message. Acquire passes sizeof(T) to Pool.Allocate, which
// checks it against the pool's Width at run time; an oversized T is not
// rejected at compile time.
type ptrMessage[T any] interface {
	*T
	Message
}

// Acquire allocates a slot from p per wait, then constructs a T in place
// via init (spec.md §4.G: never run user construction on empty memory —
// init is only called once allocation has actually succeeded). The
// returned handle owns the one reference Acquire creates; an empty
// Handle means allocation failed (pool exhaustion, timeout, or a size
// that doesn't fit the pool), which is not itself an error here — Pool
// already accounted it via AllocFailures or BufferTooBigForPool.
func Acquire[T any, PT ptrMessage[T]](p *pool.Pool, wait pool.WaitPolicy, init func(*T)) Handle[PT] {
	var zero T
	slot, err := p.Allocate(wait, unsafe.Sizeof(zero))
	if err != nil || slot == nil {
		return Handle[PT]{}
	}

	msg := new(T)
	pt := PT(msg)
	b := pt.tslBase()
	b.pool = p
	b.slot = slot
	slot.Payload = pt

	if init != nil {
		init(msg)
	}
	b.refs.Store(1)
	return Handle[PT]{ptr: pt}
}

// destroy runs m's destructor, if any, and returns its slot to its pool.
// Called exactly once, by whichever Drop observes the refcount's 1->0
// transition.
func destroy[M Message](m M, b *Base) {
	if d, ok := any(m).(Destroyer); ok {
		d.Destroy()
	}
	slot, p := b.slot, b.pool
	b.slot, b.pool = nil, nil
	if slot != nil && p != nil {
		p.Release(slot)
	}
}

// isNilM reports whether m is nil, including the case where m's static
// type M is the Message interface itself but its dynamic value is a
// typed-nil concrete pointer (e.g. the result of Widen on an empty
// concretely typed Handle): boxing a typed nil into a wider interface
// produces a non-nil interface value, so plain `any(m) == any(zero)`
// comparison would miss it. reflect.ValueOf sees through the box to the
// dynamic value's own kind and nilness instead.
func isNilM[M Message](m M) bool {
	v := reflect.ValueOf(m)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

func baseOf[M Message](m M) *Base {
	if isNilM(m) {
		return nil
	}
	return m.tslBase()
}

// Enqueue transfers ownership of h's reference onto the tail of q: the
// queue now holds the one count h held, and h is empty afterward. An
// empty h reports EnqueueEmptyHandle and leaves q untouched.
func Enqueue[M Message](q *queue.Queue, h *Handle[M]) error {
	if h.Empty() {
		fault.Report(fault.EnqueueEmptyHandle)
		return errEnqueueEmptyHandle
	}
	b := baseOf(h.ptr)
	slot := b.slot
	h.Take()
	return q.EnqueueTail(slot)
}

// Dequeue blocks per wait and returns a handle taking ownership of the
// reference count the queue held for the message — no increment. A nil
// error with an empty result means the wait elapsed without a message,
// which is not an error (spec.md §7).
func Dequeue[M Message](q *queue.Queue, wait queue.WaitPolicy) (Handle[M], error) {
	slot, err := q.Dequeue(wait)
	if err != nil || slot == nil {
		return Handle[M]{}, err
	}
	return handleFromSlot[M](slot)
}

// DequeueSet is Dequeue's counterpart for a queue Set, additionally
// reporting which member queue's id the message came from (spec.md
// §4.I).
func DequeueSet[M Message](s *queue.Set, wait queue.WaitPolicy) (Handle[M], int64, error) {
	d, err := s.Dequeue(wait)
	if err != nil || d.Slot == nil {
		return Handle[M]{}, 0, err
	}
	h, err := handleFromSlot[M](d.Slot)
	return h, d.ID, err
}

func handleFromSlot[M Message](slot *queue.Slot) (Handle[M], error) {
	pt, ok := slot.Payload.(M)
	if !ok {
		return Handle[M]{}, errDequeueTypeMismatch
	}
	return Handle[M]{ptr: pt}, nil
}
