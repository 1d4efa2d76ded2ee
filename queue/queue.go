package queue

import (
	"sync/atomic"
	"unsafe"

	"github.com/flipk/threadslinger2/fault"
	"github.com/flipk/threadslinger2/internal/condvar"
	"github.com/flipk/threadslinger2/internal/dlist"
)

// Options configures a Queue. Name is used only in diagnostics.
type Options struct {
	Clock condvar.Clock
	Name  string
}

// Queue is an intrusive FIFO/LIFO of Slots guarded by a wait primitive
// (spec.md §4.E). It supports one concurrent dequeuer at a time; multiple
// concurrent enqueuers are fine.
type Queue struct {
	name string
	wait *condvar.Waiter
	head dlist.Node

	// redirect is non-nil while this queue is a member of a Set: local
	// enqueues additionally signal the set's waiter, and Dequeue on
	// this queue directly is rejected with QueueInASet.
	redirect atomic.Pointer[condvar.Waiter]

	dequeuing atomic.Bool
	id        atomic.Int64 // priority id while a Set member; meaningless otherwise
}

// New creates an empty Queue with its own wait primitive.
func New(opts Options) *Queue {
	q := &Queue{
		name: opts.Name,
		wait: condvar.New(opts.Clock),
	}
	q.head.Init()
	return q
}

// Name returns the diagnostic name this queue was constructed with.
func (q *Queue) Name() string { return q.name }

// Empty reports whether the queue currently holds no slots.
func (q *Queue) Empty() bool {
	q.wait.Lock()
	defer q.wait.Unlock()
	return q.head.Empty()
}

// EnqueueHead inserts slot at the head of the queue (LIFO use, e.g. a pool
// free list for cache-hot reuse).
func (q *Queue) EnqueueHead(slot *Slot) error {
	return q.enqueue(slot, true)
}

// EnqueueTail inserts slot at the tail of the queue (FIFO use, the normal
// messaging pattern).
func (q *Queue) EnqueueTail(slot *Slot) error {
	return q.enqueue(slot, false)
}

func (q *Queue) enqueue(slot *Slot, head bool) error {
	q.wait.Lock()
	if slot.link.Owner() != nil {
		q.wait.Unlock()
		fault.Report(fault.QueueEnqueueAlreadyOnList)
		return errAlreadyOnList
	}
	if head {
		q.head.InsertHead(&slot.link)
	} else {
		q.head.InsertTail(&slot.link)
	}
	q.wait.Signal()
	q.wait.Unlock()

	if set := q.redirect.Load(); set != nil {
		set.Lock()
		set.Signal()
		set.Unlock()
	}
	return nil
}

// Dequeue removes and returns the head slot, blocking according to wait.
// It fails with QueueInASet if this queue currently belongs to a Set, and
// with ConcurrentDequeue if another goroutine is already inside Dequeue
// on this queue. A nil, nil return means the wait elapsed (or NoWait
// found nothing) with no error.
//
// Dequeue is the user-facing, single-consumer entry point: spec.md models
// a queue as having at most one consumer thread, and ConcurrentDequeue
// exists to catch a second one showing up by mistake. Pool's free list is
// not such a queue — any number of goroutines legitimately call
// Pool.Allocate at once — so the pool uses DequeueConcurrent instead,
// which shares this method's locking and correctness but skips the
// single-waiter guard.
func (q *Queue) Dequeue(wait WaitPolicy) (*Slot, error) {
	return q.dequeue(wait, true)
}

// DequeueConcurrent behaves like Dequeue but does not enforce (or even
// check) the single-consumer guard: it is safe for any number of
// goroutines to call concurrently, matching the teacher's
// BufferPoolImpl's single-mutex getBuffer/addBuffer, which never
// restricted caller concurrency. Intended for internal free lists such as
// pool.Pool's, not for user message queues.
func (q *Queue) DequeueConcurrent(wait WaitPolicy) (*Slot, error) {
	return q.dequeue(wait, false)
}

func (q *Queue) dequeue(wait WaitPolicy, guardSingleConsumer bool) (*Slot, error) {
	if q.redirect.Load() != nil {
		fault.Report(fault.QueueInASet)
		return nil, errQueueInASet
	}
	if guardSingleConsumer {
		if !q.dequeuing.CompareAndSwap(false, true) {
			fault.Report(fault.ConcurrentDequeue)
			return nil, errConcurrentDequeue
		}
		defer q.dequeuing.Store(false)
	}

	q.wait.Lock()
	defer q.wait.Unlock()

	now := q.wait.Clock().Now()
	block, until, err := wait.deadline(now)
	if err != nil {
		fault.Report(fault.InvalidWaitPolicy)
		return nil, err
	}

	for q.head.Empty() {
		if !block {
			return nil, nil
		}
		if until.IsZero() {
			q.wait.Wait()
			continue
		}
		if q.wait.WaitUntil(until) && q.head.Empty() {
			return nil, nil
		}
	}

	node := q.head.Front()
	if !node.Validate(&q.head) {
		fault.Report(fault.QueueDequeueNotOnThisList)
		return nil, errNotOnThisList
	}
	node.Remove()
	return slotFromNode(node), nil
}

// slotFromNode recovers the enclosing Slot from a pointer to its link
// field, mirroring the C original's "payload_ptr - sizeof(header)"
// recovery (spec.md §4.B). This is sound because link is Slot's first
// field and every Node handed to a Queue originates from a real *Slot.
func slotFromNode(n *dlist.Node) *Slot {
	return (*Slot)(unsafe.Pointer(n))
}
