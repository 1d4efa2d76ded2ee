package queue

import (
	"sort"
	"sync/atomic"

	"github.com/flipk/threadslinger2/fault"
	"github.com/flipk/threadslinger2/internal/condvar"
)

// member is one queue joined to a Set, kept in ascending id order.
type member struct {
	q  *Queue
	id int64
}

// Set lets a single consumer wait on many queues and dequeue from the
// lowest-id non-empty one (spec.md §4.I). add/remove are not safe against
// a concurrent Dequeue on the same set; member queues must not be
// Dequeue'd directly while joined (they fail with QueueInASet).
type Set struct {
	name    string
	wait    *condvar.Waiter
	members []member

	dequeuing atomic.Bool
}

// SetOptions configures a Set. Name is used only in diagnostics.
type SetOptions struct {
	Clock condvar.Clock
	Name  string
}

// NewSet creates an empty queue Set with its own wait primitive.
func NewSet(opts SetOptions) *Set {
	return &Set{
		name: opts.Name,
		wait: condvar.New(opts.Clock),
	}
}

// Name returns the diagnostic name this set was constructed with.
func (s *Set) Name() string { return s.name }

// Add joins q to s with priority id (lower id dequeues first). It fails
// with ErrQueueInASet if q already belongs to any set.
func (s *Set) Add(q *Queue, id int64) error {
	s.wait.Lock()
	defer s.wait.Unlock()

	if !q.redirect.CompareAndSwap(nil, s.wait) {
		fault.Report(fault.QueueInASet)
		return errQueueInASet
	}
	q.id.Store(id)

	i := sort.Search(len(s.members), func(i int) bool { return s.members[i].id > id })
	s.members = append(s.members, member{})
	copy(s.members[i+1:], s.members[i:])
	s.members[i] = member{q: q, id: id}
	return nil
}

// Remove detaches q from s, restoring q's own wait primitive for direct
// Dequeue calls.
func (s *Set) Remove(q *Queue) {
	s.wait.Lock()
	defer s.wait.Unlock()

	for i, m := range s.members {
		if m.q == q {
			s.members = append(s.members[:i], s.members[i+1:]...)
			break
		}
	}
	q.redirect.Store(nil)
}

// Dequeued is the result of a successful Set.Dequeue: the slot plus the
// id of the member queue it came from.
type Dequeued struct {
	Slot *Slot
	ID   int64
}

// Dequeue removes and returns the head slot of the lowest-id non-empty
// member queue, blocking according to wait. If s has no member queues it
// fails with ErrQueueSetEmpty. If members exist but none has a message
// and wait would not block, it returns a zero Dequeued with no error
// (matching spec.md §7: exhaustion/timeout is not itself an error).
func (s *Set) Dequeue(wait WaitPolicy) (Dequeued, error) {
	if !s.dequeuing.CompareAndSwap(false, true) {
		fault.Report(fault.ConcurrentDequeue)
		return Dequeued{}, errConcurrentDequeue
	}
	defer s.dequeuing.Store(false)

	s.wait.Lock()
	defer s.wait.Unlock()

	if len(s.members) == 0 {
		fault.Report(fault.QueueSetEmpty)
		return Dequeued{}, errQueueSetEmpty
	}

	now := s.wait.Clock().Now()
	block, until, err := wait.deadline(now)
	if err != nil {
		fault.Report(fault.InvalidWaitPolicy)
		return Dequeued{}, err
	}

	for {
		if d, ok := s.tryDequeueLocked(); ok {
			return d, nil
		}
		if !block {
			return Dequeued{}, nil
		}
		if until.IsZero() {
			s.wait.Wait()
			continue
		}
		if s.wait.WaitUntil(until) {
			if d, ok := s.tryDequeueLocked(); ok {
				return d, nil
			}
			return Dequeued{}, nil
		}
	}
}

// tryDequeueLocked scans members in ascending-id order and pops the first
// non-empty one. The set's lock is held throughout; each member's own
// lock is held only while inspecting/removing its head (spec.md §5: set
// mutex before any member mutex).
func (s *Set) tryDequeueLocked() (Dequeued, bool) {
	for _, m := range s.members {
		m.q.wait.Lock()
		if !m.q.head.Empty() {
			node := m.q.head.Front()
			if !node.Validate(&m.q.head) {
				m.q.wait.Unlock()
				fault.Report(fault.QueueDequeueNotOnThisList)
				return Dequeued{}, false
			}
			node.Remove()
			m.q.wait.Unlock()
			return Dequeued{Slot: slotFromNode(node), ID: m.id}, true
		}
		m.q.wait.Unlock()
	}
	return Dequeued{}, false
}
