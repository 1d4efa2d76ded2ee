package queue

import "errors"

var (
	errAlreadyOnList     = errors.New("threadslinger2/queue: enqueue of a slot already on a list")
	errQueueInASet       = errors.New("threadslinger2/queue: queue belongs to a set")
	errConcurrentDequeue = errors.New("threadslinger2/queue: concurrent dequeue on the same queue")
	errNotOnThisList     = errors.New("threadslinger2/queue: dequeued slot was not on this list")
	errQueueSetEmpty     = errors.New("threadslinger2/queue: set has no member queues")
	errInvalidWaitPolicy = errors.New("threadslinger2/queue: WaitPolicy not valid on a dequeue path")
)

// ErrQueueInASet is returned by Queue.Dequeue when the queue currently
// belongs to a Set, and by Set.Add when a queue already belongs to some
// set.
var ErrQueueInASet = errQueueInASet

// ErrConcurrentDequeue is returned when two goroutines call Dequeue on
// the same Queue or Set concurrently.
var ErrConcurrentDequeue = errConcurrentDequeue

// ErrQueueSetEmpty is returned by Set.Dequeue, regardless of wait policy,
// when the set has no member queues joined at all. A set with members
// but nothing currently enqueued is not an error; see DESIGN.md.
var ErrQueueSetEmpty = errQueueSetEmpty

// ErrInvalidWaitPolicy is returned by Queue.Dequeue and Set.Dequeue when
// passed Grow, which is only meaningful to pool.Pool.Allocate.
var ErrInvalidWaitPolicy = errInvalidWaitPolicy
