// Package pool implements the fixed-width, on-demand-growable buffer pool
// (spec.md §4.F): O(1) allocate/release backed by an intrusive free-list
// queue, optional bounded blocking when exhausted, and the statistics
// counters every Pool tracks.
package pool

import (
	"reflect"
	"sync"

	"github.com/flipk/threadslinger2/fault"
	"github.com/flipk/threadslinger2/internal/condvar"
	"github.com/flipk/threadslinger2/queue"
)

// WaitPolicy is the vocabulary shared with package queue: Forever,
// NoWait, any positive millisecond count, or (Allocate only) Grow.
type WaitPolicy = queue.WaitPolicy

const (
	// Forever blocks with no deadline.
	Forever = queue.Forever
	// NoWait returns immediately if the pool is exhausted.
	NoWait = queue.NoWait
	// Grow allocates a fresh memory block rather than blocking when the
	// free list is empty. Valid only for Allocate.
	Grow = queue.Grow
)

// Options configures a Pool. Width is derived by the caller from the
// declared message type set (SizeOf computes it via reflect);
// library users constructing a Pool directly supply it themselves.
type Options struct {
	// Width is the slot payload capacity in bytes: max(sizeof(B),
	// sizeof(D1), ..., sizeof(Dk)) over the declared type set
	// (spec.md §4.G). Zero means unbounded (no BufferTooBigForPool
	// check is performed).
	Width uintptr

	// InitialSlots is how many slots the pool starts with.
	InitialSlots int
	// GrowthIncrement is how many slots a Grow event adds.
	GrowthIncrement int

	Clock condvar.Clock
	Name  string
}

// SizeOf computes the slot width for a declared set of message types, the
// Go equivalent of max(sizeof(B), sizeof(D1), ..., sizeof(Dk)).
func SizeOf(types ...reflect.Type) uintptr {
	var max uintptr
	for _, t := range types {
		if sz := t.Size(); sz > max {
			max = sz
		}
	}
	return max
}

// Pool owns memory blocks and the free-list queue of unused slots
// (spec.md §3). The zero value is not usable; construct with New.
type Pool struct {
	name   string
	width  uintptr
	growth int
	free   *queue.Queue

	blocksMu sync.Mutex
	blocks   [][]queue.Slot // never freed individually; live for the Pool

	stats statCounters
}

// New constructs a Pool and grows it to InitialSlots slots immediately.
func New(opts Options) *Pool {
	growth := opts.GrowthIncrement
	if growth <= 0 {
		growth = 1
	}
	p := &Pool{
		name:   opts.Name,
		width:  opts.Width,
		growth: growth,
		free: queue.New(queue.Options{
			Clock: opts.Clock,
			Name:  opts.Name + "/free",
		}),
	}
	if opts.InitialSlots > 0 {
		p.growBy(opts.InitialSlots, false)
	}
	return p
}

// Name returns the diagnostic name this pool was constructed with.
func (p *Pool) Name() string { return p.name }

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	return Stats{
		SlotWidth:     p.width,
		TotalSlots:    p.stats.total.Load(),
		SlotsInUse:    p.stats.inUse.Load(),
		AllocFailures: p.stats.allocFails.Load(),
		Grows:         p.stats.grows.Load(),
		DoubleFrees:   p.stats.doubleFrees.Load(),
	}
}

// Allocate returns a fresh, in-use Slot per the wait policy (spec.md
// §4.F). size is the caller's requested payload size, checked against
// the pool's configured Width; a size that doesn't fit reports
// BufferTooBigForPool and fails regardless of wait. A nil, nil return
// means the free list was (and, for bounded waits, remained) exhausted;
// that is not an error, but AllocFailures is incremented.
func (p *Pool) Allocate(wait WaitPolicy, size uintptr) (*queue.Slot, error) {
	if p.width != 0 && size > p.width {
		fault.Report(fault.BufferTooBigForPool)
		return nil, errBufferTooBig
	}

	// The free list is a shared resource any number of goroutines allocate
	// from at once, so it uses DequeueConcurrent rather than Dequeue:
	// Dequeue's single-consumer guard exists for user message queues and
	// would otherwise make concurrent Allocate calls spuriously fail each
	// other with ConcurrentDequeue.
	var slot *queue.Slot
	var err error
	if wait == Grow {
		slot, err = p.allocateGrow()
	} else {
		slot, err = p.free.DequeueConcurrent(wait)
	}
	if err != nil {
		return nil, err
	}
	if slot == nil {
		p.stats.allocFails.Add(1)
		return nil, nil
	}

	slot.SetInUse(true)
	p.stats.inUse.Add(1)
	return slot, nil
}

// allocateGrow implements WaitPolicy Grow: pop a free slot if one exists,
// otherwise add GrowthIncrement slots to the free list first (so Grows
// is only incremented when a grow materially produced a buffer — see
// DESIGN.md, Open Question 3) and then pop, growing again if concurrent
// callers took every new slot first.
func (p *Pool) allocateGrow() (*queue.Slot, error) {
	for {
		slot, err := p.free.DequeueConcurrent(NoWait)
		if err != nil || slot != nil {
			return slot, err
		}
		p.growBy(p.growth, true)
	}
}

// Release returns slot to the free list (spec.md §4.F). Releasing a slot
// that isn't marked in-use reports DoubleFree (non-fatal, counted) and
// leaves the free list untouched. Releasing a slot that is still linked
// into some list (a logic error in the caller, since a live slot must
// never be on a list) reports PoolReleaseAlreadyOnList (fatal).
func (p *Pool) Release(slot *queue.Slot) error {
	if slot.Linked() {
		fault.Report(fault.PoolReleaseAlreadyOnList)
		return errReleaseAlreadyOnList
	}
	if !slot.InUse() {
		p.stats.doubleFrees.Add(1)
		fault.Report(fault.DoubleFree)
		return errDoubleFree
	}

	slot.Payload = nil
	slot.SetInUse(false)
	p.stats.inUse.Add(-1)
	return p.free.EnqueueHead(slot)
}

// growBy allocates one contiguous memory block of n slots, initializes
// each, and pushes them onto the free list in order. countGrow controls
// whether this counts as a Grow event for statistics (initial sizing at
// construction time does not).
func (p *Pool) growBy(n int, countGrow bool) {
	if n <= 0 {
		return
	}
	block := make([]queue.Slot, n)
	p.blocksMu.Lock()
	p.blocks = append(p.blocks, block)
	p.blocksMu.Unlock()

	for i := range block {
		block[i].Init()
		p.free.EnqueueTail(&block[i])
	}
	p.stats.total.Add(int64(n))
	if countGrow {
		p.stats.grows.Add(1)
	}
}
