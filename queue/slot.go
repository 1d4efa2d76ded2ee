package queue

import (
	"sync/atomic"

	"github.com/flipk/threadslinger2/internal/dlist"
)

// Slot is the header prefixed (conceptually — see DESIGN.md) to every
// pooled buffer: a list cell plus the in-use flag (spec.md §4.B), carrying
// an opaque payload the pool and message layers interpret. A Slot is
// always owned by exactly one pool for that pool's lifetime (spec.md §3).
type Slot struct {
	link  dlist.Node
	inUse atomic.Bool

	// Payload is opaque to queue and pool; the message package stores
	// the concrete *T there between Acquire and the moment the last
	// handle drops.
	Payload any
}

// NewSlot returns a freshly initialized, unlinked Slot.
func NewSlot() *Slot {
	s := &Slot{}
	s.Init()
	return s
}

// Init (re-)initializes s as an empty, unlinked slot. Pools use this to
// stamp each element of a freshly allocated memory block in place,
// without a separate heap allocation per slot.
func (s *Slot) Init() {
	s.link.Init()
}

// InUse reports whether the slot is currently checked out of its pool.
func (s *Slot) InUse() bool { return s.inUse.Load() }

// SetInUse is used by the owning pool to flip the in-use flag under its
// own bookkeeping; it is not meaningful to call from outside pool/message.
func (s *Slot) SetInUse(v bool) { s.inUse.Store(v) }

// Linked reports whether the slot currently belongs to some Queue.
func (s *Slot) Linked() bool { return s.link.Owner() != nil }
