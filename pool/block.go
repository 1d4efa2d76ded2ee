package pool

import "sync/atomic"

// statCounters holds the counters backing Stats (spec.md §3/§6); all but
// inUse only ever increase.
// Grouped in its own type so Pool's zero-initialization story stays
// simple: every field here is itself zero-valued and ready to use.
type statCounters struct {
	total       atomic.Int64
	inUse       atomic.Int64
	allocFails  atomic.Int64
	grows       atomic.Int64
	doubleFrees atomic.Int64
}
