package pool

import "fmt"

// Stats is a point-in-time snapshot of a Pool's counters (spec.md §3/§6).
type Stats struct {
	SlotWidth     uintptr
	TotalSlots    int64
	SlotsInUse    int64
	AllocFailures int64
	Grows         int64
	DoubleFrees   int64
}

// String renders the snapshot the way the teacher's BufferPoolImpl.String
// renders its own diagnostics: compact, human-readable, all fields on a
// single line.
func (s Stats) String() string {
	return fmt.Sprintf(
		"width=%d total=%d inuse=%d allocFails=%d grows=%d doubleFrees=%d",
		s.SlotWidth, s.TotalSlots, s.SlotsInUse, s.AllocFailures, s.Grows, s.DoubleFrees)
}
