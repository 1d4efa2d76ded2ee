// Package fault carries the error taxonomy and the process-wide assertion
// handler shared by every other package in this module. User errors are
// reported through the handler with fatal=false and also returned to the
// caller as an ordinary bool/error; internal invariant violations are
// reported with fatal=true and the handler must not return.
package fault

import (
	"fmt"
	"log"
	"runtime"
	"sync/atomic"
)

// Kind enumerates the error taxonomy from the specification. User errors
// are recoverable; the rest indicate a corrupted internal data structure.
type Kind int

const (
	// User errors: the caller can recover from these.
	BufferTooBigForPool Kind = iota
	DoubleFree
	QueueInASet
	QueueSetEmpty
	EnqueueEmptyHandle
	ConcurrentDequeue
	InvalidWaitPolicy

	// Internal invariants: continuing risks use-after-free.
	LinksMagicCorrupt
	LinksAddAlreadyOnList
	LinksRemoveNotOnList
	PoolReleaseAlreadyOnList
	QueueDequeueNotOnThisList
	QueueEnqueueAlreadyOnList
)

func (k Kind) String() string {
	switch k {
	case BufferTooBigForPool:
		return "BufferTooBigForPool"
	case DoubleFree:
		return "DoubleFree"
	case QueueInASet:
		return "QueueInASet"
	case QueueSetEmpty:
		return "QueueSetEmpty"
	case EnqueueEmptyHandle:
		return "EnqueueEmptyHandle"
	case ConcurrentDequeue:
		return "ConcurrentDequeue"
	case InvalidWaitPolicy:
		return "InvalidWaitPolicy"
	case LinksMagicCorrupt:
		return "LinksMagicCorrupt"
	case LinksAddAlreadyOnList:
		return "LinksAddAlreadyOnList"
	case LinksRemoveNotOnList:
		return "LinksRemoveNotOnList"
	case PoolReleaseAlreadyOnList:
		return "PoolReleaseAlreadyOnList"
	case QueueDequeueNotOnThisList:
		return "QueueDequeueNotOnThisList"
	case QueueEnqueueAlreadyOnList:
		return "QueueEnqueueAlreadyOnList"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Fatal reports whether kind indicates an internal invariant violation
// rather than a recoverable user error.
func (k Kind) Fatal() bool {
	return k >= LinksMagicCorrupt
}

// Location identifies the call site that detected a violation.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Handler is the signature of the process-wide assertion callback. fatal
// handlers must not return; the caller is entitled to assume they diverge
// (typically via panic or os.Exit).
type Handler func(kind Kind, fatal bool, loc Location)

// DefaultHandler prints a descriptive message and, if fatal, panics. It
// never returns when fatal is true.
func DefaultHandler(kind Kind, fatal bool, loc Location) {
	if fatal {
		log.Printf("threadslinger2: fatal internal error %s at %s", kind, loc)
		panic(fmt.Sprintf("threadslinger2: %s at %s", kind, loc))
	}
	log.Printf("threadslinger2: %s at %s", kind, loc)
}

var handler atomic.Value // Handler

func init() {
	handler.Store(Handler(DefaultHandler))
}

// SetHandler installs a new process-wide assertion handler, replacing
// whatever was installed before. Passing nil restores DefaultHandler.
func SetHandler(h Handler) {
	if h == nil {
		h = DefaultHandler
	}
	handler.Store(h)
}

// here captures the caller's source location, skipping `skip` additional
// frames beyond the immediate caller of here().
func here(skip int) Location {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Location{File: "unknown", Line: 0}
	}
	return Location{File: file, Line: line}
}

// Report invokes the installed handler for kind, detected at the caller's
// location. fatal is derived from kind.Fatal(). Report only returns if
// kind is a non-fatal user error (or a misbehaving handler returns from a
// fatal call, which it must not do).
func Report(kind Kind) {
	h := handler.Load().(Handler)
	h(kind, kind.Fatal(), here(1))
}

// ReportAt is like Report but lets the caller supply the location
// explicitly, useful when the detecting frame is not the one whose line
// number is most useful to a reader (e.g. a small helper called from many
// sites).
func ReportAt(kind Kind, loc Location) {
	h := handler.Load().(Handler)
	h(kind, kind.Fatal(), loc)
}

// Here is exported so other packages in this module can build a Location
// at their own call site without depending on runtime directly.
func Here() Location {
	return here(1)
}
