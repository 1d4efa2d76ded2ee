package message

import "errors"

var (
	errEnqueueEmptyHandle  = errors.New("threadslinger2/message: cannot enqueue an empty handle")
	errDequeueTypeMismatch = errors.New("threadslinger2/message: dequeued slot's payload does not match the requested type")
)

// ErrEnqueueEmptyHandle is returned by Enqueue when passed an empty
// handle.
var ErrEnqueueEmptyHandle = errEnqueueEmptyHandle

// ErrDequeueTypeMismatch is returned by Dequeue/DequeueSet when the
// queue yields a message whose dynamic type does not match M. This
// signals caller error (a queue shared between mismatched message
// types without a common Narrow step) rather than a runtime fault.
var ErrDequeueTypeMismatch = errDequeueTypeMismatch
