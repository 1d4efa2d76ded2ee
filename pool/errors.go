package pool

import "errors"

var (
	errBufferTooBig         = errors.New("threadslinger2/pool: requested size exceeds pool width")
	errDoubleFree           = errors.New("threadslinger2/pool: slot released twice")
	errReleaseAlreadyOnList = errors.New("threadslinger2/pool: released slot is still linked into a list")
)

// ErrBufferTooBig is returned by Allocate when the requested size
// exceeds the pool's configured Width.
var ErrBufferTooBig = errBufferTooBig

// ErrDoubleFree is returned by Release when slot was not marked in-use
// (it was already released). The pool's DoubleFrees counter is
// incremented regardless of whether the caller inspects the error.
var ErrDoubleFree = errDoubleFree
