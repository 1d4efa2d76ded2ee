package message

// Handle is the shared handle over a message (spec.md §4.H): either
// empty or referencing exactly one message. M is normally a concrete
// *T (a strongly typed handle) or the Message interface itself (a
// base-typed handle suitable for a polymorphic queue). The zero value is
// a valid empty handle.
type Handle[M Message] struct {
	ptr M
}

// Empty reports whether h currently references no message.
func (h *Handle[M]) Empty() bool { return isNilM(h.ptr) }

// Get returns the raw message pointer, or the zero value of M if empty.
func (h *Handle[M]) Get() M { return h.ptr }

// UseCount is an advisory read of the referenced message's refcount, 0
// if h is empty.
func (h *Handle[M]) UseCount() int64 {
	if b := baseOf(h.ptr); b != nil {
		return b.UseCount()
	}
	return 0
}

// Unique reports whether h is the only outstanding reference.
func (h *Handle[M]) Unique() bool { return h.UseCount() == 1 }

// Clone returns a new handle referencing the same message as h,
// incrementing the refcount (spec.md's copy-construct/assign). Cloning
// an empty handle returns an empty handle.
func (h *Handle[M]) Clone() Handle[M] {
	if b := baseOf(h.ptr); b != nil {
		b.refs.Add(1)
	}
	return Handle[M]{ptr: h.ptr}
}

// Take returns the raw pointer and empties h WITHOUT touching the
// refcount: the caller receives ownership of the one count h held
// (spec.md's take()).
func (h *Handle[M]) Take() M {
	m := h.ptr
	var zero M
	h.ptr = zero
	return m
}

// Give installs m as h's new referent WITHOUT incrementing its refcount:
// the caller is transferring ownership of a count it already held
// (spec.md's give(p)). h's previous reference, if any, is dropped first.
func (h *Handle[M]) Give(m M) {
	h.Drop()
	h.ptr = m
}

// Reset drops h's current reference, if any, and takes a fresh,
// incremented reference to m (spec.md's reset(p): decrement old,
// increment new). Reset(zero value) just empties h.
func (h *Handle[M]) Reset(m M) {
	h.Drop()
	if b := baseOf(m); b != nil {
		b.refs.Add(1)
	}
	h.ptr = m
}

// Drop decrements the referenced message's refcount, if any. On the
// 1->0 transition it runs the message's destructor (if it implements
// Destroyer) and returns the slot to its pool. h is empty after Drop
// returns, whether or not it held a reference.
func (h *Handle[M]) Drop() {
	b := baseOf(h.ptr)
	m := h.ptr
	var zero M
	h.ptr = zero
	if b == nil {
		return
	}
	if b.refs.Add(-1) == 0 {
		destroy(m, b)
	}
}

// Widen moves h's reference into a base-typed handle with no refcount
// change: a pure move, h is empty after. Use this to put a concretely
// typed handle onto a queue whose consumers narrow by concrete type.
func Widen[M Message](h *Handle[M]) Handle[Message] {
	return Handle[Message]{ptr: h.Take()}
}

// Narrow performs the polymorphic downcast from a handle of any Message
// type to a concrete derived *T: if h's dynamic type is *T the result is
// a new owning handle to it (refcount+=1, h is untouched); otherwise the
// result is empty and no refcount changes anywhere (spec.md §4.H: this
// is an expected control-flow pattern, not an error).
func Narrow[T any, PT ptrMessage[T], M Message](h *Handle[M]) Handle[PT] {
	if h.Empty() {
		return Handle[PT]{}
	}
	pt, ok := any(h.ptr).(PT)
	if !ok {
		return Handle[PT]{}
	}
	pt.tslBase().refs.Add(1)
	return Handle[PT]{ptr: pt}
}
