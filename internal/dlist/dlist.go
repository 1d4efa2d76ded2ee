// Package dlist implements the intrusive circular doubly linked list cell
// shared by the pool free list and the messaging queues. A Node is either
// unlinked (self-linked, owner nil) or part of exactly one list, identified
// by the list's sentinel Node. A magic word distinguishes an initialized
// Node from arbitrary zero-valued or stale memory.
package dlist

import (
	"github.com/flipk/threadslinger2/fault"
)

const magic uint32 = 0x646c6973 // "dlis"

// Node is an embeddable list cell. The zero value is not usable; call
// Init before first use.
type Node struct {
	magic      uint32
	next, prev *Node
	owner      *Node // the list's sentinel, nil if unlinked
}

// Init makes n a valid, empty, unlinked cell. It is also used to
// initialize a list's sentinel Node (a list is simply a Node that its
// members record as their owner).
func (n *Node) Init() {
	n.magic = magic
	n.next = n
	n.prev = n
	n.owner = nil
}

func (n *Node) checkMagic() bool {
	if n.magic != magic {
		fault.Report(fault.LinksMagicCorrupt)
		return false
	}
	return true
}

// Empty reports whether n (used as a list sentinel) currently has no
// members.
func (n *Node) Empty() bool {
	if !n.checkMagic() {
		return true
	}
	return n.next == n
}

// Owner returns the sentinel of the list n currently belongs to, or nil
// if n is unlinked.
func (n *Node) Owner() *Node {
	return n.owner
}

// InsertHead inserts n immediately after sentinel, i.e. at the head of
// the list sentinel owns. n must currently be unlinked.
func (sentinel *Node) InsertHead(n *Node) {
	sentinel.insertAfter(sentinel, n)
}

// InsertTail inserts n immediately before sentinel, i.e. at the tail of
// the list sentinel owns.
func (sentinel *Node) InsertTail(n *Node) {
	sentinel.insertAfter(sentinel.prev, n)
}

func (sentinel *Node) insertAfter(pos *Node, n *Node) {
	if !sentinel.checkMagic() || !n.checkMagic() {
		return
	}
	if n.owner != nil {
		fault.Report(fault.LinksAddAlreadyOnList)
		return
	}
	n.next = pos.next
	n.prev = pos
	pos.next.prev = n
	pos.next = n
	n.owner = sentinel
}

// Remove unlinks n from whatever list it belongs to. n must currently be
// linked.
func (n *Node) Remove() {
	if !n.checkMagic() {
		return
	}
	if n.owner == nil {
		fault.Report(fault.LinksRemoveNotOnList)
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.next = n
	n.prev = n
	n.owner = nil
}

// Front returns the first member of the list sentinel owns, or nil if
// empty.
func (sentinel *Node) Front() *Node {
	if !sentinel.checkMagic() {
		return nil
	}
	if sentinel.next == sentinel {
		return nil
	}
	return sentinel.next
}

// Validate reports whether n belongs to the list owned by sentinel.
func (n *Node) Validate(sentinel *Node) bool {
	if !n.checkMagic() {
		return false
	}
	return n.owner == sentinel
}
