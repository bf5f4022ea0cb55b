// Package list implements the intrusive list primitives spec §4.3 calls
// for: O(1), allocation-free membership in a queue. Per spec §9's design
// note ("prefer index-based slot pools... over raw pointer linkage to
// keep aliasing discipline local and bound-checkable"), linkage is
// carried in a flat []Links array parallel to a fixed-capacity pool
// rather than as pointers embedded in heap-allocated nodes: moving a
// slot between queues is a constant number of array writes.
package list

// Index addresses one slot in a pool's parallel Links array. Nil means
// "not linked into any list".
type Index int32

// Nil is the reserved "no such slot" index, used both for "end of list"
// and for "this slot is on no list".
const Nil Index = -1

// Links is the linkage for one pool slot. A slot that has been removed
// or was never inserted has both fields Nil (not the Go zero value; see
// NewLinksArray).
type Links struct {
	Prev, Next Index
}

// NewLinksArray returns a Links slice of length n with every slot
// initialized to "not linked" (Nil, Nil). The zero value of Links is
// (0, 0), which collides with a real index, so callers must not use
// make([]Links, n) directly.
func NewLinksArray(n int) []Links {
	links := make([]Links, n)
	for i := range links {
		links[i] = Links{Prev: Nil, Next: Nil}
	}
	return links
}

// List is a head/tail pair of indices into a caller-owned Links array.
// The zero value is not a valid empty list; use New.
type List struct {
	head, tail Index
}

// New returns an empty list.
func New() List { return List{head: Nil, tail: Nil} }

// IsEmpty reports whether the list has no members.
func (l *List) IsEmpty() bool { return l.head == Nil }

// PushTail links slot i onto the tail of the list.
func (l *List) PushTail(links []Links, i Index) {
	links[i].Prev = l.tail
	links[i].Next = Nil
	if l.tail != Nil {
		links[l.tail].Next = i
	} else {
		l.head = i
	}
	l.tail = i
}

// PushHead links slot i onto the head of the list.
func (l *List) PushHead(links []Links, i Index) {
	links[i].Next = l.head
	links[i].Prev = Nil
	if l.head != Nil {
		links[l.head].Prev = i
	} else {
		l.tail = i
	}
	l.head = i
}

// PopHead removes and returns the head slot, or Nil if the list is empty.
func (l *List) PopHead(links []Links) Index {
	i := l.head
	if i == Nil {
		return Nil
	}
	l.Remove(links, i)
	return i
}

// Head returns the head slot without removing it, or Nil if empty.
func (l *List) Head() Index { return l.head }

// Remove unlinks slot i from the list and zeroes its linkage. i must
// currently be a member of l; removing a non-member corrupts the list.
func (l *List) Remove(links []Links, i Index) {
	ln := links[i]
	if ln.Prev != Nil {
		links[ln.Prev].Next = ln.Next
	} else {
		l.head = ln.Next
	}
	if ln.Next != Nil {
		links[ln.Next].Prev = ln.Prev
	} else {
		l.tail = ln.Prev
	}
	links[i] = Links{Prev: Nil, Next: Nil}
}

// Contains walks the list looking for i. O(n); intended for debug
// assertions and tests, not hot paths.
func (l *List) Contains(links []Links, i Index) bool {
	for cur := l.head; cur != Nil; cur = links[cur].Next {
		if cur == i {
			return true
		}
	}
	return false
}

// Next returns the slot following cur in whatever list it belongs to, or
// Nil if cur is the tail. It is a free function (not a List method)
// because traversal only needs the shared links array, not a specific
// list's head/tail bookkeeping.
func Next(links []Links, cur Index) Index {
	if cur == Nil {
		return Nil
	}
	return links[cur].Next
}

// Len walks the list counting members. O(n); for tests/diagnostics.
func (l *List) Len(links []Links) int {
	n := 0
	for cur := l.head; cur != Nil; cur = links[cur].Next {
		n++
	}
	return n
}
