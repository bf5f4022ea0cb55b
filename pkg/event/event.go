// Package event implements the fixed-capacity event descriptor pool and
// its three queues, plus the low-level put_event primitives described in
// spec §3/§4.5 (C5) and §4.7 (C7). The orchestration that ties these
// primitives to module lookup and delayed-response matching lives one
// layer up, in pkg/dispatch; this package only owns the slot pool and
// its queues.
package event

import (
	"github.com/scpfw/corefw/pkg/arch"
	"github.com/scpfw/corefw/pkg/arena"
	"github.com/scpfw/corefw/pkg/ident"
	"github.com/scpfw/corefw/pkg/list"
)

// MaxParams bounds the inline params payload carried by every event.
const MaxParams = 16

// Params is the small, fixed-size, inline params payload.
type Params [MaxParams]byte

// Flags carries the four event flags spec §3 defines.
type Flags struct {
	IsNotification    bool
	IsResponse        bool
	ResponseRequested bool
	IsDelayedResponse bool
}

// Descriptor is one pool slot's payload: the queued unit of work.
type Descriptor struct {
	ID     ident.Id
	Source ident.Id
	Target ident.Id
	Cookie uint32
	Flags  Flags
	Params Params
}

// Request is what a caller hands to put_event: an event to enqueue
// that hasn't yet been assigned a pool slot or a cookie.
type Request struct {
	ID                ident.Id
	Source            ident.Id
	Target            ident.Id
	IsNotification    bool
	ResponseRequested bool

	// IsDelayedResponse, when true, means this Request is the real
	// answer to a previously-saved delayed response: Cookie must match
	// the cookie recorded when the response was marked delayed.
	IsDelayedResponse bool
	Cookie            uint32

	Params Params

	// light marks a Request built from a Light event: no cookie is
	// assigned on enqueue (per the §9 open question, the response path
	// is still allowed to carry params).
	light bool
}

// Light is the reduced event variant spec §3 describes: id/source/
// target/response_requested only, no params. Full promotes it to a
// Request ready for put_event.
type Light struct {
	ID                ident.Id
	Source            ident.Id
	Target            ident.Id
	ResponseRequested bool
}

// IsLight reports whether req was built from a Light event, in which
// case put_event must not assign it a cookie.
func (r Request) IsLight() bool { return r.light }

// Full promotes a Light event into a Request, per spec §3: "on enqueue
// it is promoted to a full descriptor."
func (l Light) Full() Request {
	return Request{
		ID:                l.ID,
		Source:            l.Source,
		Target:            l.Target,
		ResponseRequested: l.ResponseRequested,
		light:             true,
	}
}

// Hint tells put_event which context it is being called from. Passing
// HintMainContext or HintInterruptContext lets a caller that already
// knows (an ISR handler, a module hook running under the dispatcher)
// skip arch's own context query; HintAuto asks put_event to resolve it
// itself via arch, per spec §4.5's "an implementation may let the
// caller assert context instead of querying it."
type Hint uint8

const (
	HintAuto Hint = iota
	HintMainContext
	HintInterruptContext
)

// Pool is the fixed-capacity event descriptor pool and its three
// queues: free, runnable, and isr. Exactly one of those three lists (or
// some delayed-response list owned outside this package) holds any
// given slot at any time — spec §8 property 1.
type Pool struct {
	slots []Descriptor
	links []list.Links

	free     list.List
	runnable list.List
	isr      list.List

	nextCookie uint32
	arch       arch.Interface
}

// NewPool allocates a capacity-slot pool from a, backed by arch for the
// critical sections the free list and isr queue require.
func NewPool(a *arena.Arena, capacity int, ar arch.Interface) *Pool {
	p := &Pool{
		slots:      arena.AllocSliceFrom[Descriptor](a, capacity),
		links:      list.NewLinksArray(capacity),
		free:       list.New(),
		runnable:   list.New(),
		isr:        list.New(),
		nextCookie: 0,
		arch:       ar,
	}
	for i := capacity - 1; i >= 0; i-- {
		p.free.PushHead(p.links, list.Index(i))
	}
	return p
}

// Capacity returns the pool's fixed slot count.
func (p *Pool) Capacity() int { return len(p.slots) }

// FreeCount, RunnableCount, and ISRCount walk their respective lists.
// They're O(n) and intended for diagnostics/metrics/tests, not hot paths.
func (p *Pool) FreeCount() int     { return p.free.Len(p.links) }
func (p *Pool) RunnableCount() int { return p.runnable.Len(p.links) }
func (p *Pool) ISRCount() int      { return p.isr.Len(p.links) }

// Slot returns the descriptor at i for in-place mutation.
func (p *Pool) Slot(i list.Index) *Descriptor { return &p.slots[i] }

// AcquireFreeSlot pops a slot from the free list, bracketed by global
// interrupt disable/enable per spec §4.5 ("Free list access is always
// bracketed... because ISRs may enqueue").
func (p *Pool) AcquireFreeSlot() (list.Index, bool) {
	g := arch.Enter(p.arch)
	defer g.Exit()
	i := p.free.PopHead(p.links)
	return i, i != list.Nil
}

// ReleaseSlot zeroes and returns a slot to the free list, bracketed the
// same way AcquireFreeSlot is.
func (p *Pool) ReleaseSlot(i list.Index) {
	g := arch.Enter(p.arch)
	defer g.Exit()
	p.slots[i] = Descriptor{}
	p.free.PushHead(p.links, i)
}

// AssignCookie returns the next strictly-increasing cookie value. Only
// called for non-light, non-delayed-response-completion enqueues, per
// spec §4.5 step 2.
func (p *Pool) AssignCookie() uint32 {
	p.nextCookie++
	return p.nextCookie
}

// PushRunnable appends i to the runnable queue. Only the main context
// ever calls this directly; it is not part of the ISR-shared boundary.
func (p *Pool) PushRunnable(i list.Index) {
	p.runnable.PushTail(p.links, i)
}

// PushISR appends i to the isr queue, bracketed per spec §5.
func (p *Pool) PushISR(i list.Index) {
	g := arch.Enter(p.arch)
	defer g.Exit()
	p.isr.PushTail(p.links, i)
}

// PopRunnable removes and returns the head of the runnable queue, or
// list.Nil if empty.
func (p *Pool) PopRunnable() list.Index {
	return p.runnable.PopHead(p.links)
}

// DrainISROne moves at most one slot from isr to runnable, bracketed
// around the isr pop only, per spec §4.6's "single-event-at-a-time
// drain is intentional: it bounds the time the interrupt is disabled."
// It reports whether a slot moved.
func (p *Pool) DrainISROne() bool {
	g := arch.Enter(p.arch)
	i := p.isr.PopHead(p.links)
	g.Exit()
	if i == list.Nil {
		return false
	}
	p.runnable.PushTail(p.links, i)
	return true
}

// LinkDelayed links slot i onto a caller-owned delayed-response list
// (a module or element context's Delayed field).
func (p *Pool) LinkDelayed(l *list.List, i list.Index) {
	l.PushTail(p.links, i)
}

// DelayedLen reports the length of a caller-owned delayed-response list.
// Delayed lists are only ever indices into this pool's own slot array,
// so only the pool can walk one.
func (p *Pool) DelayedLen(l *list.List) int {
	return l.Len(p.links)
}

// PopDelayed locates the slot in l whose Source and Cookie match, unlinks
// it, and returns it — spec §4.7's "locate... by matching (source_id,
// cookie)... remove it from that list."
func (p *Pool) PopDelayed(l *list.List, source ident.Id, cookie uint32) (list.Index, bool) {
	for cur := l.Head(); cur != list.Nil; cur = list.Next(p.links, cur) {
		if p.slots[cur].Source.Equal(source) && p.slots[cur].Cookie == cookie {
			l.Remove(p.links, cur)
			return cur, true
		}
	}
	return list.Nil, false
}
