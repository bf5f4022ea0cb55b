// Package dispatch implements the dispatcher (spec §3/§4.5-§4.7, C6):
// put_event's full orchestration on top of pkg/event's pool primitives,
// and the process_next_event step that resolves a runnable slot to its
// target module and invokes the matching hook.
package dispatch

import (
	"github.com/scpfw/corefw/pkg/arch"
	"github.com/scpfw/corefw/pkg/event"
	"github.com/scpfw/corefw/pkg/fwerr"
	"github.com/scpfw/corefw/pkg/list"
	"github.com/scpfw/corefw/pkg/metrics"
	"github.com/scpfw/corefw/pkg/module"
)

// Dispatcher ties the event pool to the module table. It implements
// notify.Enqueuer, so a Broker can put_event without importing this
// package.
type Dispatcher struct {
	pool  *event.Pool
	table *module.Table
	arch  arch.Interface

	// strict enables the debug-build validity gates spec §4.5 describes
	// as optional: id range checks on every put_event call.
	strict bool

	current    event.Descriptor
	hasCurrent bool
}

// New returns a Dispatcher over pool and table, using ar to resolve
// HintAuto's interrupt-context query.
func New(pool *event.Pool, table *module.Table, ar arch.Interface, strict bool) *Dispatcher {
	return &Dispatcher{pool: pool, table: table, arch: ar, strict: strict}
}

// CurrentEvent returns the descriptor process_next_event is currently
// handling, per spec §4.6's "current_event" — valid only while a hook
// invoked from ProcessNextEvent is running.
func (d *Dispatcher) CurrentEvent() (event.Descriptor, bool) {
	return d.current, d.hasCurrent
}

// PutEvent is the single entry point every event, notification, and
// delayed-response completion is enqueued through (spec §4.5).
func (d *Dispatcher) PutEvent(req event.Request, hint event.Hint) (cookie uint32, code fwerr.Code) {
	if d.strict {
		counts := d.table.Counts()
		if err := req.ID.Validate(counts); err != nil {
			return 0, fwerr.InvalidParam
		}
		if err := req.Target.Validate(counts); err != nil {
			return 0, fwerr.InvalidParam
		}
	}

	if req.IsDelayedResponse {
		return d.completeDelayed(req, hint)
	}

	i, ok := d.pool.AcquireFreeSlot()
	if !ok {
		return 0, fwerr.NoMemory
	}
	desc := d.pool.Slot(i)
	desc.ID = req.ID
	desc.Source = req.Source
	desc.Target = req.Target
	desc.Params = req.Params
	desc.Flags = event.Flags{
		IsNotification:    req.IsNotification,
		ResponseRequested: req.ResponseRequested,
	}

	if !req.IsLight() {
		cookie = d.pool.AssignCookie()
		desc.Cookie = cookie
		metrics.CookiesIssuedTotal.Inc()
	}

	d.route(i, hint)
	return cookie, fwerr.Success
}

// completeDelayed locates the saved response descriptor a module stashed
// earlier via Response.MarkDelayed, keyed by (req.Source, req.Cookie) per
// spec §4.7, and re-enqueues it for delivery to its original caller.
func (d *Dispatcher) completeDelayed(req event.Request, hint event.Hint) (uint32, fwerr.Code) {
	dl, err := d.table.DelayedList(req.Source)
	if err != nil {
		return 0, fwerr.InvalidParam
	}
	i, ok := d.pool.PopDelayed(dl, req.Source, req.Cookie)
	if !ok {
		return 0, fwerr.InvalidState
	}
	desc := d.pool.Slot(i)
	desc.Params = req.Params
	d.route(i, hint)
	return req.Cookie, fwerr.Success
}

// route pushes i onto the isr queue or the runnable queue, resolving
// HintAuto via arch's own interrupt-context query.
func (d *Dispatcher) route(i list.Index, hint event.Hint) {
	interrupt := hint == event.HintInterruptContext ||
		(hint == event.HintAuto && d.arch != nil && d.arch.IsInInterruptContext())
	if interrupt {
		d.pool.PushISR(i)
		return
	}
	d.pool.PushRunnable(i)
}

// ProcessNextEvent pops one slot off the runnable queue and delivers it
// to its target module's ProcessEvent or ProcessNotification hook (spec
// §4.6), handling the three outcomes a hook can produce: an immediate
// response, a delayed response, or no response at all. It reports
// whether a slot was processed.
func (d *Dispatcher) ProcessNextEvent() bool {
	i := d.pool.PopRunnable()
	if i == list.Nil {
		return false
	}
	desc := d.pool.Slot(i)
	d.current = *desc
	d.hasCurrent = true
	defer func() { d.hasCurrent = false }()

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DispatchDuration)

	modIdx, ok := desc.Target.ModuleIdx()
	if !ok {
		d.pool.ReleaseSlot(i)
		metrics.DispatchedEventsTotal.WithLabelValues(fwerr.InvalidParam.String()).Inc()
		return true
	}
	ctx := d.table.Module(modIdx)
	if ctx == nil {
		d.pool.ReleaseSlot(i)
		metrics.DispatchedEventsTotal.WithLabelValues(fwerr.InvalidParam.String()).Inc()
		return true
	}

	resp := module.Response{
		ID:     desc.ID,
		Source: desc.Target,
		Target: desc.Source,
	}

	hook := ctx.Desc.Hooks.ProcessEvent
	if desc.Flags.IsNotification {
		hook = ctx.Desc.Hooks.ProcessNotification
	}

	code := fwerr.NoSupport
	if hook != nil {
		code = hook(ctx, desc, &resp)
	}
	metrics.DispatchedEventsTotal.WithLabelValues(code.String()).Inc()

	cookie := desc.Cookie
	responseRequested := desc.Flags.ResponseRequested

	switch {
	case resp.IsDelayed():
		dl, err := d.table.DelayedList(resp.Source)
		if err != nil {
			d.pool.ReleaseSlot(i)
			return true
		}
		*desc = event.Descriptor{
			ID:     resp.ID,
			Source: resp.Source,
			Target: resp.Target,
			Cookie: cookie,
			Params: resp.Params,
			Flags:  event.Flags{IsResponse: true},
		}
		d.pool.LinkDelayed(dl, i)
	case responseRequested && code == fwerr.Success:
		*desc = event.Descriptor{
			ID:     resp.ID,
			Source: resp.Source,
			Target: resp.Target,
			Cookie: cookie,
			Params: resp.Params,
			Flags:  event.Flags{IsResponse: true},
		}
		d.pool.PushRunnable(i)
	default:
		d.pool.ReleaseSlot(i)
	}
	return true
}

// RunUntilEmpty drains the runnable queue, pulling one slot at a time
// from the isr queue whenever runnable goes dry, until both are empty —
// spec §4.10's "process_next_event until none remain, then drain isr."
func (d *Dispatcher) RunUntilEmpty() {
	for {
		for d.ProcessNextEvent() {
		}
		if !d.pool.DrainISROne() {
			return
		}
	}
}
