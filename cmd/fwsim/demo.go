package main

import (
	"github.com/scpfw/corefw/pkg/arch"
	"github.com/scpfw/corefw/pkg/arena"
	"github.com/scpfw/corefw/pkg/dispatch"
	"github.com/scpfw/corefw/pkg/event"
	"github.com/scpfw/corefw/pkg/fwerr"
	"github.com/scpfw/corefw/pkg/ident"
	"github.com/scpfw/corefw/pkg/log"
	"github.com/scpfw/corefw/pkg/module"
	"github.com/scpfw/corefw/pkg/notify"
	"github.com/scpfw/corefw/pkg/runtime"
)

// Module indices for the demo table. Fixed and small enough to spell
// out rather than look up by name.
const (
	demoModEcho = iota
	demoModCaller
	demoModNotifier
	demoModSubA
	demoModSubB
	demoModSubC
)

// demoCore bundles everything a harness command needs to boot and
// drive the demo table: the pool/table/dispatcher/broker that make up
// one runtime, plus the simulated arch so a command can inject IRQs.
type demoCore struct {
	pool    *event.Pool
	table   *module.Table
	dispatcher *dispatch.Dispatcher
	broker  *notify.Broker
	sim     *arch.Sim
	rt      *runtime.Runtime

	responses *notify.ResponseCounter
	delayedCookie uint32
}

// buildDemoCore wires a pool-capacity-slot pool, a six-module demo
// table, a dispatcher, and a notification broker, and registers an IRQ
// handler (irqCompleteEcho) that completes module 0's delayed response
// — the same shape S2 describes, triggered by a simulated interrupt
// instead of a second CLI invocation in the same process.
func buildDemoCore(capacity int, strict bool) *demoCore {
	a := arena.New(1<<20, nil)
	sim := arch.NewSim()
	pool := event.NewPool(a, capacity, sim)
	tbl := module.NewTable(a, 2)

	c := &demoCore{pool: pool, table: tbl, sim: sim}

	tbl.Register(module.Descriptor{
		Name:       "echo",
		Type:       module.TypeService,
		EventCount: 2,
		Hooks: module.Hooks{
			ProcessEvent: func(ctx *module.ModuleContext, ev *event.Descriptor, resp *module.Response) fwerr.Code {
				modIdx, eventIdx, _ := ev.ID.Event()
				_ = modIdx
				if eventIdx == 1 {
					// Delayed variant (S2): stash the cookie for irqCompleteEcho
					// and answer later, out of band.
					log.WithElement("echo", "line").Debug().
						Uint32("cookie", ev.Cookie).
						Msg("delaying response until irqCompleteEcho runs")
					c.delayedCookie = ev.Cookie
					resp.MarkDelayed()
					return fwerr.Pending
				}
				for i := 0; i < event.MaxParams/2; i++ {
					resp.Params[i] = ev.Params[event.MaxParams/2-1-i]
				}
				return fwerr.Success
			},
		},
	}, module.Config{Elements: []module.ElementDesc{{Name: "line"}}})

	tbl.Register(module.Descriptor{
		Name: "caller",
		Hooks: module.Hooks{
			Bind: func(ctx *module.ModuleContext, id ident.Id, round int) fwerr.Code {
				if round != 0 {
					return fwerr.Success
				}
				if _, code := tbl.RequestAPI(id, ident.API(demoModNotifier, 0)); code != fwerr.Success {
					log.Logger.Warn().Str("code", code.String()).Msg("demo: caller bind to notifier's API failed")
				}
				return fwerr.Success
			},
			ProcessEvent: func(ctx *module.ModuleContext, ev *event.Descriptor, resp *module.Response) fwerr.Code {
				log.WithEvent(ev.ID.String(), ev.Cookie).Info().
					Bool("is_response", ev.Flags.IsResponse).
					Msg("received response from echo")
				return fwerr.Success
			},
		},
	}, module.Config{})

	tbl.Register(module.Descriptor{
		Name:              "notifier",
		NotificationCount: 1,
		APICount:          1,
		Hooks: module.Hooks{
			ProcessBindRequest: func(ctx *module.ModuleContext, sourceID, targetID ident.Id, apiIdx int) (any, fwerr.Code) {
				return struct{}{}, fwerr.Success
			},
			Start: func(ctx *module.ModuleContext, id ident.Id) fwerr.Code {
				// S5: binding is only legal during PhaseBinding. Attempting it
				// here, from Start, must come back access_denied and must not
				// mutate any module state.
				if _, code := tbl.RequestAPI(id, ident.API(demoModNotifier, 0)); code != fwerr.AccessDenied {
					log.Logger.Warn().Str("code", code.String()).Msg("demo: expected access_denied binding from start, got something else")
				}
				return fwerr.Success
			},
			ProcessEvent: func(ctx *module.ModuleContext, ev *event.Descriptor, resp *module.Response) fwerr.Code {
				if c.responses != nil && c.responses.OnResponse() {
					log.WithModule("notifier").Info().Msg("all subscriber responses received")
				}
				return fwerr.Success
			},
		},
	}, module.Config{})

	for _, name := range []string{"sub-a", "sub-b", "sub-c"} {
		tbl.Register(module.Descriptor{
			Name: name,
			Hooks: module.Hooks{
				Bind: func(ctx *module.ModuleContext, id ident.Id, round int) fwerr.Code {
					if round != 0 {
						return fwerr.Success
					}
					c.broker.Subscribe(ident.Notification(demoModNotifier, 0), ident.Module(demoModNotifier), id)
					return fwerr.Success
				},
				ProcessNotification: func(ctx *module.ModuleContext, ev *event.Descriptor, resp *module.Response) fwerr.Code {
					return fwerr.Success
				},
			},
		}, module.Config{})
	}

	d := dispatch.New(pool, tbl, sim, strict)
	c.dispatcher = d
	c.broker = notify.NewBroker(a, 16, d)
	c.rt = runtime.New(pool, tbl, d, c.broker, sim, nil)

	sim.SetISR(arch.IRQ(0), c.irqCompleteEcho)
	return c
}

// irqCompleteEcho is the ISR bound to IRQ 0: it completes module 0's
// delayed response, per spec §4.7's "the real answer arrives later via
// a put_event call carrying is_delayed_response." It runs in interrupt
// context, so put_event is called with HintInterruptContext.
func (c *demoCore) irqCompleteEcho(irq arch.IRQ) {
	if c.delayedCookie == 0 {
		return
	}
	log.WithCookie(c.delayedCookie).Debug().Msg("completing delayed echo response from ISR")
	req := event.Request{
		Source:            ident.Element(demoModEcho, 0),
		Cookie:            c.delayedCookie,
		IsDelayedResponse: true,
	}
	req.Params[0] = 0x99
	if _, code := c.dispatcher.PutEvent(req, event.HintInterruptContext); code != fwerr.Success {
		log.Logger.Error().Str("code", code.String()).Msg("demo: failed to complete delayed echo response")
	}
	c.delayedCookie = 0
}

// fireEchoImmediate enqueues S1's simple round trip: caller -> echo,
// reversed params back.
func (c *demoCore) fireEchoImmediate() (uint32, fwerr.Code) {
	req := event.Request{
		ID:                ident.Event(demoModEcho, 0),
		Source:            ident.Module(demoModCaller),
		Target:            ident.Element(demoModEcho, 0),
		ResponseRequested: true,
	}
	req.Params[0], req.Params[1], req.Params[2], req.Params[3] = 1, 2, 3, 4
	return c.dispatcher.PutEvent(req, event.HintMainContext)
}

// fireEchoDelayed enqueues S2's delayed variant: the response doesn't
// arrive until irqCompleteEcho runs.
func (c *demoCore) fireEchoDelayed() (uint32, fwerr.Code) {
	req := event.Request{
		ID:                ident.Event(demoModEcho, 1),
		Source:            ident.Module(demoModCaller),
		Target:            ident.Element(demoModEcho, 0),
		ResponseRequested: true,
	}
	return c.dispatcher.PutEvent(req, event.HintMainContext)
}

// fireNotification drives S4: the notifier fans out to its three
// subscribers and tracks their responses.
func (c *demoCore) fireNotification() (int, fwerr.Code) {
	var params event.Params
	count, code := c.broker.Notify(ident.Notification(demoModNotifier, 0), ident.Module(demoModNotifier), params, true)
	if code == fwerr.Success && count > 0 {
		c.responses = notify.NewResponseCounter(count)
	}
	return count, code
}
