package dispatch_test

import (
	"testing"

	"github.com/scpfw/corefw/pkg/arch"
	"github.com/scpfw/corefw/pkg/arena"
	"github.com/scpfw/corefw/pkg/dispatch"
	"github.com/scpfw/corefw/pkg/event"
	"github.com/scpfw/corefw/pkg/fwerr"
	"github.com/scpfw/corefw/pkg/ident"
	"github.com/scpfw/corefw/pkg/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T, capacity int) (*event.Pool, *module.Table, *arch.Sim) {
	t.Helper()
	a := arena.New(1<<16, nil)
	sim := arch.NewSim()
	pool := event.NewPool(a, capacity, sim)
	tbl := module.NewTable(a, 2)
	return pool, tbl, sim
}

// TestSimpleRoundTrip covers S1: a module puts an event to another
// module, which answers immediately.
func TestSimpleRoundTrip(t *testing.T) {
	pool, tbl, sim := newFixture(t, 8)

	var got event.Params
	tbl.Register(module.Descriptor{
		Name:       "responder",
		EventCount: 1,
		Hooks: module.Hooks{
			ProcessEvent: func(ctx *module.ModuleContext, ev *event.Descriptor, resp *module.Response) fwerr.Code {
				got = ev.Params
				resp.Params[0] = 0x42
				return fwerr.Success
			},
		},
	}, module.Config{})
	tbl.Register(module.Descriptor{
		Name: "caller",
		Hooks: module.Hooks{
			ProcessEvent: func(ctx *module.ModuleContext, ev *event.Descriptor, resp *module.Response) fwerr.Code {
				return fwerr.Success
			},
		},
	}, module.Config{})

	require.NoError(t, tbl.Boot())
	d := dispatch.New(pool, tbl, sim, true)

	req := event.Request{
		ID:                ident.Event(0, 0),
		Source:             ident.Module(1),
		Target:             ident.Module(0),
		ResponseRequested: true,
	}
	req.Params[0] = 0x11
	cookie, code := d.PutEvent(req, event.HintMainContext)
	require.Equal(t, fwerr.Success, code)
	require.NotZero(t, cookie)

	d.RunUntilEmpty()
	assert.Equal(t, byte(0x11), got[0])
	assert.Equal(t, 0, pool.RunnableCount())
	assert.Equal(t, 8, pool.FreeCount())
}

// TestDelayedResponse covers S2: a hook marks its response delayed, then
// the module later completes it out of band.
func TestDelayedResponse(t *testing.T) {
	pool, tbl, sim := newFixture(t, 8)

	tbl.Register(module.Descriptor{
		Name: "slow",
		Hooks: module.Hooks{
			ProcessEvent: func(ctx *module.ModuleContext, ev *event.Descriptor, resp *module.Response) fwerr.Code {
				resp.MarkDelayed()
				return fwerr.Pending
			},
		},
	}, module.Config{})
	tbl.Register(module.Descriptor{Name: "caller"}, module.Config{})
	require.NoError(t, tbl.Boot())

	d := dispatch.New(pool, tbl, sim, false)

	req := event.Request{
		ID:                ident.Event(0, 0),
		Source:             ident.Module(1),
		Target:             ident.Module(0),
		ResponseRequested: true,
	}
	cookie, code := d.PutEvent(req, event.HintMainContext)
	require.Equal(t, fwerr.Success, code)
	d.RunUntilEmpty()

	// Neither returned to caller nor freed yet: it's parked on module 0's
	// own delayed list.
	assert.Equal(t, 0, pool.RunnableCount())
	assert.Less(t, pool.FreeCount(), 8)

	completion := event.Request{
		Source:            ident.Module(0),
		Cookie:            cookie,
		IsDelayedResponse: true,
	}
	completion.Params[0] = 0x99
	_, code = d.PutEvent(completion, event.HintMainContext)
	require.Equal(t, fwerr.Success, code)
	assert.Equal(t, 1, pool.RunnableCount())
}

// TestISRPostedEventDrains covers S3: an event posted with an interrupt
// hint lands on the isr queue and only moves to runnable via RunUntilEmpty's
// DrainISROne step.
func TestISRPostedEventDrains(t *testing.T) {
	pool, tbl, sim := newFixture(t, 8)
	handled := false
	tbl.Register(module.Descriptor{
		Name: "m0",
		Hooks: module.Hooks{
			ProcessEvent: func(ctx *module.ModuleContext, ev *event.Descriptor, resp *module.Response) fwerr.Code {
				handled = true
				return fwerr.Success
			},
		},
	}, module.Config{})
	require.NoError(t, tbl.Boot())

	d := dispatch.New(pool, tbl, sim, false)
	req := event.Request{ID: ident.Event(0, 0), Source: ident.Module(0), Target: ident.Module(0)}
	_, code := d.PutEvent(req, event.HintInterruptContext)
	require.Equal(t, fwerr.Success, code)
	assert.Equal(t, 1, pool.ISRCount())
	assert.Equal(t, 0, pool.RunnableCount())

	d.RunUntilEmpty()
	assert.True(t, handled)
}

// TestPoolExhaustionReturnsNoMemory covers S6.
func TestPoolExhaustionReturnsNoMemory(t *testing.T) {
	pool, tbl, sim := newFixture(t, 1)
	tbl.Register(module.Descriptor{Name: "m0"}, module.Config{})
	require.NoError(t, tbl.Boot())

	d := dispatch.New(pool, tbl, sim, false)
	req := event.Request{ID: ident.Event(0, 0), Source: ident.Module(0), Target: ident.Module(0)}
	_, code1 := d.PutEvent(req, event.HintMainContext)
	_, code2 := d.PutEvent(req, event.HintMainContext)
	assert.Equal(t, fwerr.Success, code1)
	assert.Equal(t, fwerr.NoMemory, code2)
}
