package runtime_test

import (
	"testing"

	"github.com/scpfw/corefw/pkg/arch"
	"github.com/scpfw/corefw/pkg/arena"
	"github.com/scpfw/corefw/pkg/dispatch"
	"github.com/scpfw/corefw/pkg/event"
	"github.com/scpfw/corefw/pkg/fwerr"
	"github.com/scpfw/corefw/pkg/ident"
	"github.com/scpfw/corefw/pkg/module"
	"github.com/scpfw/corefw/pkg/runtime"
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

func TestBootFailurePropagates(t *testing.T) {
	pool, tbl, sim := newFixture(t, 4)
	tbl.Register(module.Descriptor{
		Name: "broken",
		Hooks: module.Hooks{
			Init: func(ctx *module.ModuleContext, elementCount int, config any) fwerr.Code {
				return fwerr.InitError
			},
		},
	}, module.Config{})

	d := dispatch.New(pool, tbl, sim, false)
	rt := runtime.New(pool, tbl, d, nil, sim, nil)

	err := rt.Boot()
	require.Error(t, err)
}

func TestStepDeliversAndReportsIdle(t *testing.T) {
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
	rt := runtime.New(pool, tbl, d, nil, sim, nil)

	req := event.Request{ID: ident.Event(0, 0), Source: ident.Module(0), Target: ident.Module(0)}
	_, code := d.PutEvent(req, event.HintMainContext)
	require.Equal(t, fwerr.Success, code)

	idle := rt.Step()
	assert.True(t, handled)
	assert.True(t, idle)
}

func TestRunStopsOnClosedChannel(t *testing.T) {
	pool, tbl, sim := newFixture(t, 8)
	tbl.Register(module.Descriptor{Name: "m0"}, module.Config{})
	require.NoError(t, tbl.Boot())

	d := dispatch.New(pool, tbl, sim, false)
	rt := runtime.New(pool, tbl, d, nil, sim, nil)

	stop := make(chan struct{})
	close(stop)

	done := make(chan struct{})
	go func() {
		rt.Run(stop)
		close(done)
	}()
	<-done
}
