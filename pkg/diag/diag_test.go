package diag_test

import (
	"testing"

	"github.com/scpfw/corefw/pkg/arch"
	"github.com/scpfw/corefw/pkg/arena"
	"github.com/scpfw/corefw/pkg/diag"
	"github.com/scpfw/corefw/pkg/event"
	"github.com/scpfw/corefw/pkg/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPassesOnFreshPool(t *testing.T) {
	a := arena.New(1<<16, nil)
	pool := event.NewPool(a, 8, arch.NewSim())
	tbl := module.NewTable(a, 2)
	tbl.Register(module.Descriptor{Name: "m0"}, module.Config{
		Elements: []module.ElementDesc{{Name: "e0"}},
	})
	require.NoError(t, tbl.Boot())

	assert.NoError(t, diag.Check(pool, tbl))
}

func TestCheckAccountsForAcquiredSlots(t *testing.T) {
	a := arena.New(1<<16, nil)
	pool := event.NewPool(a, 4, arch.NewSim())
	tbl := module.NewTable(a, 2)
	tbl.Register(module.Descriptor{Name: "m0"}, module.Config{})
	require.NoError(t, tbl.Boot())

	i, ok := pool.AcquireFreeSlot()
	require.True(t, ok)
	pool.PushRunnable(i)

	assert.NoError(t, diag.Check(pool, tbl))
}
