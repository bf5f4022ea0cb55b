package event_test

import (
	"testing"

	"github.com/scpfw/corefw/pkg/arch"
	"github.com/scpfw/corefw/pkg/arena"
	"github.com/scpfw/corefw/pkg/event"
	"github.com/scpfw/corefw/pkg/ident"
	"github.com/scpfw/corefw/pkg/list"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPool(t *testing.T, capacity int) *event.Pool {
	t.Helper()
	a := arena.New(1<<16, nil)
	sim := arch.NewSim()
	return event.NewPool(a, capacity, sim)
}

func TestPoolStartsFull(t *testing.T) {
	p := newPool(t, 8)
	assert.Equal(t, 8, p.FreeCount())
	assert.Equal(t, 0, p.RunnableCount())
	assert.Equal(t, 0, p.ISRCount())
}

func TestAcquireAndReleaseRoundTrips(t *testing.T) {
	p := newPool(t, 2)
	i, ok := p.AcquireFreeSlot()
	require.True(t, ok)
	assert.Equal(t, 1, p.FreeCount())

	p.ReleaseSlot(i)
	assert.Equal(t, 2, p.FreeCount())
}

func TestPoolExhaustion(t *testing.T) {
	p := newPool(t, 2)
	_, ok1 := p.AcquireFreeSlot()
	_, ok2 := p.AcquireFreeSlot()
	_, ok3 := p.AcquireFreeSlot()
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.False(t, ok3)
}

func TestDrainISROneMovesExactlyOne(t *testing.T) {
	p := newPool(t, 4)
	a, _ := p.AcquireFreeSlot()
	b, _ := p.AcquireFreeSlot()
	p.PushISR(a)
	p.PushISR(b)

	moved := p.DrainISROne()
	assert.True(t, moved)
	assert.Equal(t, 1, p.RunnableCount())
	assert.Equal(t, 1, p.ISRCount())

	moved = p.DrainISROne()
	assert.True(t, moved)
	assert.Equal(t, 2, p.RunnableCount())
	assert.Equal(t, 0, p.ISRCount())

	assert.False(t, p.DrainISROne())
}

func TestDelayedResponseRoundTrip(t *testing.T) {
	p := newPool(t, 4)
	i, _ := p.AcquireFreeSlot()
	d := p.Slot(i)
	d.Source = ident.Element(1, 0)
	d.Cookie = 42
	d.Params[0] = 0xAA

	delayed := list.New()
	p.LinkDelayed(&delayed, i)

	found, ok := p.PopDelayed(&delayed, ident.Element(1, 0), 42)
	require.True(t, ok)
	assert.Equal(t, i, found)

	_, ok = p.PopDelayed(&delayed, ident.Element(1, 0), 42)
	assert.False(t, ok)
}
