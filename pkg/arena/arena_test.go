package arena_test

import (
	"testing"

	"github.com/scpfw/corefw/pkg/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	A uint32
	B uint64
}

func TestAllocFromIsZeroedAndAligned(t *testing.T) {
	a := arena.New(1024, nil)
	w := arena.AllocFrom[widget](a)
	require.NotNil(t, w)
	assert.Equal(t, uint32(0), w.A)
	assert.Equal(t, uint64(0), w.B)

	w.B = 42
	assert.Equal(t, uint64(42), w.B)
}

func TestAllocSliceFromIsContiguous(t *testing.T) {
	a := arena.New(1024, nil)
	ws := arena.AllocSliceFrom[widget](a, 8)
	require.Len(t, ws, 8)
	ws[3].A = 7
	assert.Equal(t, uint32(7), ws[3].A)
	assert.Equal(t, uint32(0), ws[4].A)
}

func TestExhaustionCallsHook(t *testing.T) {
	called := false
	a := arena.New(4, func(requested, available int) {
		called = true
	})
	buf := a.Alloc(1, 16, 1)
	assert.Nil(t, buf)
	assert.True(t, called)
}

func TestRemainingAccounting(t *testing.T) {
	a := arena.New(64, nil)
	assert.Equal(t, 64, a.Remaining())
	a.Alloc(1, 8, 8)
	assert.Equal(t, 56, a.Remaining())
}
