package ident_test

import (
	"testing"

	"github.com/scpfw/corefw/pkg/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsRoundTrip(t *testing.T) {
	id := ident.Element(2, 3)
	m, e, ok := id.Element()
	require.True(t, ok)
	assert.Equal(t, 2, m)
	assert.Equal(t, 3, e)

	_, _, ok = id.API()
	assert.False(t, ok)
}

func TestEqualityIsKindScoped(t *testing.T) {
	assert.True(t, ident.None.Equal(ident.None))
	assert.False(t, ident.Module(0).Equal(ident.Element(0, 0)))
	assert.True(t, ident.Module(1).Equal(ident.Module(1)))
}

func TestValidateBounds(t *testing.T) {
	counts := ident.Counts{
		ModuleCount:  2,
		ElementCount: []int{1, 2},
		EventCount:   []int{1, 1},
	}

	assert.NoError(t, ident.Element(1, 1).Validate(counts))
	assert.Error(t, ident.Element(1, 2).Validate(counts))
	assert.Error(t, ident.Module(5).Validate(counts))
	assert.NoError(t, ident.None.Validate(counts))
}

func TestSubElementOwner(t *testing.T) {
	id := ident.SubElement(0, 4, 7)
	elem, ok := id.ElementOwnerIdx()
	require.True(t, ok)
	assert.Equal(t, 4, elem)
}
