package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcatools/flowlink/internal/refdata"
)

func massGroup() refdata.UnitGroup {
	return refdata.UnitGroup{
		ID:              "ug-mass",
		Name:            "Units of mass",
		DefaultProperty: refdata.Ref{ID: "fp-mass", Name: "Mass"},
		Units: []refdata.Unit{
			{ID: "u-kg", Symbol: "kg", Factor: 1},
			{ID: "u-g", Symbol: "g", Factor: 0.001},
			{ID: "u-t", Symbol: "t", Factor: 1000},
		},
	}
}

func countGroup() refdata.UnitGroup {
	return refdata.UnitGroup{
		ID:              "ug-items",
		Name:            "Units of items",
		DefaultProperty: refdata.Ref{ID: "fp-items", Name: "Number of items"},
		Units: []refdata.Unit{
			{ID: "u-item", Symbol: "Item(s)", Factor: 1},
		},
	}
}

func buildIndex(t *testing.T, groups ...refdata.UnitGroup) *Index {
	t.Helper()
	ix, err := Build(context.Background(), refdata.NewMemStore(groups...))
	require.NoError(t, err)
	return ix
}

func TestBuild_IndexesEveryUnit(t *testing.T) {
	ix := buildIndex(t, massGroup(), countGroup())
	assert.Equal(t, 4, ix.Len())

	tons, err := ix.EntryOf("t")
	require.NoError(t, err)
	assert.Equal(t, "Units of mass", tons.UnitGroup.Name)
	assert.Equal(t, "Mass", tons.FlowProperty.Name)
	assert.Equal(t, 1000.0, tons.Factor)
}

func TestEntryOf_UnknownSymbolIsNotFound(t *testing.T) {
	ix := buildIndex(t, massGroup())

	_, err := ix.EntryOf("lightyear")
	require.Error(t, err)
	assert.True(t, refdata.IsNotFound(err))
}

func TestEntryOf_CaseSensitiveSymbols(t *testing.T) {
	ix := buildIndex(t, massGroup())

	_, err := ix.EntryOf("KG")
	assert.True(t, refdata.IsNotFound(err), "symbols are canonical, not case-folded")
}

func TestFactorBetween(t *testing.T) {
	ix := buildIndex(t, massGroup(), countGroup())

	cases := []struct {
		name string
		from string
		to   string
		want float64
	}{
		{"same unit is exactly one", "kg", "kg", 1.0},
		{"gram to kilogram", "g", "kg", 0.001},
		{"ton to gram", "t", "g", 1e6},
		{"kilogram to ton", "kg", "t", 0.001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			factor, err := ix.FactorBetween(tc.from, tc.to)
			require.NoError(t, err)
			assert.InEpsilon(t, tc.want, factor, 1e-12)
		})
	}
}

func TestFactorBetween_CrossGroupMismatch(t *testing.T) {
	ix := buildIndex(t, massGroup(), countGroup())

	_, err := ix.FactorBetween("kg", "Item(s)")
	require.Error(t, err)
	assert.True(t, IsMismatch(err))
	assert.Contains(t, err.Error(), "UNIT_MISMATCH")
}

func TestBuild_DuplicateSymbolFirstGroupWins(t *testing.T) {
	other := refdata.UnitGroup{
		ID:              "ug-other",
		Name:            "Other group",
		DefaultProperty: refdata.Ref{ID: "fp-other", Name: "Other"},
		Units:           []refdata.Unit{{ID: "u-other-kg", Symbol: "kg", Factor: 7}},
	}
	ix := buildIndex(t, massGroup(), other)

	entry, err := ix.EntryOf("kg")
	require.NoError(t, err)
	assert.Equal(t, "ug-mass", entry.UnitGroup.ID)
	assert.Equal(t, 1.0, entry.Factor)
}
