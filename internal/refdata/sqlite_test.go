package refdata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeed() *SeedData {
	return &SeedData{
		UnitGroups: []SeedUnitGroup{
			{
				Name:            "Units of mass",
				DefaultProperty: "Mass",
				Units: []SeedUnit{
					{Symbol: "kg", Factor: 1},
					{Symbol: "g", Factor: 0.001},
					{Symbol: "t", Factor: 1000},
				},
			},
			{
				Name:            "Units of items",
				DefaultProperty: "Number of items",
				Units: []SeedUnit{
					{Symbol: "Item(s)", Factor: 1},
				},
			},
		},
		Flows: []SeedFlow{
			{Name: "Carbon dioxide", Type: "elementary", Category: "air/unspecified", Unit: "kg"},
			{Name: "Methane", Type: "elementary", Category: "air/unspecified", Unit: "kg"},
			{Name: "Steel", Type: "product", Unit: "kg", Location: "FI"},
		},
		Locations: []SeedLocation{
			{Name: "FI", Code: "FI"},
		},
	}
}

func openSeeded(t *testing.T) *SQLite {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "refdata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Seed(context.Background(), testSeed()))
	return store
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refdata.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestSeed_Idempotent(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	// Re-applying the same seed must not duplicate or conflict.
	require.NoError(t, store.Seed(ctx, testSeed()))

	groups, err := store.ListUnitGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestSeed_RejectsGroupWithoutReferenceUnit(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "refdata.db"))
	require.NoError(t, err)
	defer store.Close()

	err = store.Seed(context.Background(), &SeedData{
		UnitGroups: []SeedUnitGroup{{
			Name:            "Broken",
			DefaultProperty: "Mass",
			Units:           []SeedUnit{{Symbol: "g", Factor: 0.001}},
		}},
	})
	assert.Error(t, err)
}

func TestListUnitGroups(t *testing.T) {
	store := openSeeded(t)

	groups, err := store.ListUnitGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Stable name order: items before mass.
	assert.Equal(t, "Units of items", groups[0].Name)
	assert.Equal(t, "Units of mass", groups[1].Name)
	assert.Equal(t, "Mass", groups[1].DefaultProperty.Name)
	require.Len(t, groups[1].Units, 3)

	bySymbol := map[string]float64{}
	for _, u := range groups[1].Units {
		bySymbol[u.Symbol] = u.Factor
	}
	assert.Equal(t, map[string]float64{"kg": 1, "g": 0.001, "t": 1000}, bySymbol)
}

func TestFindFlows(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	t.Run("matches by name", func(t *testing.T) {
		candidates, err := store.FindFlows(ctx, FlowFilter{Type: Elementary, Name: "carbon"})
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "Carbon dioxide", candidates[0].Ref.Name)
		assert.Equal(t, "kg", candidates[0].RefUnit)
	})

	t.Run("matches by category", func(t *testing.T) {
		candidates, err := store.FindFlows(ctx, FlowFilter{Type: Elementary, Name: "air"})
		require.NoError(t, err)
		assert.Len(t, candidates, 2)
	})

	t.Run("scoped by flow type", func(t *testing.T) {
		candidates, err := store.FindFlows(ctx, FlowFilter{Type: Product, Name: "carbon"})
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})

	t.Run("location scopes non-elementary flows", func(t *testing.T) {
		candidates, err := store.FindFlows(ctx, FlowFilter{Type: Product, Name: "steel", Location: "FI"})
		require.NoError(t, err)
		require.Len(t, candidates, 1)

		candidates, err = store.FindFlows(ctx, FlowFilter{Type: Product, Name: "steel", Location: "DE"})
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})
}

func TestGetFlow(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	candidates, err := store.FindFlows(ctx, FlowFilter{Type: Elementary, Name: "carbon"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	flow, err := store.GetFlow(ctx, candidates[0].Ref.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carbon dioxide", flow.Name)
	assert.Equal(t, Elementary, flow.Type)
	assert.Equal(t, "Mass", flow.FlowProperty.Name)

	_, err = store.GetFlow(ctx, "no-such-id")
	assert.True(t, IsNotFound(err))
}

func TestCreateFlow_IdempotencyContract(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	flow := Flow{
		ID:           "f-new",
		Name:         "Sulfur dioxide",
		Type:         Elementary,
		Category:     "air/unspecified",
		FlowProperty: Ref{ID: "fp", Name: "Mass"},
		RefUnit:      "kg",
	}
	require.NoError(t, store.CreateFlow(ctx, flow))

	// Identical re-insert is a no-op.
	assert.NoError(t, store.CreateFlow(ctx, flow))

	// Different content under the same identity is rejected.
	conflicting := flow
	conflicting.Name = "Sulphur dioxide"
	err := store.CreateFlow(ctx, conflicting)
	require.Error(t, err)
	assert.True(t, IsRemoteWrite(err))
}

func TestLocations(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	loc, err := store.GetLocation(ctx, "fi")
	require.NoError(t, err, "location lookup is case-insensitive")
	assert.Equal(t, "FI", loc.Name)

	_, err = store.GetLocation(ctx, "Atlantis")
	assert.True(t, IsNotFound(err))

	require.NoError(t, store.CreateLocation(ctx, Location{ID: "loc-de", Name: "DE", Code: "DE"}))
	require.NoError(t, store.CreateLocation(ctx, Location{ID: "loc-de", Name: "DE", Code: "DE"}))

	err = store.CreateLocation(ctx, Location{ID: "loc-other", Name: "DE", Code: "DE"})
	require.Error(t, err)
	assert.True(t, IsRemoteWrite(err))
}

func TestProviderFor(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	_, err := store.ProviderFor(ctx, "f-anything")
	assert.True(t, IsNotFound(err))
}
