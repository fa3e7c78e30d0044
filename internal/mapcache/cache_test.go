package mapcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcatools/flowlink/internal/flowmap"
	"github.com/lcatools/flowlink/internal/refdata"
)

func co2Entry() flowmap.Entry {
	return flowmap.Entry{
		From: flowmap.ForElementary("Carbon dioxide").
			WithUnit("g").
			WithCategory("air/unspecified"),
		To: flowmap.Target{
			Flow:         flowmap.FlowRef{ID: "f-co2", Name: "Carbon dioxide", Category: "air/unspecified"},
			Unit:         refdata.Ref{ID: "u-kg"},
			FlowProperty: refdata.Ref{ID: "fp-mass"},
		},
		ConversionFactor: 0.001,
	}
}

func methaneEntry() flowmap.Entry {
	return flowmap.Entry{
		From: flowmap.ForElementary("Methane").
			WithUnit("kg").
			WithCategory("air/unspecified"),
		To: flowmap.Target{
			Flow:         flowmap.FlowRef{ID: "f-ch4", Name: "Methane", Category: "air/unspecified"},
			Unit:         refdata.Ref{ID: "u-kg"},
			FlowProperty: refdata.Ref{ID: "fp-mass"},
		},
		ConversionFactor: 1,
	}
}

func openTempCache(t *testing.T) (*Cache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mappings.csv")
	cache, err := Open(path)
	require.NoError(t, err)
	return cache, path
}

func TestOpen_MissingFileStartsEmpty(t *testing.T) {
	cache, path := openTempCache(t)
	assert.Equal(t, 0, cache.Len())

	// The file must exist afterwards so Puts have somewhere to land.
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestPutThenTryGet(t *testing.T) {
	cache, _ := openTempCache(t)
	entry := co2Entry()
	key := entry.From.Key()

	_, ok := cache.TryGet(key)
	assert.False(t, ok)

	require.NoError(t, cache.Put(key, entry))

	got, ok := cache.TryGet(key)
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestPut_SurvivesReload(t *testing.T) {
	cache, path := openTempCache(t)
	entry := co2Entry()
	require.NoError(t, cache.Put(entry.From.Key(), entry))

	reloaded, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Len())

	got, ok := reloaded.TryGet(entry.From.Key())
	require.True(t, ok)
	assert.Equal(t, entry, got, "decoded form must equal what was persisted")
}

func TestPut_SameKeyLastWriteWins(t *testing.T) {
	cache, _ := openTempCache(t)
	entry := co2Entry()
	key := entry.From.Key()
	require.NoError(t, cache.Put(key, entry))

	updated := entry
	updated.To.Provider = refdata.Ref{ID: "p-1"}
	require.NoError(t, cache.Put(key, updated))

	got, _ := cache.TryGet(key)
	assert.Equal(t, updated, got)
	assert.Equal(t, 1, cache.Len(), "no duplicate entries for one key")
}

func TestOpen_MalformedRowFailsFast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.csv")
	require.NoError(t, os.WriteFile(path, []byte("not,a,mapping,row\n"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, flowmap.IsParseError(err))
	assert.Contains(t, err.Error(), "row 1")
}

func TestOpen_BadFactorNamesRowNumber(t *testing.T) {
	cache, path := openTempCache(t)
	require.NoError(t, cache.Put(co2Entry().From.Key(), co2Entry()))
	require.NoError(t, cache.Put(methaneEntry().From.Key(), methaneEntry()))

	// Corrupt the factor column of the second row.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	corrupted := []byte(string(raw[:len(raw)-2]) + "oops\n")
	require.NoError(t, os.WriteFile(path, corrupted, 0o644))

	_, err = Open(path)
	require.Error(t, err)
	assert.True(t, flowmap.IsParseError(err))
	assert.Contains(t, err.Error(), "row 2")
}

func TestPut_ConcurrentDistinctKeys(t *testing.T) {
	cache, path := openTempCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry := co2Entry()
			entry.From = flowmap.ForElementary(fmt.Sprintf("Flow %02d", i)).
				WithUnit("kg").
				WithCategory("air/unspecified")
			entry.ConversionFactor = 1
			assert.NoError(t, cache.Put(entry.From.Key(), entry))
		}(i)
	}
	wg.Wait()

	reloaded, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 16, reloaded.Len(), "no row may be lost or corrupted")
}

func TestMappingFileFormat_Golden(t *testing.T) {
	cache, path := openTempCache(t)
	require.NoError(t, cache.Put(co2Entry().From.Key(), co2Entry()))
	require.NoError(t, cache.Put(methaneEntry().From.Key(), methaneEntry()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "mapping_file", raw)
}
