package vectorindex

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchEmptySource(t *testing.T) {
	ix := New()
	assert.Empty(t, ix.Search([]float32{1, 0}, 3, "missing"))

	require.NoError(t, ix.Add([]Entry{{ChunkID: "c1", SourceID: "a", Vector: []float32{1, 0}}}))
	assert.Empty(t, ix.Search([]float32{1, 0}, 3, "missing"))
}

func TestSearchSourceIsolation(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add([]Entry{
		{ChunkID: "a1", SourceID: "a", Text: "alpha", Vector: []float32{1, 0}},
		{ChunkID: "b1", SourceID: "b", Text: "beta", Vector: []float32{1, 0}},
		{ChunkID: "a2", SourceID: "a", Text: "alpha two", Vector: []float32{0, 1}},
	}))

	results := ix.Search([]float32{1, 0}, 10, "a")
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "a", r.SourceID)
	}
}

func TestSearchDescendingOrder(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add([]Entry{
		{ChunkID: "far", SourceID: "s", Vector: []float32{0, 1, 0}},
		{ChunkID: "near", SourceID: "s", Vector: []float32{1, 0.1, 0}},
		{ChunkID: "mid", SourceID: "s", Vector: []float32{1, 1, 0}},
	}))

	results := ix.Search([]float32{1, 0, 0}, 3, "s")
	require.Len(t, results, 3)
	assert.Equal(t, "near", results[0].ChunkID)
	assert.Equal(t, "mid", results[1].ChunkID)
	assert.Equal(t, "far", results[2].ChunkID)
	assert.GreaterOrEqual(t, results[0].Score, results[2].Score)
}

func TestSearchStableTieBreak(t *testing.T) {
	ix := New()
	// Identical vectors: scores tie exactly, insertion order must hold.
	require.NoError(t, ix.Add([]Entry{
		{ChunkID: "first", SourceID: "s", Vector: []float32{1, 1}},
		{ChunkID: "second", SourceID: "s", Vector: []float32{1, 1}},
		{ChunkID: "third", SourceID: "s", Vector: []float32{1, 1}},
	}))

	results := ix.Search([]float32{1, 1}, 3, "s")
	require.Len(t, results, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{results[0].ChunkID, results[1].ChunkID, results[2].ChunkID})
}

func TestSearchFewerEntriesThanTopK(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add([]Entry{
		{ChunkID: "only", SourceID: "s", Vector: []float32{1, 0}},
	}))
	results := ix.Search([]float32{1, 0}, 5, "s")
	assert.Len(t, results, 1)
}

func TestSearchDefaultTopK(t *testing.T) {
	ix := New()
	var entries []Entry
	for i := 0; i < 20; i++ {
		entries = append(entries, Entry{
			ChunkID:  fmt.Sprintf("c%d", i),
			SourceID: "s",
			Vector:   []float32{1, float32(i)},
		})
	}
	require.NoError(t, ix.Add(entries))
	assert.Len(t, ix.Search([]float32{1, 0}, 0, "s"), DefaultTopK)
}

func TestAddDimensionMismatch(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add([]Entry{{ChunkID: "c1", SourceID: "s", Vector: []float32{1, 0, 0}}}))
	err := ix.Add([]Entry{{ChunkID: "c2", SourceID: "s", Vector: []float32{1, 0}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")

	err = ix.Add([]Entry{{ChunkID: "c3", SourceID: "s"}})
	require.Error(t, err)
	assert.Equal(t, 3, ix.Dimensions())
}

func TestAddFailureLeavesIndexUnchanged(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add([]Entry{{ChunkID: "seed", SourceID: "s", Vector: []float32{1, 0, 0}}}))

	// A batch with a bad trailing entry must not land its earlier entries.
	err := ix.Add([]Entry{
		{ChunkID: "good", SourceID: "s", Vector: []float32{0, 1, 0}},
		{ChunkID: "bad", SourceID: "s", Vector: []float32{1, 0}},
	})
	require.Error(t, err)
	assert.Equal(t, 1, ix.Count("s"))

	results := ix.Search([]float32{0, 1, 0}, 10, "s")
	require.Len(t, results, 1)
	assert.Equal(t, "seed", results[0].ChunkID)
}

func TestAddFailureOnEmptyIndexSetsNothing(t *testing.T) {
	ix := New()
	err := ix.Add([]Entry{
		{ChunkID: "a", SourceID: "s", Vector: []float32{1, 0}},
		{ChunkID: "b", SourceID: "s", Vector: []float32{1, 0, 0}},
	})
	require.Error(t, err)
	assert.Zero(t, ix.Count("s"))
	assert.Zero(t, ix.Dimensions())
}

func TestTextsInsertionOrder(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add([]Entry{
		{ChunkID: "c1", SourceID: "s", Text: "first", Vector: []float32{1, 0}},
		{ChunkID: "c2", SourceID: "s", Text: "second", Vector: []float32{0, 1}},
		{ChunkID: "x1", SourceID: "other", Text: "elsewhere", Vector: []float32{1, 1}},
	}))
	assert.Equal(t, []string{"first", "second"}, ix.Texts("s"))
	assert.Empty(t, ix.Texts("missing"))
}

func TestDelete(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add([]Entry{
		{ChunkID: "a1", SourceID: "a", Vector: []float32{1, 0}},
		{ChunkID: "b1", SourceID: "b", Vector: []float32{0, 1}},
	}))

	ix.Delete("a")
	assert.Zero(t, ix.Count("a"))
	assert.Empty(t, ix.Search([]float32{1, 0}, 3, "a"))
	assert.Equal(t, 1, ix.Count("b"))
	assert.Equal(t, []string{"b"}, ix.Sources())
}

func TestNormalizationGivesCosine(t *testing.T) {
	ix := New()
	// Same direction, different magnitudes: cosine similarity is 1 for both.
	require.NoError(t, ix.Add([]Entry{
		{ChunkID: "small", SourceID: "s", Vector: []float32{0.1, 0}},
		{ChunkID: "large", SourceID: "s", Vector: []float32{100, 0}},
	}))
	results := ix.Search([]float32{42, 0}, 2, "s")
	require.Len(t, results, 2)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.InDelta(t, 1.0, results[1].Score, 1e-6)
	// Ties resolved by insertion order.
	assert.Equal(t, "small", results[0].ChunkID)
}

func TestConcurrentSearchDuringAdd(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add([]Entry{{ChunkID: "seed", SourceID: "s", Vector: []float32{1, 0}}}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if n%2 == 0 {
					_ = ix.Add([]Entry{{
						ChunkID:  fmt.Sprintf("c-%d-%d", n, j),
						SourceID: "s",
						Vector:   []float32{1, float32(j)},
					}})
				} else {
					_ = ix.Search([]float32{1, 0}, 3, "s")
				}
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1+4*50, ix.Count("s"))
}
