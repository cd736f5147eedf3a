package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// DefaultTopK is used when a search asks for a non-positive result count.
const DefaultTopK = 5

// Entry binds an embedding vector to enough metadata to recover its chunk.
type Entry struct {
	ChunkID  string
	SourceID string
	Text     string
	Vector   []float32
}

// Result is a search hit ordered by descending similarity.
type Result struct {
	ChunkID  string
	SourceID string
	Text     string
	Score    float64
}

// Index is an in-memory vector index partitioned by source. Vectors
// are L2-normalized on insert so cosine similarity reduces to a dot
// product. Writers take the lock exclusively; searches share it.
type Index struct {
	mu       sync.RWMutex
	dims     int
	bySource map[string][]stored
}

type stored struct {
	chunkID string
	text    string
	vec     []float32
}

// New creates an empty index. The dimension is fixed by the first
// entry added; all later entries must match it.
func New() *Index {
	return &Index{bySource: make(map[string][]stored)}
}

// Add appends entries to the index. The whole batch is validated
// before any entry lands, so a failed Add leaves the index unchanged.
// Entries are appended in order, so insertion order is the tie-break
// for equal scores. Add does not deduplicate chunk IDs; callers check
// for an existing source before re-ingesting.
func (ix *Index) Add(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	dims := ix.dims
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("entry %s: empty vector", e.ChunkID)
		}
		if dims == 0 {
			dims = len(e.Vector)
		}
		if len(e.Vector) != dims {
			return fmt.Errorf("entry %s: dimension mismatch: got %d, index has %d", e.ChunkID, len(e.Vector), dims)
		}
	}

	ix.dims = dims
	for _, e := range entries {
		ix.bySource[e.SourceID] = append(ix.bySource[e.SourceID], stored{
			chunkID: e.ChunkID,
			text:    e.Text,
			vec:     normalize(e.Vector),
		})
	}
	return nil
}

// Search returns the topK entries for a source ordered by descending
// cosine similarity to the query vector. A source with no entries
// yields an empty result, not an error.
func (ix *Index) Search(query []float32, topK int, sourceID string) []Result {
	if topK <= 0 {
		topK = DefaultTopK
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	entries := ix.bySource[sourceID]
	if len(entries) == 0 {
		return nil
	}

	q := normalize(query)
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		results = append(results, Result{
			ChunkID:  e.chunkID,
			SourceID: sourceID,
			Text:     e.text,
			Score:    dot(e.vec, q),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK]
}

// Delete removes every entry for a source.
func (ix *Index) Delete(sourceID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.bySource, sourceID)
}

// Texts returns a source's chunk texts in insertion order, which for
// ingested sources is sequence order.
func (ix *Index) Texts(sourceID string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	entries := ix.bySource[sourceID]
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.text
	}
	return out
}

// Count returns the number of entries held for a source.
func (ix *Index) Count(sourceID string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.bySource[sourceID])
}

// Sources returns the IDs of all sources with at least one entry.
func (ix *Index) Sources() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ids := make([]string, 0, len(ix.bySource))
	for id := range ix.bySource {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dimensions returns the vector dimension, or 0 before the first Add.
func (ix *Index) Dimensions() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dims
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
