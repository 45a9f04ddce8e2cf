package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// Memory is an in-process cosine-similarity store with the same surface as
// Client. It does a linear scan and suits a handful of documents.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Point
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]Point)}
}

func (m *Memory) EnsureCollection(_ context.Context, name string, _ uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		m.collections[name] = make(map[string]Point)
	}
	return nil
}

func (m *Memory) Upsert(_ context.Context, collection string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]Point)
		m.collections[collection] = coll
	}
	for _, p := range points {
		coll[p.ID] = p
	}
	return nil
}

// Search ranks by cosine similarity; equal scores are ordered by id.
func (m *Memory) Search(_ context.Context, collection string, vector []float32, topK uint64) ([]*SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := []*SearchResult{}
	for id, p := range m.collections[collection] {
		results = append(results, &SearchResult{
			ID:      id,
			Score:   float32(Cosine(vector, p.Vector)),
			Payload: p.Payload,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if topK > 0 && uint64(len(results)) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *Memory) Delete(_ context.Context, collection string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.collections[collection], id)
	}
	return nil
}

// Cosine returns the cosine similarity of a and b, or 0 when the lengths
// differ or either vector is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
