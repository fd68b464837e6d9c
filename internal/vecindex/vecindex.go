// Package vecindex provides nearest-neighbor search over user taste
// vectors behind a single capability interface, so the backend (in-memory
// scan, external ANN service, or a database extension) is swappable
// without touching scoring or ranking logic.
package vecindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Hit is a single result of a similarity search.
type Hit struct {
	UserID     uint64
	Similarity float64
}

// Index is the NearestByVector capability.
//
// All implementations must be safe for concurrent use.
type Index interface {
	// Upsert adds or replaces the vector for a user.
	Upsert(userID uint64, vector []float32) error

	// Remove drops a user's vector. No error if absent.
	Remove(userID uint64)

	// Nearest returns up to k users ordered by descending cosine
	// similarity to query, skipping ids in exclude.
	Nearest(ctx context.Context, query []float32, exclude map[uint64]struct{}, k int) ([]Hit, error)

	// Len returns the number of indexed vectors.
	Len() int
}

// Memory is a brute-force in-process Index with precomputed magnitudes.
// Adequate for the user counts this service sees; swap in an external ANN
// behind the same interface when that stops being true.
type Memory struct {
	dim int

	mu   sync.RWMutex
	vecs map[uint64][]float32
	mags map[uint64]float64
}

// NewMemory creates an empty index for vectors of the given dimension.
func NewMemory(dim int) *Memory {
	return &Memory{
		dim:  dim,
		vecs: make(map[uint64][]float32),
		mags: make(map[uint64]float64),
	}
}

func (m *Memory) Upsert(userID uint64, vector []float32) error {
	if len(vector) != m.dim {
		return fmt.Errorf("vecindex: vector dim %d != index dim %d", len(vector), m.dim)
	}
	v := append([]float32(nil), vector...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.vecs[userID] = v
	m.mags[userID] = magnitude(v)
	return nil
}

func (m *Memory) Remove(userID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vecs, userID)
	delete(m.mags, userID)
}

func (m *Memory) Nearest(ctx context.Context, query []float32, exclude map[uint64]struct{}, k int) ([]Hit, error) {
	if len(query) != m.dim {
		return nil, fmt.Errorf("vecindex: query dim %d != index dim %d", len(query), m.dim)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	qm := magnitude(query)
	if qm == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0, len(m.vecs))
	for id, vec := range m.vecs {
		if _, skip := exclude[id]; skip {
			continue
		}
		mag := m.mags[id]
		if mag == 0 {
			continue
		}
		s := dot(query, vec) / (qm * mag)
		if math.IsNaN(s) {
			continue
		}
		hits = append(hits, Hit{UserID: id, Similarity: s})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Similarity != hits[b].Similarity {
			return hits[a].Similarity > hits[b].Similarity
		}
		return hits[a].UserID < hits[b].UserID
	})
	if k > 0 && k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vecs)
}

// Cosine returns the cosine similarity of two vectors, or 0 when either
// has zero magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	ma, mb := magnitude(a), magnitude(b)
	if ma == 0 || mb == 0 {
		return 0
	}
	return dot(a, b) / (ma * mb)
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func magnitude(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
