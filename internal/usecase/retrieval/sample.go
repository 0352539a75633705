package retrieval

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand is a goroutine-safe random source for sampling.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand wraps src. Tests pass a seeded source for deterministic subsets.
func NewRand(src rand.Source) *Rand {
	return &Rand{r: rand.New(src)}
}

// NewSeededRand creates a PCG-backed Rand from a seed.
func NewSeededRand(seed uint64) *Rand {
	return NewRand(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewTimeSeededRand creates a Rand that differs between runs.
func NewTimeSeededRand() *Rand {
	return NewSeededRand(uint64(time.Now().UnixNano()))
}

func (r *Rand) perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Perm(n)
}

// Sample picks min(n, len(items)) items uniformly without replacement.
// The input slice is not modified.
func Sample[T any](r *Rand, items []T, n int) []T {
	if n <= 0 || len(items) == 0 {
		return []T{}
	}
	n = min(n, len(items))
	out := make([]T, 0, n)
	for _, i := range r.perm(len(items))[:n] {
		out = append(out, items[i])
	}
	return out
}
