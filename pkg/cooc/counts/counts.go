// Package counts holds the in-memory co-occurrence weights.
//
// Map is a sharded concurrent map from pair to accumulated weight. Live owns
// the current Map generation and hands it over wholesale to the spill
// coordinator.
package counts

import (
	"iter"
	"sync"
	"sync/atomic"
)

const shardCount = 64

// PairKey is a stored pair of vocabulary indices. The caller decides the
// ordering: Canonical for undirected counting, the raw ordering for directed
// (symmetric mode) entries.
type PairKey struct {
	A, B int32
}

// Canonical returns the key with the smaller index first.
func Canonical(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{A: int32(a), B: int32(b)}
}

// Key returns the key for (a, b) without reordering.
func Key(a, b int) PairKey {
	return PairKey{A: int32(a), B: int32(b)}
}

type shard struct {
	mu sync.Mutex
	m  map[PairKey]float64
}

// Map accumulates weights per pair. All methods are safe for concurrent use.
type Map struct {
	shards [shardCount]shard
	size   atomic.Int64
}

// NewMap creates an empty map.
func NewMap() *Map {
	m := &Map{}
	for i := range m.shards {
		m.shards[i].m = make(map[PairKey]float64)
	}
	return m
}

func (m *Map) shardFor(k PairKey) *shard {
	h := uint64(uint32(k.A))*0x9E3779B97F4A7C15 ^ uint64(uint32(k.B))*0xC2B2AE3D27D4EB4F
	h ^= h >> 29
	return &m.shards[h&(shardCount-1)]
}

// Add adds delta to the weight of k, creating the entry on first touch.
func (m *Map) Add(k PairKey, delta float64) {
	s := m.shardFor(k)
	s.mu.Lock()
	w, ok := s.m[k]
	s.m[k] = w + delta
	s.mu.Unlock()
	if !ok {
		m.size.Add(1)
	}
}

// Get returns the weight of k, or 0 if absent.
func (m *Map) Get(k PairKey) float64 {
	s := m.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[k]
}

// Take removes k and returns its weight.
func (m *Map) Take(k PairKey) (float64, bool) {
	s := m.shardFor(k)
	s.mu.Lock()
	w, ok := s.m[k]
	if ok {
		delete(s.m, k)
	}
	s.mu.Unlock()
	if ok {
		m.size.Add(-1)
	}
	return w, ok
}

// Remove deletes k. It reports whether k was present.
func (m *Map) Remove(k PairKey) bool {
	_, ok := m.Take(k)
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return int(m.size.Load())
}

// Total returns the sum of all weights.
func (m *Map) Total() float64 {
	var total float64
	for _, w := range m.All() {
		total += w
	}
	return total
}

// All iterates over the entries one shard at a time. Each shard is copied
// under its lock and yielded unlocked, so the consumer may call Take or Add.
// Entries added to an already visited shard are not seen.
func (m *Map) All() iter.Seq2[PairKey, float64] {
	return func(yield func(PairKey, float64) bool) {
		type entry struct {
			k PairKey
			w float64
		}
		var buf []entry
		for i := range m.shards {
			s := &m.shards[i]
			s.mu.Lock()
			buf = buf[:0]
			for k, w := range s.m {
				buf = append(buf, entry{k, w})
			}
			s.mu.Unlock()

			for _, e := range buf {
				if !yield(e.k, e.w) {
					return
				}
			}
		}
	}
}
