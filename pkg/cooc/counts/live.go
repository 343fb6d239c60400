package counts

import (
	"sync"
	"sync/atomic"
)

// Live owns the current Map generation.
//
// The lock is used inverted: Add holds the shared side so any number of
// workers increment concurrently, Swap holds the exclusive side only while
// replacing the pointer. Once Swap returns, no increment can still land in
// the detached map.
type Live struct {
	mu  sync.RWMutex
	cur atomic.Pointer[Map]
}

// NewLive creates a holder with an empty current map.
func NewLive() *Live {
	l := &Live{}
	l.cur.Store(NewMap())
	return l
}

// Add increments k in the current generation.
func (l *Live) Add(k PairKey, delta float64) {
	l.mu.RLock()
	l.cur.Load().Add(k, delta)
	l.mu.RUnlock()
}

// Get returns the weight of k in the current generation only.
func (l *Live) Get(k PairKey) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur.Load().Get(k)
}

// Len returns the entry count of the current generation without locking.
func (l *Live) Len() int {
	return l.cur.Load().Len()
}

// Swap installs an empty map and returns the detached one.
func (l *Live) Swap() *Map {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cur.Swap(NewMap())
}
