// Package resource bounds what a counting run may hold in memory and how fast
// it may write spill files.
package resource

import (
	"sync"
	"sync/atomic"
)

// BytesPerEntry is the estimated resident cost of one map entry, key, value
// and map overhead included.
const BytesPerEntry = 24 * 5

// Budget is the memory admission gate shared by counting workers and the
// spill coordinator. The footprint is estimated from the live entry count.
//
// Workers call Wait before every increment. While the footprint is at or
// above the threshold they block on a condition variable; the coordinator
// calls Release after each swap and Abort when the run fails.
type Budget struct {
	maxMemory int64
	entries   func() int

	mu         sync.Mutex
	cond       *sync.Cond
	err        error
	onPressure func()

	aborted atomic.Bool
	waits   atomic.Int64
}

// NewBudget creates a gate for maxMemory bytes whose footprint is derived
// from entries.
func NewBudget(maxMemory int64, entries func() int) *Budget {
	b := &Budget{
		maxMemory:  maxMemory,
		entries:    entries,
		onPressure: func() {},
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// OnPressure registers fn to be called, with the gate lock held, whenever a
// worker finds the budget exceeded. fn must not block.
func (b *Budget) OnPressure(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fn == nil {
		fn = func() {}
	}
	b.onPressure = fn
}

// MaxMemory returns the configured budget.
func (b *Budget) MaxMemory() int64 {
	return b.maxMemory
}

// Threshold is half the budget, leaving headroom for growth between checks.
func (b *Budget) Threshold() int64 {
	return b.maxMemory / 2
}

// Footprint returns the estimated bytes held by the live map.
func (b *Budget) Footprint() int64 {
	return int64(b.entries()) * BytesPerEntry
}

// Exceeded reports whether the footprint is at or above the threshold. An
// empty map never exceeds, so a tiny budget degrades to flushing after every
// new pair instead of stalling.
func (b *Budget) Exceeded() bool {
	fp := b.Footprint()
	return fp > 0 && fp >= b.Threshold()
}

// Wait blocks while the budget is exceeded. Once the run is aborted it
// returns the abort error immediately, whatever the footprint.
func (b *Budget) Wait() error {
	if b.aborted.Load() {
		return b.Err()
	}
	if !b.Exceeded() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil && b.Exceeded() {
		b.waits.Add(1)
	}
	for b.err == nil && b.Exceeded() {
		b.onPressure()
		b.cond.Wait()
	}
	return b.err
}

// Release wakes every waiter so it re-checks the footprint.
func (b *Budget) Release() {
	b.mu.Lock()
	b.cond.Broadcast()
	b.mu.Unlock()
}

// Abort fails all current and future waiters with err. The first error wins.
func (b *Budget) Abort(err error) {
	b.mu.Lock()
	if b.err == nil {
		b.err = err
		b.aborted.Store(true)
	}
	b.cond.Broadcast()
	b.mu.Unlock()
}

// Err returns the abort error, or nil while the run is healthy.
func (b *Budget) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Waits returns how many times a worker had to block.
func (b *Budget) Waits() int64 {
	return b.waits.Load()
}
