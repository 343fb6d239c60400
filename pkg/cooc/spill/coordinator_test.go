package spill

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/cooc/pkg/cooc/counts"
	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/record"
	"github.com/cognicore/cooc/pkg/cooc/resource"
)

func newCoordinator(t *testing.T, codec record.Codec) (*Coordinator, *counts.Live, string) {
	t.Helper()
	dir := t.TempDir()
	live := counts.NewLive()
	budget := resource.NewBudget(1<<30, live.Len)
	target := filepath.Join(dir, "out", "cooc.txt")
	c, err := New(live, budget, Config{
		Dir:    filepath.Join(dir, "spill"),
		Target: target,
		Codec:  codec,
	})
	require.NoError(t, err)
	return c, live, target
}

func readRecords(t *testing.T, path string, codec record.Codec) map[counts.PairKey]float64 {
	t.Helper()
	r, err := record.OpenFile(path, codec)
	require.NoError(t, err)
	defer r.Close()

	out := make(map[counts.PairKey]float64)
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		k := counts.Key(rec.A, rec.B)
		_, dup := out[k]
		require.False(t, dup, "duplicate record for %v", k)
		out[k] = rec.Weight
	}
}

func TestNewRequiresTarget(t *testing.T) {
	live := counts.NewLive()
	_, err := New(live, resource.NewBudget(1<<20, live.Len), Config{Dir: t.TempDir()})
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestFinishWritesTarget(t *testing.T) {
	c, live, target := newCoordinator(t, record.CodecNone)
	live.Add(counts.Key(0, 1), 1.5)
	live.Add(counts.Key(2, 3), 0.5)

	require.NoError(t, c.Finish(context.Background()))

	got := readRecords(t, target, record.CodecNone)
	assert.Equal(t, map[counts.PairKey]float64{
		counts.Key(0, 1): 1.5,
		counts.Key(2, 3): 0.5,
	}, got)
	assert.NoFileExists(t, target+".tmp")
	assert.Equal(t, 0, live.Len())
}

func TestFinishWithNothingCountedWritesEmptyFile(t *testing.T) {
	c, _, target := newCoordinator(t, record.CodecNone)
	require.NoError(t, c.Finish(context.Background()))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestFlushesMergeIntoPreviousFile(t *testing.T) {
	for _, codec := range []record.Codec{record.CodecNone, record.CodecZstd, record.CodecLZ4} {
		t.Run(string(codec), func(t *testing.T) {
			c, live, target := newCoordinator(t, codec)
			ctx := context.Background()

			live.Add(counts.Key(0, 1), 1)
			live.Add(counts.Key(1, 2), 2)
			require.NoError(t, c.flush(ctx, false))

			live.Add(counts.Key(0, 1), 3)
			live.Add(counts.Key(4, 5), 0.25)
			require.NoError(t, c.flush(ctx, false))

			live.Add(counts.Key(1, 2), 1)
			require.NoError(t, c.flush(ctx, true))

			got := readRecords(t, target, record.CodecNone)
			assert.Equal(t, map[counts.PairKey]float64{
				counts.Key(0, 1): 4,
				counts.Key(1, 2): 3,
				counts.Key(4, 5): 0.25,
			}, got)
			assert.Equal(t, 3, c.Flushes())
		})
	}
}

func TestFlushWritesLeftoverPairsWithBothIndices(t *testing.T) {
	c, live, target := newCoordinator(t, record.CodecNone)
	ctx := context.Background()

	live.Add(counts.Key(0, 1), 1)
	require.NoError(t, c.flush(ctx, false))

	// (7, 9) is absent from the previous file and must keep both indices.
	live.Add(counts.Key(7, 9), 2)
	require.NoError(t, c.flush(ctx, true))

	got := readRecords(t, target, record.CodecNone)
	assert.Equal(t, 2.0, got[counts.Key(7, 9)])
	_, selfPair := got[counts.Key(7, 7)]
	assert.False(t, selfPair)
}

func TestRepeatedEmptyFlushesAreIdempotent(t *testing.T) {
	c, live, target := newCoordinator(t, record.CodecZstd)
	ctx := context.Background()

	live.Add(counts.Key(0, 1), 1)
	live.Add(counts.Key(1, 0), 1)
	require.NoError(t, c.flush(ctx, false))
	require.NoError(t, c.flush(ctx, false))
	require.NoError(t, c.flush(ctx, false))
	require.NoError(t, c.flush(ctx, true))

	got := readRecords(t, target, record.CodecNone)
	assert.Equal(t, map[counts.PairKey]float64{
		counts.Key(0, 1): 1,
		counts.Key(1, 0): 1,
	}, got)
}

func TestSupersededFilesAreRemoved(t *testing.T) {
	c, live, _ := newCoordinator(t, record.CodecNone)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		live.Add(counts.Key(i, i+1), 1)
		require.NoError(t, c.flush(ctx, false))
	}

	entries, err := os.ReadDir(c.cfg.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRequestFlushRunsInBackground(t *testing.T) {
	c, live, target := newCoordinator(t, record.CodecNone)
	ctx := context.Background()
	c.Start(ctx)

	live.Add(counts.Key(0, 1), 1)
	c.RequestFlush()
	c.RequestFlush()

	require.Eventually(t, func() bool { return live.Len() == 0 }, 5*time.Second, 5*time.Millisecond)

	live.Add(counts.Key(0, 1), 1)
	require.NoError(t, c.Finish(ctx))

	got := readRecords(t, target, record.CodecNone)
	assert.Equal(t, 2.0, got[counts.Key(0, 1)])
}

func TestPressureTriggersFlushAndReleasesWaiters(t *testing.T) {
	dir := t.TempDir()
	live := counts.NewLive()
	budget := resource.NewBudget(2*resource.BytesPerEntry, live.Len)
	c, err := New(live, budget, Config{Dir: dir, Target: filepath.Join(dir, "cooc.txt")})
	require.NoError(t, err)

	ctx := context.Background()
	c.Start(ctx)

	live.Add(counts.Key(0, 1), 1)
	require.True(t, budget.Exceeded())

	done := make(chan error, 1)
	go func() { done <- budget.Wait() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("waiter was not released by a flush")
	}

	require.NoError(t, c.Finish(ctx))
	got := readRecords(t, filepath.Join(dir, "cooc.txt"), record.CodecNone)
	assert.Equal(t, 1.0, got[counts.Key(0, 1)])
}

func TestCloseRemovesIntermediateFileAndAbortsWaiters(t *testing.T) {
	dir := t.TempDir()
	live := counts.NewLive()
	budget := resource.NewBudget(2*resource.BytesPerEntry, live.Len)
	target := filepath.Join(dir, "cooc.txt")
	c, err := New(live, budget, Config{Dir: filepath.Join(dir, "spill"), Target: target})
	require.NoError(t, err)

	live.Add(counts.Key(0, 1), 1)
	require.NoError(t, c.flush(context.Background(), false))
	c.Start(context.Background())

	require.NoError(t, c.Close())

	entries, err := os.ReadDir(filepath.Join(dir, "spill"))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoFileExists(t, target)

	live.Add(counts.Key(0, 1), 1)
	assert.ErrorIs(t, budget.Wait(), internalerr.ErrCoordinatorClosed)
}

func TestCancelledContextFailsCoordinator(t *testing.T) {
	c, _, target := newCoordinator(t, record.CodecNone)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()

	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not stop")
	}

	err := c.Finish(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, target)
}

func TestTempNameIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := TempName("cooc-")
		assert.False(t, seen[n])
		seen[n] = true
	}
}
