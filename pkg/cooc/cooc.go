// Package cooc accumulates weighted co-occurrence counts of vocabulary
// elements over a corpus of token sequences, within a fixed memory budget.
//
// Workers slide a forward window over each sequence and add harmonic
// distance weights into a shared in-memory map. When the map's estimated
// footprint reaches half the budget, a single coordinator detaches it and
// merges it into an accumulation file on disk. The finished counts end up in
// one plain-text target file, readable through Iterator.
package cooc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cognicore/cooc/internal/logging"
	"github.com/cognicore/cooc/pkg/cooc/counts"
	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/metrics"
	"github.com/cognicore/cooc/pkg/cooc/record"
	"github.com/cognicore/cooc/pkg/cooc/resource"
	"github.com/cognicore/cooc/pkg/cooc/result"
	"github.com/cognicore/cooc/pkg/cooc/sequence"
	"github.com/cognicore/cooc/pkg/cooc/spill"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
	"github.com/cognicore/cooc/pkg/cooc/window"
)

// Options configures a CoOccurrences instance. Zero values select defaults.
type Options struct {
	// Symmetric stores every pair under both orderings.
	Symmetric bool
	// WindowSize is the forward neighbor span. Defaults to 5.
	WindowSize int
	// Vocabulary resolves tokens. Required.
	Vocabulary vocab.Index
	// Source supplies the corpus. Required.
	Source sequence.Source
	// Workers defaults to runtime.GOMAXPROCS(0).
	Workers int
	// MaxMemory is the budget in bytes; flushing starts at half of it.
	// Defaults to resource.AvailableMemory().
	MaxMemory int64
	// TargetFile receives the final counts. Defaults to a generated name in
	// SpillDir.
	TargetFile string
	// SpillDir holds intermediate files. Defaults to os.TempDir().
	SpillDir string
	// SpillCodec compresses intermediate files.
	SpillCodec record.Codec
	// SpillBytesPerSec caps spill write throughput; 0 is unlimited.
	SpillBytesPerSec int64

	Logger   *slog.Logger
	Observer metrics.Observer
}

// Stats describes a run.
type Stats struct {
	Sequences         int64
	Increments        int64
	Flushes           int
	BackpressureWaits int64
	Duration          time.Duration
}

// CoOccurrences is one accumulation over one corpus.
type CoOccurrences struct {
	opts     Options
	logger   *slog.Logger
	observer metrics.Observer

	live   *counts.Live
	budget *resource.Budget
	// wrapSink, when set, decorates the sink the workers increment.
	wrapSink func(window.Sink) window.Sink

	mu     sync.Mutex
	coord  *spill.Coordinator
	pool   *window.Pool
	fitted atomic.Bool
	began  atomic.Bool
	stats  Stats
}

// New validates opts and fills in defaults. Invalid options wrap
// internalerr.ErrInvalidConfig.
func New(opts Options) (*CoOccurrences, error) {
	if opts.Vocabulary == nil {
		return nil, fmt.Errorf("%w: vocabulary is required", internalerr.ErrInvalidConfig)
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: sequence source is required", internalerr.ErrInvalidConfig)
	}
	if opts.WindowSize < 0 {
		return nil, fmt.Errorf("%w: window size must be at least 1, got %d", internalerr.ErrInvalidConfig, opts.WindowSize)
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("%w: workers must not be negative, got %d", internalerr.ErrInvalidConfig, opts.Workers)
	}
	if opts.MaxMemory < 0 {
		return nil, fmt.Errorf("%w: max memory must not be negative, got %d", internalerr.ErrInvalidConfig, opts.MaxMemory)
	}
	if opts.SpillBytesPerSec < 0 {
		return nil, fmt.Errorf("%w: spill rate must not be negative, got %d", internalerr.ErrInvalidConfig, opts.SpillBytesPerSec)
	}
	codec, err := record.ParseCodec(string(opts.SpillCodec))
	if err != nil {
		return nil, err
	}
	opts.SpillCodec = codec

	if opts.WindowSize == 0 {
		opts.WindowSize = window.DefaultSize
	}
	if opts.MaxMemory == 0 {
		opts.MaxMemory = resource.AvailableMemory()
	}
	if opts.SpillDir == "" {
		opts.SpillDir = os.TempDir()
	}
	if opts.TargetFile == "" {
		opts.TargetFile = filepath.Join(opts.SpillDir, spill.TempName("cooc-")+".txt")
	}

	live := counts.NewLive()
	return &CoOccurrences{
		opts:     opts,
		logger:   logging.OrDiscard(opts.Logger),
		observer: metrics.OrNoop(opts.Observer),
		live:     live,
		budget:   resource.NewBudget(opts.MaxMemory, live.Len),
	}, nil
}

// Fit counts the whole corpus and writes the target file. It resets the
// source first and returns once every sequence has been counted and the
// terminal flush has completed. Any worker or flush failure aborts the run;
// the target file is then unusable.
func (c *CoOccurrences) Fit(ctx context.Context) error {
	if !c.began.CompareAndSwap(false, true) {
		return internalerr.ErrAlreadyFitted
	}
	start := time.Now()

	if err := c.opts.Source.Reset(); err != nil {
		return fmt.Errorf("reset source: %w", err)
	}

	coord, err := spill.New(c.live, c.budget, spill.Config{
		Dir:         c.opts.SpillDir,
		Target:      c.opts.TargetFile,
		Codec:       c.opts.SpillCodec,
		BytesPerSec: c.opts.SpillBytesPerSec,
		Logger:      c.logger,
		Observer:    c.observer,
	})
	if err != nil {
		return err
	}

	var sink window.Sink = c.live
	if c.wrapSink != nil {
		sink = c.wrapSink(sink)
	}
	counter := &window.Counter{
		Vocab:     c.opts.Vocabulary,
		Sink:      sink,
		Gate:      observedGate{budget: c.budget, observer: c.observer},
		Size:      c.opts.WindowSize,
		Symmetric: c.opts.Symmetric,
	}
	pool := window.NewPool(counter, c.opts.Workers, c.logger, c.observer)

	c.mu.Lock()
	c.coord = coord
	c.pool = pool
	c.mu.Unlock()

	c.logger.Info("fit started",
		"workers", pool.Workers(),
		"window", c.opts.WindowSize,
		"symmetric", c.opts.Symmetric,
		"max_memory", humanize.IBytes(uint64(c.opts.MaxMemory)),
		"target", c.opts.TargetFile,
	)

	coord.Start(ctx)
	if err := pool.Run(ctx, c.opts.Source); err != nil {
		c.budget.Abort(err)
		if cerr := coord.Close(); cerr != nil {
			c.logger.Warn("cleanup after failed fit", "error", cerr)
		}
		c.logger.Error("fit failed", "error", err)
		return err
	}

	entries := c.live.Len()
	if err := coord.Finish(ctx); err != nil {
		if cerr := coord.Close(); cerr != nil {
			c.logger.Warn("cleanup after failed fit", "error", cerr)
		}
		c.logger.Error("fit failed", "error", err)
		return err
	}

	ps := pool.Stats()
	c.mu.Lock()
	c.stats = Stats{
		Sequences:         ps.Sequences,
		Increments:        ps.Increments,
		Flushes:           coord.Flushes(),
		BackpressureWaits: c.budget.Waits(),
		Duration:          time.Since(start),
	}
	st := c.stats
	c.mu.Unlock()
	c.fitted.Store(true)

	c.logger.Info("fit completed",
		"sequences", st.Sequences,
		"increments", st.Increments,
		"flushes", st.Flushes,
		"backpressure_waits", st.BackpressureWaits,
		"final_map_entries", entries,
		"duration", st.Duration,
	)
	return nil
}

// Count returns the in-memory weight of the pair (a, b). Counts already
// flushed to disk are not included, so during and after Fit this is only a
// partial, diagnostic view; use Iterator for final values.
func (c *CoOccurrences) Count(a, b vocab.Element) float64 {
	return c.live.Get(c.key(a.Index, b.Index))
}

func (c *CoOccurrences) key(a, b int) counts.PairKey {
	if c.opts.Symmetric {
		return counts.Key(a, b)
	}
	return counts.Canonical(a, b)
}

// RequestFlush asks the coordinator for a flush soon. It is a hint and does
// nothing outside Fit.
func (c *CoOccurrences) RequestFlush() {
	c.mu.Lock()
	coord := c.coord
	c.mu.Unlock()
	if coord != nil {
		coord.RequestFlush()
	}
}

// Iterator opens the target file. It fails with internalerr.ErrNotFitted
// until Fit has succeeded.
func (c *CoOccurrences) Iterator() (*result.Reader, error) {
	if !c.fitted.Load() {
		return nil, internalerr.ErrNotFitted
	}
	return result.Open(c.opts.TargetFile, c.opts.Vocabulary)
}

// TargetFile returns the path the final counts are written to.
func (c *CoOccurrences) TargetFile() string {
	return c.opts.TargetFile
}

// Stats returns run statistics. Before Fit completes the sequence and
// increment counts are live.
func (c *CoOccurrences) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fitted.Load() || c.pool == nil {
		return c.stats
	}
	ps := c.pool.Stats()
	return Stats{
		Sequences:         ps.Sequences,
		Increments:        ps.Increments,
		BackpressureWaits: c.budget.Waits(),
	}
}

// observedGate reports backpressure to the observer before blocking.
type observedGate struct {
	budget   *resource.Budget
	observer metrics.Observer
}

func (g observedGate) Wait() error {
	if g.budget.Exceeded() {
		g.observer.BackpressureWait()
	}
	return g.budget.Wait()
}
