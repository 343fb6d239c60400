// Package spill keeps the live co-occurrence map within its memory budget by
// periodically detaching it and merging it into an accumulation file on
// disk.
//
// A Coordinator runs one goroutine. Each flush swaps in an empty map, then
// streams the previous accumulation file, folds the detached map into it and
// writes a new file that supersedes the old one. The terminal flush writes
// the target file instead.
package spill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cognicore/cooc/internal/logging"
	"github.com/cognicore/cooc/pkg/cooc/counts"
	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/metrics"
	"github.com/cognicore/cooc/pkg/cooc/record"
	"github.com/cognicore/cooc/pkg/cooc/resource"
)

// Config configures a Coordinator.
type Config struct {
	// Dir holds intermediate accumulation files. Defaults to os.TempDir().
	Dir string
	// Target is the path of the final merged file. Required.
	Target string
	// Codec encodes intermediate files. The target is always plain text.
	Codec record.Codec
	// BytesPerSec caps spill write throughput; 0 means unlimited.
	BytesPerSec int64

	Logger   *slog.Logger
	Observer metrics.Observer
}

// Coordinator owns the accumulation file rotation for one run.
type Coordinator struct {
	live     *counts.Live
	budget   *resource.Budget
	cfg      Config
	namer    *Namer
	logger   *slog.Logger
	observer metrics.Observer

	flushCh  chan struct{}
	finishCh chan struct{}
	stopCh   chan struct{}
	done     chan struct{}

	startOnce  sync.Once
	finishOnce sync.Once
	stopOnce   sync.Once

	// Owned by the loop goroutine; read by others only after done is closed.
	current      string
	currentCodec record.Codec
	flushes      int
	err          error
}

// New creates a Coordinator. It registers itself as the budget's pressure
// callback so workers that hit the threshold trigger a flush.
func New(live *counts.Live, budget *resource.Budget, cfg Config) (*Coordinator, error) {
	if cfg.Target == "" {
		return nil, fmt.Errorf("%w: spill target path is required", internalerr.ErrInvalidConfig)
	}
	if cfg.Dir == "" {
		cfg.Dir = os.TempDir()
	}
	if cfg.Codec == "" {
		cfg.Codec = record.CodecNone
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spill directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Target), 0o755); err != nil {
		return nil, fmt.Errorf("create target directory: %w", err)
	}

	c := &Coordinator{
		live:     live,
		budget:   budget,
		cfg:      cfg,
		namer:    NewNamer(),
		logger:   logging.WithComponent(cfg.Logger, "spill"),
		observer: metrics.OrNoop(cfg.Observer),
		flushCh:  make(chan struct{}, 1),
		finishCh: make(chan struct{}),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	budget.OnPressure(c.RequestFlush)
	return c, nil
}

// Start launches the coordinator goroutine. Cancelling ctx aborts the run.
func (c *Coordinator) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		go c.run(ctx)
	})
}

// RequestFlush asks for a flush on the next loop iteration. Requests made
// while one is pending coalesce. It never blocks.
func (c *Coordinator) RequestFlush() {
	select {
	case c.flushCh <- struct{}{}:
	default:
	}
}

// Finish performs the terminal flush and stops the coordinator. It blocks
// until the target file is written and returns the first error the
// coordinator hit, if any.
func (c *Coordinator) Finish(ctx context.Context) error {
	c.Start(ctx)
	c.finishOnce.Do(func() { close(c.finishCh) })
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the coordinator without a terminal flush and removes the
// intermediate accumulation file. Used when a run is abandoned.
func (c *Coordinator) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.startOnce.Do(func() { close(c.done) })
	<-c.done

	if c.current != "" && c.current != c.cfg.Target {
		if err := os.Remove(c.current); err != nil && !os.IsNotExist(err) {
			return err
		}
		c.current = ""
	}
	return nil
}

// Flushes returns the number of completed flushes. Valid after Finish or
// Close returned.
func (c *Coordinator) Flushes() int {
	return c.flushes
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.done)

	for {
		select {
		case <-c.stopCh:
			c.budget.Abort(internalerr.ErrCoordinatorClosed)
			return
		case <-ctx.Done():
			c.fail(ctx.Err())
			return
		case <-c.finishCh:
			if err := c.flush(ctx, true); err != nil {
				c.fail(err)
			}
			return
		case <-c.flushCh:
			if err := c.flush(ctx, false); err != nil {
				c.fail(err)
				return
			}
		}
	}
}

func (c *Coordinator) fail(err error) {
	c.err = err
	c.budget.Abort(err)
	c.observer.FlushFailed(err)
	c.logger.Error("spill coordinator failed", "error", err, "flushes", c.flushes)
}

// flush is the blocking flush. Only the swap excludes workers; the file work
// runs while they keep counting into the fresh map.
func (c *Coordinator) flush(ctx context.Context, terminal bool) error {
	start := time.Now()

	snap := c.live.Swap()
	c.budget.Release()
	c.observer.Footprint(c.budget.Footprint())
	c.logger.Debug("flush started",
		"terminal", terminal,
		"snapshot_entries", snap.Len(),
		"previous", c.current,
	)

	var (
		dst   string
		codec record.Codec
	)
	if terminal {
		dst = c.cfg.Target + ".tmp"
		codec = record.CodecNone
	} else {
		codec = c.cfg.Codec
		dst = filepath.Join(c.cfg.Dir, c.namer.Next("cooc-acc-")+codec.Extension())
	}

	w, err := record.CreateFile(dst, codec, func(w io.Writer) io.Writer {
		return resource.LimitWriter(ctx, w, c.cfg.BytesPerSec)
	})
	if err != nil {
		return fmt.Errorf("create accumulation file: %w", err)
	}

	var prev *record.Reader
	if c.current != "" {
		prev, err = record.OpenFile(c.current, c.currentCodec)
		if err != nil {
			w.Close()
			os.Remove(dst)
			return fmt.Errorf("open previous accumulation file: %w", err)
		}
	}

	st, err := merge(prev, snap, w)
	if prev != nil {
		prev.Close()
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("merge accumulation file: %w", err)
	}

	if terminal {
		if err := os.Rename(dst, c.cfg.Target); err != nil {
			return fmt.Errorf("install target file: %w", err)
		}
		dst = c.cfg.Target
	}

	if c.current != "" {
		if err := os.Remove(c.current); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove superseded accumulation file: %w", err)
		}
	}
	c.current = dst
	c.currentCodec = codec
	c.flushes++

	f := metrics.Flush{
		Records:  w.Count(),
		Merged:   st.merged,
		Added:    st.added,
		Duration: time.Since(start),
		Terminal: terminal,
	}
	c.observer.FlushCompleted(f)
	c.logger.Info("flush completed",
		"terminal", terminal,
		"file", dst,
		"records", f.Records,
		"merged", f.Merged,
		"added", f.Added,
		"duration", f.Duration,
		"footprint", humanize.IBytes(uint64(c.budget.Footprint())),
	)
	return nil
}
