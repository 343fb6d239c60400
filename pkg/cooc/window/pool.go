package window

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/cooc/internal/logging"
	"github.com/cognicore/cooc/pkg/cooc/metrics"
	"github.com/cognicore/cooc/pkg/cooc/sequence"
)

// Stats summarizes a pool run.
type Stats struct {
	Sequences  int64
	Increments int64
}

// Pool drains a shared Source with a fixed number of workers.
type Pool struct {
	counter  *Counter
	workers  int
	logger   *slog.Logger
	observer metrics.Observer

	sequences  atomic.Int64
	increments atomic.Int64
}

// NewPool creates a pool of workers around counter. Non-positive workers
// means runtime.GOMAXPROCS(0).
func NewPool(counter *Counter, workers int, logger *slog.Logger, observer metrics.Observer) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		counter:  counter,
		workers:  workers,
		logger:   logging.WithComponent(logger, "window"),
		observer: metrics.OrNoop(observer),
	}
}

// Workers returns the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Run starts the workers and blocks until src is exhausted or a worker
// fails. The first failure cancels the others and is returned; there is no
// retry and no partial result.
func (p *Pool) Run(ctx context.Context, src sequence.Source) error {
	shared := sequence.Synchronize(src)
	g, ctx := errgroup.WithContext(ctx)

	for id := 0; id < p.workers; id++ {
		g.Go(func() error {
			return p.work(ctx, id, shared)
		})
	}
	return g.Wait()
}

func (p *Pool) work(ctx context.Context, id int, src sequence.Source) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		seq, err := src.Next()
		if errors.Is(err, io.EOF) {
			p.logger.Debug("worker drained source", "worker", id)
			return nil
		}
		if err != nil {
			return fmt.Errorf("worker %d: next sequence: %w", id, err)
		}

		n, err := p.counter.Count(seq)
		p.increments.Add(int64(n))
		if err != nil {
			return fmt.Errorf("worker %d: %w", id, err)
		}
		p.sequences.Add(1)
		p.observer.SequenceCounted(n)
	}
}

// Stats returns the counters accumulated so far.
func (p *Pool) Stats() Stats {
	return Stats{
		Sequences:  p.sequences.Load(),
		Increments: p.increments.Load(),
	}
}
