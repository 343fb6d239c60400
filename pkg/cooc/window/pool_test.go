package window

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/cooc/pkg/cooc/counts"
	"github.com/cognicore/cooc/pkg/cooc/sequence"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

func corpus(n int) [][]string {
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"}
	seqs := make([][]string, n)
	for i := range seqs {
		seq := make([]string, 8)
		for j := range seq {
			seq[j] = words[(i*3+j*j)%len(words)]
		}
		seqs[i] = seq
	}
	return seqs
}

func TestPoolWorkerCountDoesNotChangeResult(t *testing.T) {
	v := vocab.New([]string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"})
	seqs := corpus(300)

	run := func(workers int) *counts.Map {
		m := counts.NewMap()
		c := &Counter{Vocab: v, Sink: m, Size: 3}
		p := NewPool(c, workers, nil, nil)
		require.NoError(t, p.Run(context.Background(), sequence.FromSlice(seqs)))
		assert.Equal(t, int64(len(seqs)), p.Stats().Sequences)
		return m
	}

	single := run(1)
	for _, workers := range []int{2, 4, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			multi := run(workers)
			require.Equal(t, single.Len(), multi.Len())
			for k, w := range single.All() {
				assert.InDelta(t, w, multi.Get(k), 1e-9, "pair %v", k)
			}
		})
	}
}

type brokenSource struct {
	served int
	err    error
}

func (s *brokenSource) Reset() error  { s.served = 0; return nil }
func (s *brokenSource) HasMore() bool { return true }
func (s *brokenSource) Next() ([]string, error) {
	if s.served >= 10 {
		return nil, s.err
	}
	s.served++
	return []string{"a", "b"}, nil
}

func TestPoolPropagatesSourceFailure(t *testing.T) {
	v := vocab.New([]string{"a", "b"})
	boom := errors.New("read corpus: connection reset")
	c := &Counter{Vocab: v, Sink: counts.NewMap(), Size: 2}
	p := NewPool(c, 4, nil, nil)

	err := p.Run(context.Background(), &brokenSource{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestPoolStopsOnCancelledContext(t *testing.T) {
	v := vocab.New([]string{"a", "b"})
	c := &Counter{Vocab: v, Sink: counts.NewMap(), Size: 2}
	p := NewPool(c, 2, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Run(ctx, &brokenSource{err: io.EOF})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoolDefaultsWorkers(t *testing.T) {
	p := NewPool(&Counter{}, 0, nil, nil)
	assert.Positive(t, p.Workers())
}
