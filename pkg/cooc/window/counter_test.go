package window

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/cooc/pkg/cooc/counts"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

func newCounter(v vocab.Index, size int, symmetric bool) (*Counter, *counts.Map) {
	m := counts.NewMap()
	return &Counter{Vocab: v, Sink: m, Size: size, Symmetric: symmetric}, m
}

func TestCountWindowWeights(t *testing.T) {
	v := vocab.New([]string{"a", "b", "c", "d"})
	c, m := newCounter(v, 2, false)

	n, err := c.Count([]string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	want := map[[2]int]float64{
		{0, 1}: 1,
		{0, 2}: 0.5,
		{1, 2}: 1,
		{1, 3}: 0.5,
		{2, 3}: 1,
	}
	assert.Equal(t, len(want), m.Len())
	for pair, w := range want {
		assert.InDelta(t, w, m.Get(counts.Key(pair[0], pair[1])), 1e-4, "pair %v", pair)
	}
	assert.Zero(t, m.Get(counts.Key(0, 3)), "a and d are three apart")
	for i := 0; i < 4; i++ {
		assert.Zero(t, m.Get(counts.Key(i, i)), "self pair %d", i)
	}
}

func TestCountExactWeightUsesEpsilon(t *testing.T) {
	v := vocab.New([]string{"x", "y"})
	c, m := newCounter(v, 5, false)

	_, err := c.Count([]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, 1/(1+Epsilon), m.Get(counts.Key(0, 1)))
}

func TestCountCanonicalOrdering(t *testing.T) {
	// "late" has a larger index but appears first in the sequence.
	v := vocab.New([]string{"early", "late"})

	t.Run("asymmetric", func(t *testing.T) {
		c, m := newCounter(v, 3, false)
		_, err := c.Count([]string{"late", "early"})
		require.NoError(t, err)

		assert.Equal(t, 1, m.Len())
		assert.NotZero(t, m.Get(counts.Key(0, 1)))
		assert.Zero(t, m.Get(counts.Key(1, 0)))
	})

	t.Run("symmetric", func(t *testing.T) {
		c, m := newCounter(v, 3, true)
		_, err := c.Count([]string{"late", "early", "early", "late"})
		require.NoError(t, err)

		assert.Equal(t, 2, m.Len())
		assert.Equal(t, m.Get(counts.Key(0, 1)), m.Get(counts.Key(1, 0)))

		// Directed entries evolve independently once touched from outside.
		m.Add(counts.Key(1, 0), 10)
		assert.NotEqual(t, m.Get(counts.Key(0, 1)), m.Get(counts.Key(1, 0)))
	})
}

func TestCountSkipsUnknownTokens(t *testing.T) {
	v := vocab.New([]string{"a", "b"})
	c, m := newCounter(v, 2, false)

	n, err := c.Count([]string{"a", "zzz", "b", "zzz"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, m.Len())
	// The unknown token still occupies a position.
	assert.InDelta(t, 0.5, m.Get(counts.Key(0, 1)), 1e-4)
}

func TestCountRepeatedTokenNeverPairsWithItself(t *testing.T) {
	v := vocab.New([]string{"a"})
	c, m := newCounter(v, 5, true)

	n, err := c.Count([]string{"a", "a", "a"})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, m.Len())
}

func TestCountEmptyAndSingleton(t *testing.T) {
	v := vocab.New([]string{"a"})
	c, m := newCounter(v, 5, false)

	for _, seq := range [][]string{nil, {}, {"a"}} {
		n, err := c.Count(seq)
		require.NoError(t, err)
		assert.Zero(t, n)
	}
	assert.Zero(t, m.Len())
}

type failingGate struct{ err error }

func (g failingGate) Wait() error { return g.err }

func TestCountStopsWhenGateFails(t *testing.T) {
	v := vocab.New([]string{"a", "b"})
	boom := errors.New("aborted")
	c, m := newCounter(v, 2, false)
	c.Gate = failingGate{err: boom}

	_, err := c.Count([]string{"a", "b"})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, m.Len())
}
