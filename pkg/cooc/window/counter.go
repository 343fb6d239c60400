// Package window turns token sequences into weighted pair increments using a
// forward sliding window with harmonic distance decay.
package window

import (
	"github.com/cognicore/cooc/pkg/cooc/counts"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

// Epsilon keeps the weight 1/(distance+Epsilon) finite and slightly below 1
// for adjacent tokens.
const Epsilon = 1e-5

// DefaultSize is the forward neighbor span used when none is configured.
const DefaultSize = 5

// Sink receives increments. counts.Live and counts.Map both satisfy it.
type Sink interface {
	Add(k counts.PairKey, delta float64)
}

// Gate is consulted before every increment and may block for backpressure.
type Gate interface {
	Wait() error
}

type openGate struct{}

func (openGate) Wait() error { return nil }

// Counter applies the windowing rule to single sequences. It holds no
// per-sequence state and is safe for concurrent use if its Sink is.
type Counter struct {
	Vocab     vocab.Index
	Sink      Sink
	Gate      Gate
	Size      int
	Symmetric bool
}

// Weight returns the contribution of a neighbor at the given distance.
func Weight(distance int) float64 {
	return 1.0 / (float64(distance) + Epsilon)
}

// Count emits the increments for one sequence and returns how many pair
// entries it touched. Tokens missing from the vocabulary are skipped; they
// still occupy their position, so they widen the distance between the
// tokens around them.
func (c *Counter) Count(tokens []string) (int, error) {
	size := c.Size
	if size <= 0 {
		size = DefaultSize
	}
	gate := c.Gate
	if gate == nil {
		gate = openGate{}
	}

	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		idx, ok := c.Vocab.IndexOf(tok)
		if !ok {
			idx = -1
		}
		ids[i] = idx
	}

	n := len(ids)
	emitted := 0
	for x := 0; x < n; x++ {
		wordIdx := ids[x]
		if wordIdx < 0 {
			continue
		}

		stop := x + size
		if stop > n-1 {
			stop = n - 1
		}
		for j := x + 1; j <= stop; j++ {
			other := ids[j]
			if other < 0 || other == wordIdx {
				continue
			}
			w := Weight(j - x)

			if err := gate.Wait(); err != nil {
				return emitted, err
			}

			lo, hi := wordIdx, other
			if lo > hi {
				lo, hi = hi, lo
			}
			c.Sink.Add(counts.Key(lo, hi), w)
			emitted++
			if c.Symmetric {
				c.Sink.Add(counts.Key(hi, lo), w)
				emitted++
			}
		}
	}
	return emitted, nil
}
