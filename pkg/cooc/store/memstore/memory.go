package memstore

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/cognicore/cooc/pkg/cooc/counts"
	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/pmi"
	"github.com/cognicore/cooc/pkg/cooc/result"
	"github.com/cognicore/cooc/pkg/cooc/store"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

// Store is an in-memory implementation of store.Store, used by the CLI for
// one-off queries against a target file and by tests.
type Store struct {
	mu        sync.RWMutex
	vocab     *vocab.Vocab
	pairs     map[counts.PairKey]float64
	neighbors map[int]map[int]float64
	marginals *pmi.Marginals
	calc      *pmi.Calculator
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		vocab:     vocab.New(nil),
		pairs:     make(map[counts.PairKey]float64),
		neighbors: make(map[int]map[int]float64),
		marginals: pmi.NewMarginals(),
		calc:      pmi.NewCalculator(1e-9),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// ReplaceVocabulary implements store.Store.
func (s *Store) ReplaceVocabulary(ctx context.Context, labels []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocab = vocab.New(labels)
	return nil
}

// Vocabulary implements store.Store.
func (s *Store) Vocabulary(ctx context.Context) (*vocab.Vocab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vocab, nil
}

// ImportPairs implements store.Store.
func (s *Store) ImportPairs(ctx context.Context, pairs iter.Seq2[result.Pair, error]) (int64, error) {
	next := make(map[counts.PairKey]float64)
	var n int64
	for p, err := range pairs {
		if err != nil {
			return n, err
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		next[counts.Key(p.First.Index, p.Second.Index)] += p.Weight
		n++
	}

	neighbors := make(map[int]map[int]float64)
	marginals := pmi.NewMarginals()
	link := func(a, b int, w float64) {
		m := neighbors[a]
		if m == nil {
			m = make(map[int]float64)
			neighbors[a] = m
		}
		m[b] += w
	}
	for k, w := range next {
		a, b := int(k.A), int(k.B)
		marginals.Add(a, b, w)
		link(a, b, w)
		link(b, a, w)
	}

	s.mu.Lock()
	s.pairs = next
	s.neighbors = neighbors
	s.marginals = marginals
	s.mu.Unlock()
	return n, nil
}

func (s *Store) lookup(a, b string) (int, int, error) {
	ia, ok := s.vocab.IndexOf(a)
	if !ok {
		return 0, 0, fmt.Errorf("%w: token %q", internalerr.ErrNotFound, a)
	}
	ib, ok := s.vocab.IndexOf(b)
	if !ok {
		return 0, 0, fmt.Errorf("%w: token %q", internalerr.ErrNotFound, b)
	}
	return ia, ib, nil
}

// PairWeight implements store.Store. The weight is summed over both
// orderings of the pair.
func (s *Store) PairWeight(ctx context.Context, a, b string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ia, ib, err := s.lookup(a, b)
	if err != nil {
		return 0, false, err
	}
	w, ok := s.neighbors[ia][ib]
	return w, ok, nil
}

// PMI implements store.Store.
func (s *Store) PMI(ctx context.Context, a, b string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ia, ib, err := s.lookup(a, b)
	if err != nil {
		return 0, false, err
	}
	w, ok := s.neighbors[ia][ib]
	if !ok {
		return 0, false, nil
	}
	return s.calc.PMI(w, s.marginals.Of(ia), s.marginals.Of(ib), s.marginals.Total()), true, nil
}

// TopNeighbors implements store.Store.
func (s *Store) TopNeighbors(ctx context.Context, token string, k int) ([]pmi.Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.vocab.IndexOf(token)
	if !ok {
		return nil, fmt.Errorf("%w: token %q", internalerr.ErrNotFound, token)
	}

	var out []pmi.Neighbor
	for other, w := range s.neighbors[idx] {
		n := pmi.Neighbor{
			Index:  other,
			Weight: w,
			PMI:    s.calc.PMI(w, s.marginals.Of(idx), s.marginals.Of(other), s.marginals.Total()),
		}
		if e, ok := s.vocab.ElementAt(other); ok {
			n.Label = e.Label
		}
		out = append(out, n)
	}
	return pmi.Rank(out, k), nil
}

// Stats implements store.Store.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Stats{
		Elements:    s.vocab.Len(),
		Pairs:       int64(len(s.pairs)),
		TotalWeight: s.marginals.Total(),
	}, nil
}
