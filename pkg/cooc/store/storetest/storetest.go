// Package storetest holds behavior tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"iter"
	"math"
	"testing"

	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/result"
	"github.com/cognicore/cooc/pkg/cooc/store"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

// Pairs adapts a slice to the ImportPairs input.
func Pairs(ps []result.Pair) iter.Seq2[result.Pair, error] {
	return func(yield func(result.Pair, error) bool) {
		for _, p := range ps {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func pair(v *vocab.Vocab, a, b string, w float64) result.Pair {
	ea, _ := v.ElementFor(a)
	eb, _ := v.ElementFor(b)
	return result.Pair{First: ea, Second: eb, Weight: w}
}

// Run exercises open() against the store.Store contract.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("Vocabulary", func(t *testing.T) { testVocabulary(t, open(t)) })
	t.Run("Import", func(t *testing.T) { testImport(t, open(t)) })
	t.Run("Neighbors", func(t *testing.T) { testNeighbors(t, open(t)) })
	t.Run("ImportError", func(t *testing.T) { testImportError(t, open(t)) })
	t.Run("Reimport", func(t *testing.T) { testReimport(t, open(t)) })
}

func seed(t *testing.T, st store.Store) *vocab.Vocab {
	t.Helper()
	ctx := context.Background()
	labels := []string{"a", "b", "c", "d"}
	if err := st.ReplaceVocabulary(ctx, labels); err != nil {
		t.Fatalf("ReplaceVocabulary: %v", err)
	}
	v := vocab.New(labels)
	n, err := st.ImportPairs(ctx, Pairs([]result.Pair{
		pair(v, "a", "b", 4),
		pair(v, "b", "c", 1),
		pair(v, "a", "c", 1),
		pair(v, "a", "b", 1),
	}))
	if err != nil {
		t.Fatalf("ImportPairs: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 records read, got %d", n)
	}
	return v
}

func testVocabulary(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()
	if err := st.ReplaceVocabulary(ctx, []string{"x", "y", "x"}); err != nil {
		t.Fatalf("ReplaceVocabulary: %v", err)
	}
	if err := st.ReplaceVocabulary(ctx, []string{"p", "q", "r"}); err != nil {
		t.Fatalf("ReplaceVocabulary: %v", err)
	}
	v, err := st.Vocabulary(ctx)
	if err != nil {
		t.Fatalf("Vocabulary: %v", err)
	}
	got := v.Labels()
	if len(got) != 3 || got[0] != "p" || got[2] != "r" {
		t.Errorf("unexpected vocabulary %v", got)
	}
}

func testImport(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()
	seed(t, st)

	w, ok, err := st.PairWeight(ctx, "b", "a")
	if err != nil || !ok {
		t.Fatalf("PairWeight(b, a): %v %v", ok, err)
	}
	if w != 5 {
		t.Errorf("expected merged weight 5, got %f", w)
	}

	if _, ok, err := st.PairWeight(ctx, "a", "d"); err != nil || ok {
		t.Errorf("expected absent pair, got ok=%v err=%v", ok, err)
	}
	if _, _, err := st.PairWeight(ctx, "a", "zzz"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Elements != 4 || stats.Pairs != 3 || stats.TotalWeight != 7 {
		t.Errorf("unexpected stats %+v", stats)
	}

	pmiAB, ok, err := st.PMI(ctx, "a", "b")
	if err != nil || !ok {
		t.Fatalf("PMI(a, b): %v %v", ok, err)
	}
	// 2 * w_ab * T / (w_a * w_b) with w_a = w_b = 6, T = 7.
	if want := math.Log(70.0 / 36.0); math.Abs(pmiAB-want) > 1e-6 {
		t.Errorf("PMI(a, b) = %f, want %f", pmiAB, want)
	}
	if _, ok, _ := st.PMI(ctx, "a", "d"); ok {
		t.Error("PMI of absent pair should report not found")
	}
}

func testNeighbors(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()
	seed(t, st)

	ns, err := st.TopNeighbors(ctx, "a", 10)
	if err != nil {
		t.Fatalf("TopNeighbors: %v", err)
	}
	if len(ns) != 2 {
		t.Fatalf("expected 2 neighbors, got %+v", ns)
	}
	if ns[0].Label != "b" || ns[1].Label != "c" {
		t.Errorf("unexpected order %+v", ns)
	}
	if ns[0].Weight != 5 || ns[0].PMI <= ns[1].PMI {
		t.Errorf("unexpected scores %+v", ns)
	}

	ns, err = st.TopNeighbors(ctx, "a", 1)
	if err != nil || len(ns) != 1 {
		t.Errorf("expected 1 neighbor with k=1, got %v %v", ns, err)
	}

	ns, err = st.TopNeighbors(ctx, "d", 5)
	if err != nil || len(ns) != 0 {
		t.Errorf("expected no neighbors for d, got %v %v", ns, err)
	}

	if _, err := st.TopNeighbors(ctx, "zzz", 5); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testImportError(t *testing.T, st store.Store) {
	defer st.Close()
	boom := errors.New("broken file")
	seq := func(yield func(result.Pair, error) bool) {
		if !yield(result.Pair{Weight: 1}, nil) {
			return
		}
		yield(result.Pair{}, boom)
	}
	if _, err := st.ImportPairs(context.Background(), seq); !errors.Is(err, boom) {
		t.Errorf("expected import error, got %v", err)
	}
}

func testReimport(t *testing.T, st store.Store) {
	defer st.Close()
	ctx := context.Background()
	v := seed(t, st)

	if _, err := st.ImportPairs(ctx, Pairs([]result.Pair{pair(v, "c", "d", 2)})); err != nil {
		t.Fatalf("ImportPairs: %v", err)
	}
	if _, ok, _ := st.PairWeight(ctx, "a", "b"); ok {
		t.Error("reimport should replace earlier pairs")
	}
	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Pairs != 1 || stats.TotalWeight != 2 {
		t.Errorf("unexpected stats after reimport %+v", stats)
	}
}
