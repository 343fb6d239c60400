package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cognicore/cooc/pkg/cooc/result"
	"github.com/cognicore/cooc/pkg/cooc/store"
	"github.com/cognicore/cooc/pkg/cooc/store/storetest"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		return st
	})
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "persist.db")

	st, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := st.ReplaceVocabulary(ctx, []string{"x", "y"}); err != nil {
		t.Fatalf("ReplaceVocabulary: %v", err)
	}
	pairs := []result.Pair{{
		First:  vocab.Element{Label: "x", Index: 0},
		Second: vocab.Element{Label: "y", Index: 1},
		Weight: 0.75,
	}}
	if _, err := st.ImportPairs(ctx, storetest.Pairs(pairs)); err != nil {
		t.Fatalf("ImportPairs: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	w, ok, err := st.PairWeight(ctx, "y", "x")
	if err != nil || !ok || w != 0.75 {
		t.Errorf("expected persisted weight 0.75, got %f %v %v", w, ok, err)
	}
	v, err := st.Vocabulary(ctx)
	if err != nil || v.Len() != 2 {
		t.Errorf("expected persisted vocabulary, got %v %v", v, err)
	}
}
