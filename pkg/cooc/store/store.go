// Package store persists finished co-occurrence tables for querying.
package store

import (
	"context"
	"iter"

	"github.com/cognicore/cooc/pkg/cooc/pmi"
	"github.com/cognicore/cooc/pkg/cooc/result"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

// Store is the interface for persisting and querying co-occurrence tables.
type Store interface {
	Close() error

	// Vocabulary
	ReplaceVocabulary(ctx context.Context, labels []string) error
	Vocabulary(ctx context.Context) (*vocab.Vocab, error)

	// Pairs. ImportPairs replaces the stored table; repeated pairs are
	// summed. It returns the number of records read.
	ImportPairs(ctx context.Context, pairs iter.Seq2[result.Pair, error]) (int64, error)
	PairWeight(ctx context.Context, a, b string) (float64, bool, error)
	PMI(ctx context.Context, a, b string) (float64, bool, error)
	TopNeighbors(ctx context.Context, token string, k int) ([]pmi.Neighbor, error)

	Stats(ctx context.Context) (Stats, error)
}

// Stats summarizes a stored table.
type Stats struct {
	Elements    int
	Pairs       int64
	TotalWeight float64
}
