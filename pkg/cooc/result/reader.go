// Package result reads a finished co-occurrence file back as labeled pairs.
package result

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/record"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

// Pair is one co-occurring element pair and its accumulated weight.
type Pair struct {
	First  vocab.Element
	Second vocab.Element
	Weight float64
}

// Reader yields the pairs of a target file in file order. Single pass.
type Reader struct {
	records *record.Reader
	vocab   vocab.Index
}

// Open opens the plain-text target file at path.
func Open(path string, v vocab.Index) (*Reader, error) {
	r, err := record.OpenFile(path, record.CodecNone)
	if err != nil {
		return nil, fmt.Errorf("open result file: %w", err)
	}
	return &Reader{records: r, vocab: v}, nil
}

// NewReader reads pairs from r.
func NewReader(r io.Reader, v vocab.Index) (*Reader, error) {
	rr, err := record.NewReader(r, record.CodecNone)
	if err != nil {
		return nil, err
	}
	return &Reader{records: rr, vocab: v}, nil
}

// Next returns the next pair, or io.EOF when the file is exhausted.
func (r *Reader) Next() (Pair, error) {
	rec, err := r.records.Next()
	if err != nil {
		return Pair{}, err
	}
	first, ok := r.vocab.ElementAt(rec.A)
	if !ok {
		return Pair{}, fmt.Errorf("line %d: index %d: %w", r.records.Line(), rec.A, internalerr.ErrUnknownIndex)
	}
	second, ok := r.vocab.ElementAt(rec.B)
	if !ok {
		return Pair{}, fmt.Errorf("line %d: index %d: %w", r.records.Line(), rec.B, internalerr.ErrUnknownIndex)
	}
	return Pair{First: first, Second: second, Weight: rec.Weight}, nil
}

// All iterates the remaining pairs. Iteration stops after the first error,
// which is yielded with a zero Pair.
func (r *Reader) All() iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		for {
			p, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.records.Close()
}
