// Package sequence provides the token-sequence feeds counting workers drain.
package sequence

import (
	"io"
	"sync"
)

// Source yields token sequences. Next returns io.EOF once the source is
// exhausted; Reset rewinds it to the first sequence.
//
// Sources handed to the counting engine are wrapped with Synchronize, so an
// implementation only needs to be safe for a single caller.
type Source interface {
	Reset() error
	HasMore() bool
	Next() ([]string, error)
}

// Synchronized serializes access to a Source so any number of workers can
// share it without two of them receiving the same sequence.
type Synchronized struct {
	mu    sync.Mutex
	inner Source
}

// Synchronize wraps src. Already synchronized sources are returned as is.
func Synchronize(src Source) *Synchronized {
	if s, ok := src.(*Synchronized); ok {
		return s
	}
	return &Synchronized{inner: src}
}

// Reset implements Source.
func (s *Synchronized) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Reset()
}

// HasMore implements Source. The answer may be stale by the time the caller
// acts on it; workers rely on Next returning io.EOF instead.
func (s *Synchronized) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.HasMore()
}

// Next implements Source.
func (s *Synchronized) Next() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inner.HasMore() {
		return nil, io.EOF
	}
	return s.inner.Next()
}

// Slice is an in-memory Source over pre-tokenized sequences.
type Slice struct {
	seqs [][]string
	pos  int
}

// FromSlice creates a Source over seqs. The slices are not copied.
func FromSlice(seqs [][]string) *Slice {
	return &Slice{seqs: seqs}
}

// Reset implements Source.
func (s *Slice) Reset() error {
	s.pos = 0
	return nil
}

// HasMore implements Source.
func (s *Slice) HasMore() bool {
	return s.pos < len(s.seqs)
}

// Next implements Source.
func (s *Slice) Next() ([]string, error) {
	if s.pos >= len(s.seqs) {
		return nil, io.EOF
	}
	seq := s.seqs[s.pos]
	s.pos++
	return seq, nil
}
