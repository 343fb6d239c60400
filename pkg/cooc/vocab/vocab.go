// Package vocab defines the vocabulary index the counters resolve tokens
// through, plus a small in-memory implementation.
//
// Building or pruning a vocabulary is the caller's job; this package only
// maps tokens to stable integer indices and back.
package vocab

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Element is a vocabulary entry. Two elements are equal when their indices are.
type Element struct {
	Label string
	Index int
}

// Index resolves tokens to elements and back. Implementations must be safe
// for concurrent readers.
type Index interface {
	// IndexOf returns the index of token, or false if it is not in the vocabulary.
	IndexOf(token string) (int, bool)
	// ElementAt returns the element stored at index i.
	ElementAt(i int) (Element, bool)
	// ElementFor returns the element for token.
	ElementFor(token string) (Element, bool)
}

// Vocab is an immutable in-memory Index. Indices follow insertion order.
type Vocab struct {
	elements []Element
	byLabel  map[string]int
}

// New builds a vocabulary from labels. Repeated and empty labels are ignored,
// so the first occurrence fixes the index.
func New(labels []string) *Vocab {
	v := &Vocab{
		elements: make([]Element, 0, len(labels)),
		byLabel:  make(map[string]int, len(labels)),
	}
	for _, label := range labels {
		if label == "" {
			continue
		}
		if _, ok := v.byLabel[label]; ok {
			continue
		}
		idx := len(v.elements)
		v.elements = append(v.elements, Element{Label: label, Index: idx})
		v.byLabel[label] = idx
	}
	return v
}

// IndexOf implements Index.
func (v *Vocab) IndexOf(token string) (int, bool) {
	idx, ok := v.byLabel[token]
	return idx, ok
}

// ElementAt implements Index.
func (v *Vocab) ElementAt(i int) (Element, bool) {
	if i < 0 || i >= len(v.elements) {
		return Element{}, false
	}
	return v.elements[i], true
}

// ElementFor implements Index.
func (v *Vocab) ElementFor(token string) (Element, bool) {
	idx, ok := v.byLabel[token]
	if !ok {
		return Element{}, false
	}
	return v.elements[idx], true
}

// Len returns the number of elements.
func (v *Vocab) Len() int {
	return len(v.elements)
}

// Labels returns the labels in index order.
func (v *Vocab) Labels() []string {
	out := make([]string, len(v.elements))
	for i, e := range v.elements {
		out[i] = e.Label
	}
	return out
}

// LoadYAML loads a vocabulary from a YAML file.
//
// Expected format:
//
//	tokens:
//	  - machine
//	  - learning
//	  - transformer
//
// The position in the list is the index. Labels are lowercased to match the
// tokenizer's normalization.
func LoadYAML(path string) (*Vocab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Tokens []string `yaml:"tokens"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}

	labels := make([]string, 0, len(file.Tokens))
	for _, t := range file.Tokens {
		labels = append(labels, strings.ToLower(strings.TrimSpace(t)))
	}
	return New(labels), nil
}

// WriteYAML writes v in the format LoadYAML reads.
func WriteYAML(path string, v *Vocab) error {
	data, err := yaml.Marshal(struct {
		Tokens []string `yaml:"tokens"`
	}{Tokens: v.Labels()})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
