// Package ingest turns raw text into the token sequences the counters
// consume.
package ingest

import (
	"strings"
	"unicode"
)

// Tokenizer lowercases text, splits it into word tokens and drops
// stopwords. Sentences splits on terminal punctuation so a window never
// spans two sentences.
type Tokenizer struct {
	stopwords map[string]struct{}
	synonyms  map[string]string
	// MinLength drops shorter tokens. Defaults to 2.
	MinLength int
	// KeepNumbers retains pure-numeric tokens such as "2024".
	KeepNumbers bool
}

// NewTokenizer creates a tokenizer with the given stopword list.
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops, MinLength: 2}
}

// SetSynonyms maps variant spellings to a canonical token. Keys and values
// are lowercased. Stopword filtering applies to the canonical form.
func (t *Tokenizer) SetSynonyms(synonyms map[string]string) {
	t.synonyms = make(map[string]string, len(synonyms))
	for k, v := range synonyms {
		t.synonyms[strings.ToLower(k)] = strings.ToLower(v)
	}
}

// Tokenize splits text into normalized tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	t.scan(text, func(tok string) {
		tokens = append(tokens, tok)
	}, nil)
	return tokens
}

// Sentences splits text on '.', '!', '?' and blank lines, then tokenizes
// each part. Empty sentences are dropped.
func (t *Tokenizer) Sentences(text string) [][]string {
	var (
		out     [][]string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, current)
			current = nil
		}
	}
	t.scan(text, func(tok string) {
		current = append(current, tok)
	}, flush)
	flush()
	return out
}

func (t *Tokenizer) scan(text string, emit func(string), boundary func()) {
	var current strings.Builder
	newlines := 0
	end := func() {
		if current.Len() == 0 {
			return
		}
		if word := t.processToken(current.String()); word != "" {
			emit(word)
		}
		current.Reset()
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-':
			current.WriteRune(unicode.ToLower(r))
			newlines = 0
			continue
		case r == '.' || r == '!' || r == '?':
			end()
			if boundary != nil {
				boundary()
			}
		case r == '\n':
			end()
			newlines++
			if newlines >= 2 && boundary != nil {
				boundary()
			}
			continue
		default:
			end()
		}
		if !unicode.IsSpace(r) {
			newlines = 0
		}
	}
	end()
}

func (t *Tokenizer) processToken(token string) string {
	word := strings.Trim(token, "-")
	for strings.Contains(word, "--") {
		word = strings.ReplaceAll(word, "--", "-")
	}

	minLen := t.MinLength
	if minLen <= 0 {
		minLen = 1
	}
	if len([]rune(word)) < minLen {
		return ""
	}
	if !t.KeepNumbers && isNumericOnly(word) {
		return ""
	}
	if canon, ok := t.synonyms[word]; ok {
		word = canon
	}
	if _, stop := t.stopwords[word]; stop {
		return ""
	}
	return word
}

// isNumericOnly reports whether s has only digits and hyphens.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

// AddStopword adds a word to the stopword list.
func (t *Tokenizer) AddStopword(word string) {
	t.stopwords[strings.ToLower(word)] = struct{}{}
}

// RemoveStopword removes a word from the stopword list.
func (t *Tokenizer) RemoveStopword(word string) {
	delete(t.stopwords, strings.ToLower(word))
}
