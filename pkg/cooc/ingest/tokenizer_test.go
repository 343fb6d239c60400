package ingest

import (
	"reflect"
	"testing"
)

func TestTokenizerBasic(t *testing.T) {
	tokenizer := NewTokenizer([]string{"the", "a", "and", "of"})

	tokens := tokenizer.Tokenize("The quick brown fox jumps over the lazy dog")
	expected := []string{"quick", "brown", "fox", "jumps", "over", "lazy", "dog"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestTokenizerHyphens(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("--machine-learning and deep--learning")
	expected := []string{"machine-learning", "and", "deep-learning"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestTokenizerNumbersAndShortTokens(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("In 2024 a GPT-4 model x beat python3")
	expected := []string{"in", "gpt-4", "model", "beat", "python3"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}

	tokenizer.KeepNumbers = true
	tokenizer.MinLength = 1
	tokens = tokenizer.Tokenize("a 2024")
	if !reflect.DeepEqual(tokens, []string{"a", "2024"}) {
		t.Errorf("Expected numbers and short tokens to be kept, got %v", tokens)
	}
}

func TestTokenizerSynonyms(t *testing.T) {
	tokenizer := NewTokenizer([]string{"ml"})
	tokenizer.SetSynonyms(map[string]string{"Gaming": "game", "machine-learning": "ml"})

	tokens := tokenizer.Tokenize("gaming machine-learning games")
	expected := []string{"game", "games"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestTokenizerStopwordEditing(t *testing.T) {
	tokenizer := NewTokenizer(nil)
	tokenizer.AddStopword("Fox")
	if got := tokenizer.Tokenize("red fox"); !reflect.DeepEqual(got, []string{"red"}) {
		t.Errorf("AddStopword not applied: %v", got)
	}
	tokenizer.RemoveStopword("fox")
	if got := tokenizer.Tokenize("red fox"); !reflect.DeepEqual(got, []string{"red", "fox"}) {
		t.Errorf("RemoveStopword not applied: %v", got)
	}
}

func TestSentences(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	got := tokenizer.Sentences("The cat sat. Did it?! Yes\nit did\n\nNew paragraph here")
	expected := [][]string{
		{"the", "cat", "sat"},
		{"did", "it"},
		{"yes", "it", "did"},
		{"new", "paragraph", "here"},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestSentencesEmpty(t *testing.T) {
	tokenizer := NewTokenizer(nil)
	if got := tokenizer.Sentences("... !!"); len(got) != 0 {
		t.Errorf("Expected no sentences, got %v", got)
	}
}
