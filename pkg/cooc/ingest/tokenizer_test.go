package ingest

import (
	"reflect"
	"strings"
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

func TestTokenizerKeepsOrder(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("dog bites man, man bites dog")

	expected := []string{"dog", "bites", "man", "man", "bites", "dog"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Duplicates and order must be preserved: got %v", tokens)
	}
}

func TestTokenizerHyphens(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("--machine--learning-- and deep-learning")

	expected := []string{"machine-learning", "and", "deep-learning"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestTokenizerCaseNormalization(t *testing.T) {
	tokenizer := NewTokenizer([]string{"THE"})

	tokens := tokenizer.Tokenize("The BERT GPT-4 Transformer")

	for _, tok := range tokens {
		if tok != strings.ToLower(tok) {
			t.Errorf("Token %s should be lowercased", tok)
		}
		if tok == "the" {
			t.Error("Stopwords should match case-insensitively")
		}
	}
}

func TestTokenizerDropsNumbersAndShortTokens(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	tokens := tokenizer.Tokenize("x 2024 10-20 utf-8 python3 go")

	expected := []string{"utf-8", "python3", "go"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Expected %v, got %v", expected, tokens)
	}
}

func TestTokenizerMinLength(t *testing.T) {
	tokenizer := NewTokenizer(nil)
	tokenizer.SetMinLength(0)

	tokens := tokenizer.Tokenize("a b cd")
	if len(tokens) != 3 {
		t.Errorf("Expected 3 tokens with min length 1, got %v", tokens)
	}

	tokenizer.SetMinLength(3)
	tokens = tokenizer.Tokenize("a b cd éèà")
	if !reflect.DeepEqual(tokens, []string{"éèà"}) {
		t.Errorf("Min length should count runes, got %v", tokens)
	}
}

func TestAddRemoveStopword(t *testing.T) {
	tokenizer := NewTokenizer([]string{"the"})

	tokens := tokenizer.Tokenize("the cat")
	if len(tokens) != 1 || tokens[0] != "cat" {
		t.Error("Should filter 'the'")
	}

	tokenizer.RemoveStopword("THE")
	if tokens = tokenizer.Tokenize("the cat"); len(tokens) != 2 {
		t.Error("'the' should not be filtered after removal")
	}

	tokenizer.AddStopword("Cat")
	if tokens = tokenizer.Tokenize("the cat"); len(tokens) != 1 || tokens[0] != "the" {
		t.Errorf("'cat' should be filtered after adding, got %v", tokens)
	}
}

func TestTokenizerEmpty(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	if tokens := tokenizer.Tokenize("  ... !!! "); len(tokens) != 0 {
		t.Errorf("Expected no tokens, got %v", tokens)
	}
}
