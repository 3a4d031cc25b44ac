// Package tokenizer splits document and query text into words and holds
// the stop-word set shared by indexing and query parsing. Words are taken
// literally: no case folding, stemming or punctuation handling.
package tokenizer

import (
	"slices"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// SplitIntoWords returns the non-empty words of text delimited by the plain
// space character. Tabs and newlines stay inside words.
func SplitIntoWords(text string) []string {
	words := make([]string, 0, strings.Count(text, " ")+1)
	for word := range strings.SplitSeq(text, " ") {
		if word != "" {
			words = append(words, word)
		}
	}
	return words
}

// IsValidWord reports whether word is free of control characters (bytes
// below the space character).
func IsValidWord(word string) bool {
	for i := 0; i < len(word); i++ {
		if word[i] < ' ' {
			return false
		}
	}
	return true
}

// StopWords is an immutable set of words ignored by indexing and queries.
// The zero value is an empty set.
type StopWords struct {
	set map[string]struct{}
}

// NewStopWords builds a set from words, dropping empty strings and
// duplicates.
func NewStopWords(words []string) (StopWords, error) {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if !IsValidWord(w) {
			return StopWords{}, apperrors.InvalidArgumentf("stop word %q contains control characters", w)
		}
		set[w] = struct{}{}
	}
	return StopWords{set: set}, nil
}

// StopWordsFromText builds a set from the space-separated words of text.
func StopWordsFromText(text string) (StopWords, error) {
	return NewStopWords(SplitIntoWords(text))
}

// Contains reports whether word is a stop word.
func (s StopWords) Contains(word string) bool {
	_, ok := s.set[word]
	return ok
}

// Len returns the number of distinct stop words.
func (s StopWords) Len() int {
	return len(s.set)
}

// Words returns the stop words in sorted order.
func (s StopWords) Words() []string {
	out := make([]string, 0, len(s.set))
	for w := range s.set {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// SplitNoStop splits text and drops stop words. It fails on the first word
// containing a control character, before any word is returned.
func (s StopWords) SplitNoStop(text string) ([]string, error) {
	words := SplitIntoWords(text)
	kept := words[:0]
	for _, w := range words {
		if !IsValidWord(w) {
			return nil, apperrors.InvalidArgumentf("word %q contains control characters", w)
		}
		if !s.Contains(w) {
			kept = append(kept, w)
		}
	}
	return kept, nil
}
