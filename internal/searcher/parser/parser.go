// Package parser turns a raw query string into plus (required) and minus
// (excluded) word sets.
package parser

import (
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Query is a parsed query. Plus and Minus are sorted, duplicate-free and
// disjoint.
type Query struct {
	Plus     []string
	Minus    []string
	RawQuery string
}

// Empty reports whether the query has no words left after stop-word
// filtering.
func (q *Query) Empty() bool {
	return len(q.Plus) == 0 && len(q.Minus) == 0
}

// Parse classifies each word of raw. Validity is checked before stop-word
// filtering, so a stop word with a control character still fails. A word
// that is both plus and minus is kept only as minus.
func Parse(raw string, stop tokenizer.StopWords) (*Query, error) {
	plus := make(map[string]struct{})
	minus := make(map[string]struct{})

	for _, word := range tokenizer.SplitIntoWords(raw) {
		if !tokenizer.IsValidWord(word) {
			return nil, apperrors.InvalidArgumentf("query word %q contains control characters", word)
		}
		if stop.Contains(word) {
			continue
		}
		if strings.HasPrefix(word, "--") {
			return nil, apperrors.InvalidArgumentf("query word %q starts with two minuses", word)
		}
		if word == "-" {
			return nil, apperrors.InvalidArgumentf("query has a minus without a word")
		}
		if stripped, ok := strings.CutPrefix(word, "-"); ok {
			if !stop.Contains(stripped) {
				minus[stripped] = struct{}{}
			}
			continue
		}
		plus[word] = struct{}{}
	}

	for w := range minus {
		delete(plus, w)
	}

	return &Query{
		Plus:     sortedKeys(plus),
		Minus:    sortedKeys(minus),
		RawQuery: raw,
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
