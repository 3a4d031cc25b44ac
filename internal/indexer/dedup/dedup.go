// Package dedup removes documents whose distinct-word sets repeat an
// earlier document's set.
package dedup

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// Corpus is the part of the engine the detector reads and mutates.
type Corpus interface {
	DocumentIDs() iter.Seq[int]
	WordFrequencies(id int) map[string]float64
	RemoveDocument(id int) error
}

// RemoveDuplicates keeps the lowest id of every group of documents sharing
// the same set of words and removes the rest. Removed ids are logged and
// returned in ascending order. Frequencies are ignored.
func RemoveDuplicates(ctx context.Context, c Corpus) ([]int, error) {
	logger := slog.Default().With("component", "dedup")

	seen := make(map[string]struct{})
	var duplicates []int
	for id := range c.DocumentIDs() {
		key := wordSetKey(c.WordFrequencies(id))
		if _, ok := seen[key]; ok {
			duplicates = append(duplicates, id)
			continue
		}
		seen[key] = struct{}{}
	}

	removed := make([]int, 0, len(duplicates))
	for _, id := range duplicates {
		if err := ctx.Err(); err != nil {
			return removed, fmt.Errorf("removing duplicates: %w", err)
		}
		if err := c.RemoveDocument(id); err != nil {
			return removed, fmt.Errorf("removing duplicate document %d: %w", id, err)
		}
		logger.Info("found duplicate document", "document_id", id)
		removed = append(removed, id)
	}
	return removed, nil
}

// wordSetKey joins the sorted words with a space, which never occurs inside
// a word.
func wordSetKey(tf map[string]float64) string {
	return strings.Join(slices.Sorted(maps.Keys(tf)), " ")
}
