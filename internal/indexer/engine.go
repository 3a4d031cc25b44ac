// Package indexer hosts the search engine: it validates and indexes
// documents, and answers match and top-k queries over the in-memory index.
// An Engine is not safe for concurrent use; hosts serialize access.
package indexer

import (
	"fmt"
	"iter"
	"log/slog"
	"maps"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

type Engine struct {
	memIndex   *index.MemoryIndex
	stopWords  tokenizer.StopWords
	maxResults int
	epsilon    float64
	logger     *slog.Logger
}

// NewEngine builds an empty engine. Zero MaxResults and RelevanceEpsilon
// take the defaults from config.Default.
func NewEngine(cfg config.EngineConfig) (*Engine, error) {
	defaults := config.Default().Engine
	if cfg.MaxResults == 0 {
		cfg.MaxResults = defaults.MaxResults
	}
	if cfg.RelevanceEpsilon == 0 {
		cfg.RelevanceEpsilon = defaults.RelevanceEpsilon
	}
	if cfg.MaxResults < 0 {
		return nil, apperrors.InvalidArgumentf("max results must be positive, got %d", cfg.MaxResults)
	}
	if cfg.RelevanceEpsilon < 0 {
		return nil, apperrors.InvalidArgumentf("relevance epsilon must not be negative, got %g", cfg.RelevanceEpsilon)
	}
	stop, err := tokenizer.NewStopWords(cfg.StopWords)
	if err != nil {
		return nil, fmt.Errorf("building stop words: %w", err)
	}
	return &Engine{
		memIndex:   index.NewMemoryIndex(),
		stopWords:  stop,
		maxResults: cfg.MaxResults,
		epsilon:    cfg.RelevanceEpsilon,
		logger:     slog.Default().With("component", "indexer"),
	}, nil
}

// AddDocument indexes text under id. Nothing is modified unless every
// check passes.
func (e *Engine) AddDocument(id int, text string, status document.Status, ratings []int) error {
	if id < 0 {
		return apperrors.InvalidArgumentf("document id %d is negative", id)
	}
	if e.memIndex.Has(id) {
		return fmt.Errorf("document %d: %w", id, apperrors.ErrDocumentExists)
	}
	if len(ratings) == 0 {
		return apperrors.InvalidArgumentf("document %d has no ratings", id)
	}
	words, err := e.stopWords.SplitNoStop(text)
	if err != nil {
		return fmt.Errorf("document %d: %w", id, err)
	}

	rating := averageRating(ratings)
	e.memIndex.Add(id, words, status, rating)
	e.logger.Debug("document indexed",
		"document_id", id,
		"words", len(words),
		"status", status,
		"rating", rating,
	)
	return nil
}

// RemoveDocument erases id from both maps and its metadata.
func (e *Engine) RemoveDocument(id int) error {
	if !e.memIndex.Remove(id) {
		return fmt.Errorf("removing document %d: %w", id, apperrors.ErrDocumentNotFound)
	}
	e.logger.Debug("document removed", "document_id", id)
	return nil
}

func (e *Engine) DocumentCount() int {
	return e.memIndex.Len()
}

// DocumentID returns the id at position i of the ascending id order.
func (e *Engine) DocumentID(i int) (int, error) {
	id, ok := e.memIndex.IDAt(i)
	if !ok {
		return 0, apperrors.OutOfRangef("document index %d not in [0, %d)", i, e.memIndex.Len())
	}
	return id, nil
}

// DocumentIDs yields live ids in ascending order. The engine must not be
// mutated while the sequence is being consumed.
func (e *Engine) DocumentIDs() iter.Seq[int] {
	return e.memIndex.IDs()
}

// WordFrequencies returns a copy of the term frequencies of id, or an empty
// map for an unknown id.
func (e *Engine) WordFrequencies(id int) map[string]float64 {
	tf, ok := e.memIndex.Frequencies(id)
	if !ok {
		return map[string]float64{}
	}
	return maps.Clone(tf)
}

// StopWords returns the engine's stop-word set.
func (e *Engine) StopWords() tokenizer.StopWords {
	return e.stopWords
}

// MaxResults is the top-k cap applied by FindTopDocuments.
func (e *Engine) MaxResults() int {
	return e.maxResults
}

// MatchDocument returns the plus words of query found in document id, in
// sorted order, along with its status. A single minus word found in the
// document empties the list.
func (e *Engine) MatchDocument(rawQuery string, id int) ([]string, document.Status, error) {
	q, err := parser.Parse(rawQuery, e.stopWords)
	if err != nil {
		return nil, 0, fmt.Errorf("matching document %d: %w", id, err)
	}
	info, ok := e.memIndex.Info(id)
	if !ok {
		return nil, 0, fmt.Errorf("matching document %d: %w", id, apperrors.ErrDocumentNotFound)
	}
	tf, _ := e.memIndex.Frequencies(id)

	for _, word := range q.Minus {
		if _, hit := tf[word]; hit {
			return []string{}, info.Status, nil
		}
	}
	matched := make([]string, 0, len(q.Plus))
	for _, word := range q.Plus {
		if _, hit := tf[word]; hit {
			matched = append(matched, word)
		}
	}
	return matched, info.Status, nil
}

// FindTopDocuments returns up to MaxResults documents matching query and
// pred, most relevant first. A nil pred selects ACTUAL documents.
func (e *Engine) FindTopDocuments(rawQuery string, pred document.Predicate) ([]document.Document, error) {
	q, err := parser.Parse(rawQuery, e.stopWords)
	if err != nil {
		return nil, fmt.Errorf("finding top documents: %w", err)
	}
	found := ranker.FindAll(e.memIndex, q, pred)
	return ranker.Top(found, e.epsilon, e.maxResults), nil
}

// FindTopDocumentsByStatus is FindTopDocuments with a status filter.
func (e *Engine) FindTopDocumentsByStatus(rawQuery string, status document.Status) ([]document.Document, error) {
	return e.FindTopDocuments(rawQuery, document.ByStatus(status))
}

// averageRating truncates toward zero.
func averageRating(ratings []int) int {
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}
