// Package service serializes every engine and tracker access behind one
// mutex so the HTTP handler and the Kafka consumer can share a single
// in-memory index. It also owns the query cache, its invalidation and the
// engine metrics.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/dedup"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

// SearchResult is the outcome of one Search call.
type SearchResult struct {
	Query    string              `json:"query"`
	Plus     []string            `json:"plus_words"`
	Minus    []string            `json:"minus_words"`
	Results  []document.Document `json:"results"`
	CacheHit bool                `json:"cache_hit"`
}

// MatchResult is the outcome of one Match call.
type MatchResult struct {
	DocumentID int             `json:"document_id"`
	Words      []string        `json:"words"`
	Status     document.Status `json:"status"`
}

// Stats summarizes the engine, the tracker and the cache.
type Stats struct {
	Documents   int             `json:"documents"`
	MaxResults  int             `json:"max_results"`
	Generation  uint64          `json:"generation"`
	Tracker     analytics.Stats `json:"tracker"`
	CacheHits   int64           `json:"cache_hits"`
	CacheMisses int64           `json:"cache_misses"`
}

// Service is safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	engine  *indexer.Engine
	tracker *analytics.RequestTracker

	// generation increases under mu on every successful mutation and is
	// part of every cache key, so stale entries become unreachable.
	generation atomic.Uint64

	cache   *cache.QueryCache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New wraps engine and tracker. The tracker must wrap the same engine.
// qc and m may be nil.
func New(engine *indexer.Engine, tracker *analytics.RequestTracker, qc *cache.QueryCache, m *metrics.Metrics) *Service {
	return &Service{
		engine:  engine,
		tracker: tracker,
		cache:   qc,
		metrics: m,
		logger:  slog.Default().With("component", "search-service"),
	}
}

func (s *Service) AddDocument(ctx context.Context, id int, text string, status document.Status, ratings []int) error {
	s.mu.Lock()
	err := s.engine.AddDocument(id, text, status, ratings)
	if err == nil {
		s.generation.Add(1)
	}
	count := s.engine.DocumentCount()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.setDocumentCount(count)
	if s.metrics != nil {
		s.metrics.DocsIndexedTotal.Inc()
	}
	logger.FromContext(ctx).Info("document added", "document_id", id, "status", status)
	return nil
}

func (s *Service) RemoveDocument(ctx context.Context, id int) error {
	s.mu.Lock()
	err := s.engine.RemoveDocument(id)
	if err == nil {
		s.generation.Add(1)
	}
	count := s.engine.DocumentCount()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.setDocumentCount(count)
	if s.metrics != nil {
		s.metrics.DocsRemovedTotal.Inc()
	}
	logger.FromContext(ctx).Info("document removed", "document_id", id)
	return nil
}

// RemoveDuplicates runs duplicate detection under the service lock.
func (s *Service) RemoveDuplicates(ctx context.Context) ([]int, error) {
	s.mu.Lock()
	removed, err := dedup.RemoveDuplicates(ctx, s.engine)
	if len(removed) > 0 {
		s.generation.Add(1)
	}
	count := s.engine.DocumentCount()
	s.mu.Unlock()

	if len(removed) > 0 {
		s.setDocumentCount(count)
		if s.metrics != nil {
			s.metrics.DuplicatesRemovedTotal.Add(float64(len(removed)))
			s.metrics.DocsRemovedTotal.Add(float64(len(removed)))
		}
	}
	if err != nil {
		return removed, err
	}
	logger.FromContext(ctx).Info("duplicates removed", "count", len(removed))
	return removed, nil
}

// Search returns the top documents with the given status. Successful
// searches are recorded by the request tracker, cache hits included.
func (s *Service) Search(ctx context.Context, rawQuery string, status document.Status) (*SearchResult, error) {
	start := time.Now()
	q, err := parser.Parse(rawQuery, s.engine.StopWords())
	if err != nil {
		s.observeSearch("error", "none", start, 0)
		return nil, fmt.Errorf("searching %q: %w", rawQuery, err)
	}
	pred := document.ByStatus(status)

	var (
		docs []document.Document
		hit  bool
	)
	if s.cache == nil {
		s.mu.Lock()
		docs, err = s.tracker.AddFindRequest(rawQuery, pred)
		s.mu.Unlock()
	} else {
		key := cache.Key{
			Generation: s.generation.Load(),
			Query:      q,
			Status:     status,
			MaxResults: s.engine.MaxResults(),
		}
		docs, hit, err = s.cache.GetOrCompute(ctx, key, func() ([]document.Document, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.engine.FindTopDocuments(rawQuery, pred)
		})
		if err == nil {
			s.mu.Lock()
			s.tracker.Record(len(docs) == 0)
			s.mu.Unlock()
		}
	}
	if err != nil {
		s.observeSearch("error", "none", start, 0)
		return nil, fmt.Errorf("searching %q: %w", rawQuery, err)
	}

	resultType := "hit"
	if len(docs) == 0 {
		resultType = "zero_result"
	}
	cacheStatus := "disabled"
	if s.cache != nil {
		cacheStatus = "miss"
		if hit {
			cacheStatus = "hit"
		}
	}
	s.observeSearch(resultType, cacheStatus, start, len(docs))

	logger.FromContext(ctx).Debug("query executed",
		"query", rawQuery,
		"plus", q.Plus,
		"minus", q.Minus,
		"results", len(docs),
		"cache", cacheStatus,
	)
	return &SearchResult{
		Query:    rawQuery,
		Plus:     q.Plus,
		Minus:    q.Minus,
		Results:  docs,
		CacheHit: hit,
	}, nil
}

func (s *Service) Match(ctx context.Context, rawQuery string, id int) (*MatchResult, error) {
	s.mu.Lock()
	words, status, err := s.engine.MatchDocument(rawQuery, id)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &MatchResult{DocumentID: id, Words: words, Status: status}, nil
}

// WordFrequencies returns the term frequencies of id; empty if unknown.
func (s *Service) WordFrequencies(id int) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.WordFrequencies(id)
}

// DocumentIDs returns a snapshot of the live ids in ascending order.
func (s *Service) DocumentIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(s.engine.DocumentIDs())
}

// TrackerStats implements analytics.StatsSource.
func (s *Service) TrackerStats() analytics.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Snapshot()
}

func (s *Service) Stats() Stats {
	s.mu.Lock()
	stats := Stats{
		Documents:  s.engine.DocumentCount(),
		MaxResults: s.engine.MaxResults(),
		Generation: s.generation.Load(),
		Tracker:    s.tracker.Snapshot(),
	}
	s.mu.Unlock()
	if s.cache != nil {
		stats.CacheHits, stats.CacheMisses = s.cache.Stats()
	}
	return stats
}

// InvalidateCache drops every cached result of this instance.
func (s *Service) InvalidateCache(ctx context.Context) (int64, error) {
	s.generation.Add(1)
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.Invalidate(ctx)
}

func (s *Service) setDocumentCount(count int) {
	if s.metrics != nil {
		s.metrics.DocumentCount.Set(float64(count))
	}
}

func (s *Service) observeSearch(resultType, cacheStatus string, start time.Time, results int) {
	if s.metrics == nil {
		return
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	if resultType == "error" {
		return
	}
	s.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	s.metrics.SearchResultsCount.Observe(float64(results))
	switch cacheStatus {
	case "hit":
		s.metrics.CacheHitsTotal.Inc()
	case "miss":
		s.metrics.CacheMissesTotal.Inc()
	}
	s.mu.Lock()
	noResult := s.tracker.NoResultRequests()
	s.mu.Unlock()
	s.metrics.NoResultRequests.Set(float64(noResult))
}
