package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

type memoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, redis.Nil
	}
	return v, nil
}

func (m *memoryBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryBackend) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

type stack struct {
	server  *httptest.Server
	metrics *metrics.Metrics
}

func newStack(t *testing.T) *stack {
	t.Helper()
	cfg := config.Default()
	cfg.Engine.StopWords = []string{"i", "v", "na"}

	engine, err := indexer.NewEngine(cfg.Engine)
	require.NoError(t, err)
	tracker, err := analytics.NewRequestTracker(engine, cfg.Tracker.Window)
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	breaker := resilience.NewCircuitBreaker("redis", resilience.BreakerConfig{})
	backend := cache.Guard(&memoryBackend{data: make(map[string][]byte)}, breaker, time.Second)
	svc := service.New(engine, tracker, cache.New(backend, "test", time.Minute), m)

	checker := health.NewChecker()
	checker.Register("engine", health.Static(func() string { return "ok" }))

	srv := httptest.NewServer(newHandler(svc, nil, checker, m, cfg.Server))
	t.Cleanup(srv.Close)
	return &stack{server: srv, metrics: m}
}

func (s *stack) do(t *testing.T, method, target string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.server.URL+target, reader)
	require.NoError(t, err)
	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestEndToEndSearchFlow(t *testing.T) {
	s := newStack(t)

	docs := []map[string]any{
		{"document_id": 1, "text": "pyshistyi kot pyshistyi hvost", "status": "ACTUAL", "ratings": []int{7, 2, 7}},
		{"document_id": 2, "text": "pyshistyi pes i modnyi osheinik", "status": "ACTUAL", "ratings": []int{1, 2, 3}},
		{"document_id": 3, "text": "bolshoy kot modnyi osheinik", "status": "BANNED", "ratings": []int{1, 2, 8}},
	}
	for _, d := range docs {
		resp, _ := s.do(t, http.MethodPost, "/api/v1/documents", d)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
	}

	resp, _ := s.do(t, http.MethodPost, "/api/v1/documents", docs[0])
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := s.do(t, http.MethodGet, "/api/v1/search?q=pyshistyi+pes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["cache_hit"])
	results := body["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, float64(2), results[0].(map[string]any)["document_id"])

	_, body = s.do(t, http.MethodGet, "/api/v1/search?q=pes+pyshistyi", nil)
	assert.Equal(t, true, body["cache_hit"], "same word set is served from the cache")

	_, body = s.do(t, http.MethodGet, "/api/v1/search?q=kot&status=banned", nil)
	results = body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, float64(3), results[0].(map[string]any)["document_id"])

	_, body = s.do(t, http.MethodGet, "/api/v1/search?q=slon", nil)
	assert.Empty(t, body["results"])

	resp, body = s.do(t, http.MethodGet, "/api/v1/analytics/tracker", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(4), body["recorded"])
	assert.Equal(t, float64(1), body["no_result_requests"])

	resp, _ = s.do(t, http.MethodDelete, "/api/v1/documents/2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = s.do(t, http.MethodGet, "/api/v1/search?q=pyshistyi+pes", nil)
	assert.Equal(t, false, body["cache_hit"], "removal makes older entries unreachable")
	assert.Len(t, body["results"], 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.DocsRemovedTotal))
}

func TestEndToEndErrors(t *testing.T) {
	s := newStack(t)

	resp, _ := s.do(t, http.MethodGet, "/api/v1/search?q=kot+--pes", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodDelete, "/api/v1/documents/42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/analytics/snapshots", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestEndToEndHealth(t *testing.T) {
	s := newStack(t)

	resp, body := s.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])

	resp, body = s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", body["status"])
}
