package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
)

type memoryBackend struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: make(map[string][]byte)}
}

func (m *memoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
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

func key(t *testing.T, gen uint64, raw string) Key {
	t.Helper()
	q, err := parser.Parse(raw, tokenizer.StopWords{})
	require.NoError(t, err)
	return Key{Generation: gen, Query: q, Status: document.StatusActual, MaxResults: 5}
}

func TestGetOrComputeCachesResults(t *testing.T) {
	c := New(newMemoryBackend(), "node-1", time.Minute)
	want := []document.Document{{ID: 1, Relevance: 0.5, Rating: 2}}
	calls := 0
	compute := func() ([]document.Document, error) {
		calls++
		return want, nil
	}

	docs, hit, err := c.GetOrCompute(context.Background(), key(t, 1, "cat dog"), compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, want, docs)

	docs, hit, err = c.GetOrCompute(context.Background(), key(t, 1, "dog cat cat"), compute)
	require.NoError(t, err)
	assert.True(t, hit, "word order and repeats share a key")
	assert.Equal(t, want, docs)
	assert.Equal(t, 1, calls)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestKeysSeparateGenerationsAndFilters(t *testing.T) {
	c := New(newMemoryBackend(), "node-1", time.Minute)
	base := key(t, 1, "cat -dog")

	other := base
	other.Generation = 2
	assert.NotEqual(t, c.buildKey(base), c.buildKey(other))

	other = base
	other.Status = document.StatusBanned
	assert.NotEqual(t, c.buildKey(base), c.buildKey(other))

	assert.NotEqual(t, c.buildKey(base), c.buildKey(key(t, 1, "cat dog")))
	assert.NotEqual(t, c.buildKey(base), New(newMemoryBackend(), "node-2", time.Minute).buildKey(base))
}

func TestGetOrComputePropagatesErrors(t *testing.T) {
	backend := newMemoryBackend()
	c := New(backend, "n", time.Minute)
	boom := errors.New("boom")

	_, _, err := c.GetOrCompute(context.Background(), key(t, 1, "cat"), func() ([]document.Document, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, backend.data, "failures are not cached")
}

func TestBackendErrorsAreMisses(t *testing.T) {
	backend := newMemoryBackend()
	backend.getErr = errors.New("connection refused")
	c := New(backend, "n", time.Minute)

	docs, hit, err := c.GetOrCompute(context.Background(), key(t, 1, "cat"), func() ([]document.Document, error) {
		return []document.Document{}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, docs)
}

func TestGetOrComputeSingleflight(t *testing.T) {
	c := New(newMemoryBackend(), "n", time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() ([]document.Document, error) {
		calls.Add(1)
		<-release
		return []document.Document{{ID: 3}}, nil
	}

	k := key(t, 7, "cat")
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			docs, _, err := c.GetOrCompute(context.Background(), k, compute)
			assert.NoError(t, err)
			assert.Len(t, docs, 1)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(4))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestInvalidateOnlyTouchesNamespace(t *testing.T) {
	backend := newMemoryBackend()
	a := New(backend, "a", time.Minute)
	b := New(backend, "b", time.Minute)
	a.Set(context.Background(), key(t, 1, "cat"), []document.Document{{ID: 1}})
	b.Set(context.Background(), key(t, 1, "cat"), []document.Document{{ID: 2}})

	deleted, err := a.Invalidate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, ok := a.Get(context.Background(), key(t, 1, "cat"))
	assert.False(t, ok)
	docs, ok := b.Get(context.Background(), key(t, 1, "cat"))
	require.True(t, ok)
	assert.Equal(t, 2, docs[0].ID)
}
