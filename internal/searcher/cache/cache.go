// Package cache stores top-k search results in Redis. Keys carry the index
// generation, so any mutation makes older entries unreachable and they age
// out through their TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/document"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
)

const keyPrefix = "search:"

// Backend is the key-value store behind the cache. *pkgredis.Client
// implements it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Key identifies one cached result list.
type Key struct {
	Generation uint64
	Query      *parser.Query
	Status     document.Status
	MaxResults int
}

type QueryCache struct {
	backend   Backend
	namespace string
	ttl       time.Duration
	group     singleflight.Group
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// New builds a cache whose keys live under search:<namespace>:. Each
// engine instance needs its own namespace.
func New(backend Backend, namespace string, ttl time.Duration) *QueryCache {
	return &QueryCache{
		backend:   backend,
		namespace: namespace,
		ttl:       ttl,
		logger:    slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, key Key) ([]document.Document, bool) {
	k := c.buildKey(key)
	data, err := c.backend.Get(ctx, k)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", k, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var docs []document.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		c.logger.Error("cache unmarshal failed", "key", k, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", key.Query.RawQuery, "key", k)
	return docs, true
}

func (c *QueryCache) Set(ctx context.Context, key Key, docs []document.Document) {
	k := c.buildKey(key)
	data, err := json.Marshal(docs)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", k, "error", err)
		return
	}
	if err := c.backend.Set(ctx, k, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", k, "error", err)
	}
}

// GetOrCompute returns the cached list for key, or runs compute once per
// key across concurrent callers and caches its result. The bool reports a
// cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	key Key,
	compute func() ([]document.Document, error),
) ([]document.Document, bool, error) {
	if docs, ok := c.Get(ctx, key); ok {
		return docs, true, nil
	}
	val, err, _ := c.group.Do(c.buildKey(key), func() (any, error) {
		docs, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, docs)
		return docs, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]document.Document), false, nil
}

// Invalidate deletes every key of this namespace.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.backend.FlushByPattern(ctx, keyPrefix+c.namespace+":*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(key Key) string {
	raw := fmt.Sprintf("gen=%d|%s|status=%s|max=%d",
		key.Generation, normalizeQuery(key.Query), key.Status, key.MaxResults)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, c.namespace, hash[:16])
}

// normalizeQuery relies on Plus and Minus being sorted, so word order and
// repeats in the raw query do not matter.
func normalizeQuery(q *parser.Query) string {
	return "plus=" + strings.Join(q.Plus, ",") + "|minus=" + strings.Join(q.Minus, ",")
}
