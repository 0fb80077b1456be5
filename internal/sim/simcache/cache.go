// Package simcache caches ranked similarity results in Redis. The scorer is
// treated as a pure function, so a cache entry keyed by the normalized
// request is valid for the lifetime of the loaded ontology snapshot; the TTL
// exists only to bound memory.
package simcache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/openpheno/phenoserve/internal/sim"
	"github.com/openpheno/phenoserve/pkg/config"
	"github.com/openpheno/phenoserve/pkg/metrics"
	pkgredis "github.com/openpheno/phenoserve/pkg/redis"
)

const keyPrefix = "sim:"

// Cache is a read-through cache for similarity results.
type Cache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a Cache. metrics may be nil.
func New(client *pkgredis.Client, cfg config.RedisConfig, m *metrics.Metrics) *Cache {
	return &Cache{
		client:  client,
		cfg:     cfg,
		logger:  slog.Default().With("component", "sim-cache"),
		metrics: m,
	}
}

// Get returns a cached result for the request, if present.
func (c *Cache) Get(ctx context.Context, req sim.Request) (*sim.Result, bool) {
	key := buildKey(req)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var result sim.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	return &result, true
}

// Set stores a result under the request's key.
func (c *Cache) Set(ctx context.Context, req sim.Request, result *sim.Result) {
	key := buildKey(req)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or computes and stores it.
// Concurrent requests for the same key share one computation.
func (c *Cache) GetOrCompute(
	ctx context.Context,
	req sim.Request,
	computeFn func() (*sim.Result, error),
) (*sim.Result, bool, error) {
	if result, ok := c.Get(ctx, req); ok {
		return result, true, nil
	}
	key := buildKey(req)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, req); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, req, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*sim.Result), false, nil
}

// Invalidate drops every cached similarity result. Called when a new
// ontology snapshot is loaded.
func (c *Cache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating similarity cache: %w", err)
	}
	c.logger.Info("similarity cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counts since startup.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *Cache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey hashes the normalized request. Query and candidate order must not
// change the key: set-to-set similarity is order-insensitive.
func buildKey(req sim.Request) string {
	query := append([]string(nil), req.Query...)
	sort.Strings(query)

	cands := make([]string, 0, len(req.Candidates))
	for _, cand := range req.Candidates {
		terms := append([]string(nil), cand.Terms...)
		sort.Strings(terms)
		cands = append(cands, cand.ID+"="+strings.Join(terms, ","))
	}
	sort.Strings(cands)

	raw := fmt.Sprintf("%s|%s|%s|%s|%s|limit=%d",
		req.Config.ICBasis, req.Config.Method, req.Config.Combiner,
		strings.Join(query, ","), strings.Join(cands, ";"), req.Limit,
	)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
