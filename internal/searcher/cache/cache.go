// Package cache memoizes search results. Keys combine a namespace derived
// from the index digest and ranking configuration with the parsed query
// terms and limit, so a rebuilt or reconfigured index never serves stale
// answers and queries that tokenize identically share one entry.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
)

const keyPrefix = "search:"

type QueryCache struct {
	store     Store
	namespace string
	group     singleflight.Group
	metrics   *metrics.Metrics
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// New returns a cache over store. m may be nil.
func New(store Store, namespace string, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:     store,
		namespace: namespace,
		metrics:   m,
		logger:    slog.Default().With("component", "query-cache"),
	}
}

// Namespace identifies everything besides the query that determines an
// answer: index contents, tokenizer mode and ranking parameters.
func Namespace(digest string, mode string, cfg config.RankingConfig) string {
	raw := fmt.Sprintf("%s|%s|%s|k1=%g|b=%g|rrf=%d|bonus=%g",
		digest, mode, strings.Join(cfg.Scorers, ","), cfg.K1, cfg.B, cfg.RRFK, cfg.PhraseBonus)
	sum := blake3.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}

func (c *QueryCache) Get(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, bool) {
	key := c.buildKey(plan, limit)
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	if !ok {
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	result.Query = plan.RawQuery
	c.logger.Debug("cache hit", "query", plan.RawQuery, "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, plan *parser.QueryPlan, limit int, result *executor.SearchResult) {
	key := c.buildKey(plan, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns a cached result or computes and stores one.
// Concurrent misses for the same key share a single computation.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	plan *parser.QueryPlan,
	limit int,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, plan, limit); ok {
		return result, true, nil
	}
	key := c.buildKey(plan, limit)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, plan, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	result := *val.(*executor.SearchResult)
	result.Query = plan.RawQuery
	return &result, false, nil
}

// Invalidate drops every entry of this cache's namespace.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.Purge(ctx, c.prefix())
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted, "namespace", c.namespace)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Ping checks the backing store.
func (c *QueryCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

func (c *QueryCache) prefix() string {
	return keyPrefix + c.namespace + ":"
}

func (c *QueryCache) buildKey(plan *parser.QueryPlan, limit int) string {
	raw := strings.Join(plan.Terms, "\x00") + "\x01limit=" + strconv.Itoa(limit)
	hash := blake3.Sum256([]byte(raw))
	return c.prefix() + hex.EncodeToString(hash[:16])
}

func (c *QueryCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}
