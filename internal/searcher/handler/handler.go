// Package handler exposes the search executor over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/tracing"
)

type SearchExecutor interface {
	Parse(query string) *parser.QueryPlan
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
	Index() *index.Index
	Ranking() config.RankingConfig
}

// IndexInfo describes the index being served.
type IndexInfo struct {
	Digest       string   `json:"digest"`
	Mode         string   `json:"tokenizer_mode"`
	Documents    int      `json:"documents"`
	Terms        int      `json:"terms"`
	TotalTokens  int64    `json:"total_tokens"`
	AvgDocLength float64  `json:"avg_doc_length"`
	Scorers      []string `json:"scorers"`
}

type Handler struct {
	executor  SearchExecutor
	cache     *cache.QueryCache
	collector *analytics.Collector
	search    config.SearchConfig
	mode      string
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New wires a handler. queryCache, collector and m may be nil.
func New(
	exec SearchExecutor,
	queryCache *cache.QueryCache,
	collector *analytics.Collector,
	searchCfg config.SearchConfig,
	mode string,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		executor:  exec,
		cache:     queryCache,
		collector: collector,
		search:    searchCfg,
		mode:      mode,
		metrics:   m,
		logger:    slog.Default().With("component", "search-handler"),
	}
}

// Search answers GET /api/v1/search?q=&limit=. A query with no indexable
// terms is not an error and yields an empty result.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := tracing.StartSpan(r.Context(), "search", logger.RequestID(r.Context()))
	log := logger.FromContext(ctx)
	defer func() {
		span.End()
		span.Log(ctx, log)
	}()

	query := r.URL.Query().Get("q")
	limit := h.search.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.search.MaxResults {
			parsed = h.search.MaxResults
		}
		limit = parsed
	}

	plan := h.executor.Parse(query)

	var result *executor.SearchResult
	var err error
	cacheHit := false
	if h.cache != nil && !plan.Empty() {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, plan, limit, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, plan, limit)
		})
	} else {
		result, err = h.executor.Execute(ctx, plan, limit)
	}
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		log.Error("search execution failed", "query", query, "error", err)
		h.writeError(w, status, "search failed")
		return
	}

	elapsed := time.Since(start)
	span.SetAttr("cache_hit", cacheHit)
	if h.metrics != nil {
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
	}
	log.Info("search completed",
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", elapsed.Milliseconds(),
	)
	if h.collector != nil {
		h.collector.Track(analytics.SearchEvent{
			Source:    analytics.SourceHTTP,
			Query:     query,
			Terms:     plan.Terms,
			TotalHits: result.TotalHits,
			Returned:  len(result.Results),
			TopDocs:   topDocs(result, 10),
			LatencyMs: elapsed.Milliseconds(),
			CacheHit:  cacheHit,
			Digest:    h.executor.Index().Digest(),
			Timestamp: start.UTC(),
			RequestID: logger.RequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

func topDocs(result *executor.SearchResult, n int) []string {
	ids := result.IDs()
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// IndexStats serves GET /api/v1/index.
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	idx := h.executor.Index()
	h.writeJSON(w, http.StatusOK, IndexInfo{
		Digest:       idx.Digest(),
		Mode:         h.mode,
		Documents:    idx.DocCount(),
		Terms:        idx.TermCount(),
		TotalTokens:  idx.TotalTokens(),
		AvgDocLength: idx.AvgDocLength(),
		Scorers:      h.executor.Ranking().Scorers,
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
