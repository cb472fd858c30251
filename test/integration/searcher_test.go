// Package integration runs the search service's full HTTP stack (router,
// middleware, cache, analytics and health) against a real index built from a
// corpus on disk. The PostgreSQL sink test needs a database and skips when
// none is reachable.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/batch"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/postgres"
)

var documents = map[string]string{
	"1": "experimental investigation of the aerodynamics of a wing in a slipstream",
	"2": "simple shear flow past a flat plate in an incompressible fluid",
	"3": "the boundary layer in simple shear flow past a flat plate",
	"4": "approximate solutions of the incompressible laminar boundary layer equations",
	"5": "heat transfer to a wing at supersonic speeds",
}

type service struct {
	server  *httptest.Server
	metrics *metrics.Metrics
	idx     string
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for id, text := range documents {
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".txt"), []byte(text), 0o644))
	}
	return dir
}

func newService(t *testing.T) *service {
	t.Helper()
	cfg := config.Default()
	m := metrics.New(prometheus.NewRegistry())

	tok, err := tokenizer.New(cfg.Tokenizer)
	require.NoError(t, err)
	docs, err := corpus.LoadDir(writeCorpus(t))
	require.NoError(t, err)
	builder, err := indexer.NewBuilder(tok, cfg.Indexer, m)
	require.NoError(t, err)
	idx, err := builder.Build(context.Background(), docs)
	require.NoError(t, err)
	exec, err := executor.New(idx, tok, cfg.Ranking, m)
	require.NoError(t, err)

	queryCache := cache.New(cache.NewMemoryStore(cfg.Cache.Size, cfg.Cache.TTL),
		cache.Namespace(idx.Digest(), tok.Mode(), cfg.Ranking), m)
	aggregator := analytics.NewAggregator()
	collector := analytics.NewCollector(nil, aggregator, analytics.CollectorConfig{}, m)
	collector.Start(context.Background())
	t.Cleanup(collector.Close)

	checker := health.NewChecker()
	checker.Register("cache", health.PingCheck(queryCache.Ping, true))

	h := handler.New(exec, queryCache, collector, cfg.Search, tok.Mode(), m)
	var chain http.Handler = handler.NewRouter(h, analytics.NewHandler(aggregator).Stats, checker)
	chain = middleware.Timeout(5 * time.Second)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	srv := httptest.NewServer(chain)
	t.Cleanup(srv.Close)
	return &service{server: srv, metrics: m, idx: idx.Digest()}
}

func (s *service) getJSON(t *testing.T, path string, out any) *http.Response {
	t.Helper()
	resp, err := s.server.Client().Get(s.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestSearch_EndToEnd(t *testing.T) {
	svc := newService(t)

	var result executor.SearchResult
	resp := svc.getJSON(t, "/api/v1/search?q=boundary+layer+flat+plate&limit=3", &result)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Header.Get(middleware.RequestIDHeader), 24)
	require.NotEmpty(t, result.Results)
	assert.LessOrEqual(t, len(result.Results), 3)
	assert.Equal(t, "3", result.Results[0].DocID)
	for i := 1; i < len(result.Results); i++ {
		assert.GreaterOrEqual(t, result.Results[i-1].Score, result.Results[i].Score)
	}
}

func TestSearch_RequestIDIsPropagated(t *testing.T) {
	svc := newService(t)
	req, err := http.NewRequest(http.MethodGet, svc.server.URL+"/api/v1/search?q=wing", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.RequestIDHeader, "trace-me")

	resp, err := svc.server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "trace-me", resp.Header.Get(middleware.RequestIDHeader))
}

func TestSearch_CacheAndAnalytics(t *testing.T) {
	svc := newService(t)

	var first, second executor.SearchResult
	svc.getJSON(t, "/api/v1/search?q=supersonic+wing", &first)
	svc.getJSON(t, "/api/v1/search?q=Wing+supersonic", &second)
	assert.Equal(t, first.Results, second.Results)
	svc.getJSON(t, "/api/v1/search?q=supersonic,+wing!", &second)
	assert.Equal(t, first.Results, second.Results)

	var cacheStats map[string]any
	svc.getJSON(t, "/api/v1/cache/stats", &cacheStats)
	assert.EqualValues(t, 1, cacheStats["hits"])
	assert.EqualValues(t, 2, cacheStats["misses"])

	var stats analytics.AggregatedStats
	svc.getJSON(t, "/api/v1/analytics/stats", &stats)
	assert.Equal(t, int64(3), stats.TotalSearches)
	assert.Equal(t, int64(1), stats.CacheHits)

	assert.Equal(t, 3.0, testutil.ToFloat64(
		svc.metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/search", "200")))
}

func TestCacheInvalidate(t *testing.T) {
	svc := newService(t)
	svc.getJSON(t, "/api/v1/search?q=wing", nil)

	resp, err := svc.server.Client().Post(svc.server.URL+"/api/v1/cache/invalidate", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["keys_deleted"])

	wrongMethod := svc.getJSON(t, "/api/v1/cache/invalidate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, wrongMethod.StatusCode)
}

func TestIndexAndHealth(t *testing.T) {
	svc := newService(t)

	var info handler.IndexInfo
	resp := svc.getJSON(t, "/api/v1/index", &info)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, len(documents), info.Documents)
	assert.Equal(t, svc.idx, info.Digest)

	var report health.Report
	resp = svc.getJSON(t, "/health/ready", &report)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, health.StatusUp, report.Status)

	resp = svc.getJSON(t, "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	db, err := postgres.New(t.Context(), testPostgresConfig())
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "lexsearch_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "lexsearch"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func TestPostgresSink_RoundTrip(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := t.Context()
	runName := "integration-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	t.Cleanup(func() {
		db.DB.Exec(`DELETE FROM retrieval_results WHERE run_name = $1`, runName)
	})

	sink := batch.NewPostgresSink(db, runName, "digest")
	results := []batch.Result{
		{Query: batch.Query{ID: "1", Text: "wing"}, Docs: []string{"1", "5"}},
		{Query: batch.Query{ID: "2", Text: "nothing"}, Docs: []string{}, TimedOut: true},
	}
	require.NoError(t, sink.Write(ctx, results))
	// Writing the same run again replaces rows instead of failing.
	require.NoError(t, sink.Write(ctx, results))

	var docs []string
	var timedOut bool
	err := db.DB.QueryRowContext(ctx,
		`SELECT relevant_docs, timed_out FROM retrieval_results WHERE run_name = $1 AND query_id = $2`,
		runName, "1").Scan(pq.Array(&docs), &timedOut)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "5"}, docs)
	assert.False(t, timedOut)

	var count int
	require.NoError(t, db.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM retrieval_results WHERE run_name = $1`, runName).Scan(&count))
	assert.Equal(t, 2, count)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
