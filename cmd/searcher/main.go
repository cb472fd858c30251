package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	corpusDir := flag.String("corpus", "", "corpus directory (overrides batch.corpusDir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *corpusDir != "" {
		cfg.Batch.CorpusDir = *corpusDir
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "corpus", cfg.Batch.CorpusDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	tok, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		slog.Error("failed to create tokenizer", "error", err)
		os.Exit(1)
	}
	docs, err := corpus.LoadDir(cfg.Batch.CorpusDir)
	if err != nil {
		slog.Error("failed to load corpus", "error", err)
		os.Exit(1)
	}
	builder, err := indexer.NewBuilder(tok, cfg.Indexer, m)
	if err != nil {
		slog.Error("failed to create index builder", "error", err)
		os.Exit(1)
	}
	idx, err := builder.Build(ctx, docs)
	if err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}
	exec, err := executor.New(idx, tok, cfg.Ranking, m)
	if err != nil {
		slog.Error("failed to create executor", "error", err)
		os.Exit(1)
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", idx.DocCount(), idx.TermCount()),
		}
	})

	var store cache.Store
	switch cfg.Cache.Backend {
	case config.CacheMemory:
		store = cache.NewMemoryStore(cfg.Cache.Size, cfg.Cache.TTL)
	case config.CacheRedis:
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
			break
		}
		defer redisClient.Close()
		breaker := resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
			OnStateChange: func(name string, _, to resilience.State) {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			},
		})
		store = cache.NewBreakerStore(cache.NewRedisStore(redisClient, cfg.Cache.TTL), breaker)
		checker.Register("redis", health.PingCheck(redisClient.Ping, true))
	}
	var queryCache *cache.QueryCache
	if store != nil {
		queryCache = cache.New(store, cache.Namespace(idx.Digest(), tok.Mode(), cfg.Ranking), m)
		slog.Info("search cache enabled", "backend", cfg.Cache.Backend, "ttl", cfg.Cache.TTL)
	}

	aggregator := analytics.NewAggregator()
	var publisher analytics.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		publisher = producer
	}
	collector := analytics.NewCollector(publisher, aggregator, analytics.CollectorConfig{
		BufferSize: cfg.Kafka.EventBufferSize,
	}, m)
	collector.Start(ctx)
	defer collector.Close()

	h := handler.New(exec, queryCache, collector, cfg.Search, tok.Mode(), m)
	analyticsH := analytics.NewHandler(aggregator)

	var chain http.Handler = handler.NewRouter(h, analyticsH.Stats, checker)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewLimiter(cfg.Server.RateLimit, time.Minute)
		go limiter.Run(ctx)
		chain = middleware.RateLimit(limiter)(chain)
	}
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr, "digest", idx.Digest())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
