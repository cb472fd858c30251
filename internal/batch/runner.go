package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/analytics"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/resilience"
)

// Batch query statuses, used as the batch_queries_total label.
const (
	StatusOK      = "ok"
	StatusTimeout = "timeout"
	StatusError   = "error"
)

// Answerer returns the ranked document IDs for one query.
type Answerer interface {
	Answer(ctx context.Context, query string, topK int) ([]string, error)
}

// Tracker receives one event per answered query. *analytics.Collector
// satisfies it.
type Tracker interface {
	Track(event analytics.SearchEvent)
}

type Result struct {
	Query    Query
	Docs     []string
	TimedOut bool
	Latency  time.Duration
}

type RunnerConfig struct {
	Workers int
	Timeout time.Duration
	TopK    int
}

// Runner answers queries concurrently. Results always come back in input
// order regardless of completion order.
type Runner struct {
	answerer Answerer
	cfg      RunnerConfig
	tracker  Tracker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewRunner validates cfg. Workers == 0 means GOMAXPROCS; Timeout == 0
// disables the per-query budget. tracker and m may be nil.
func NewRunner(answerer Answerer, cfg RunnerConfig, tracker Tracker, m *metrics.Metrics) (*Runner, error) {
	if answerer == nil {
		return nil, apperrors.Invalidf("batch runner requires an answerer")
	}
	if cfg.Workers < 0 {
		return nil, apperrors.Invalidf("batch workers must be >= 0, got %d", cfg.Workers)
	}
	if cfg.Timeout < 0 {
		return nil, apperrors.Invalidf("batch query timeout must be >= 0, got %s", cfg.Timeout)
	}
	if cfg.TopK < 0 {
		return nil, apperrors.Invalidf("batch topK must be >= 0, got %d", cfg.TopK)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		answerer: answerer,
		cfg:      cfg,
		tracker:  tracker,
		metrics:  m,
		logger:   logger.WithComponent("batch-runner"),
	}, nil
}

// Run answers every query. A query that exceeds its budget yields an empty
// result marked TimedOut; any other failure aborts the run.
func (r *Runner) Run(ctx context.Context, queries []Query) ([]Result, error) {
	start := time.Now()
	results := make([]Result, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, q := range queries {
		g.Go(func() error {
			result, err := r.answer(gctx, q)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	timedOut := 0
	for _, res := range results {
		if res.TimedOut {
			timedOut++
		}
	}
	r.logger.Info("batch run completed",
		"queries", len(queries),
		"timed_out", timedOut,
		"workers", r.cfg.Workers,
		"duration", time.Since(start),
	)
	return results, nil
}

func (r *Runner) answer(ctx context.Context, q Query) (Result, error) {
	start := time.Now()
	var docs []string
	err := resilience.WithTimeout(ctx, r.cfg.Timeout, "query "+q.ID, func(ctx context.Context) error {
		var err error
		docs, err = r.answerer.Answer(ctx, q.Text, r.cfg.TopK)
		return err
	})
	latency := time.Since(start)

	switch {
	case err == nil:
		r.record(StatusOK)
	case errors.Is(err, apperrors.ErrTimeout):
		r.record(StatusTimeout)
		r.logger.Warn("query timed out", "query_id", q.ID, "timeout", r.cfg.Timeout)
		docs = []string{}
	default:
		r.record(StatusError)
		return Result{}, fmt.Errorf("answering query %s: %w", q.ID, err)
	}
	if docs == nil {
		docs = []string{}
	}

	if r.tracker != nil {
		event := analytics.SearchEvent{
			Source:    analytics.SourceBatch,
			Query:     q.Text,
			TotalHits: len(docs),
			Returned:  len(docs),
			LatencyMs: latency.Milliseconds(),
			Timestamp: start,
			RequestID: q.ID,
		}
		event.Classify()
		r.tracker.Track(event)
	}
	return Result{Query: q, Docs: docs, TimedOut: err != nil, Latency: latency}, nil
}

func (r *Runner) record(status string) {
	if r.metrics != nil {
		r.metrics.BatchQueriesTotal.WithLabelValues(status).Inc()
	}
}
