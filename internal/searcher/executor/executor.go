// Package executor answers queries against a built index. It tokenizes the
// query, runs the configured scorers concurrently, fuses their rankings with
// reciprocal rank fusion when more than one is configured, and truncates to
// the requested number of results.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/tracing"
)

type SearchResult struct {
	Query     string             `json:"query"`
	Terms     []string           `json:"terms"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
	TermStats map[string]int     `json:"term_stats"`
}

// IDs returns the ranked document identifiers.
func (r *SearchResult) IDs() []string {
	ids := make([]string, len(r.Results))
	for i, doc := range r.Results {
		ids[i] = doc.DocID
	}
	return ids
}

// Executor is safe for concurrent use; it only reads the index.
type Executor struct {
	index   *index.Index
	parser  *parser.Parser
	scorers []ranker.Scorer
	ranking config.RankingConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New validates the ranking configuration and prepares its scorers. tok must
// be the tokenizer idx was built with. m may be nil.
func New(idx *index.Index, tok *tokenizer.Tokenizer, cfg config.RankingConfig, m *metrics.Metrics) (*Executor, error) {
	if idx == nil {
		return nil, apperrors.ErrIndexNotReady
	}
	if tok == nil {
		return nil, apperrors.Invalidf("executor requires a tokenizer")
	}
	scorers, err := ranker.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Executor{
		index:   idx,
		parser:  parser.New(tok),
		scorers: scorers,
		ranking: cfg,
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
	}, nil
}

// Index returns the index being queried.
func (e *Executor) Index() *index.Index {
	return e.index
}

// Ranking returns the ranking configuration in effect.
func (e *Executor) Ranking() config.RankingConfig {
	return e.ranking
}

// Parse tokenizes a query the same way documents were tokenized.
func (e *Executor) Parse(query string) *parser.QueryPlan {
	return e.parser.Parse(query)
}

// Answer returns up to topK ranked document identifiers for queryText.
func (e *Executor) Answer(ctx context.Context, queryText string, topK int) ([]string, error) {
	result, err := e.Search(ctx, queryText, topK)
	if err != nil {
		return nil, err
	}
	return result.IDs(), nil
}

// Search parses and executes a query.
func (e *Executor) Search(ctx context.Context, queryText string, limit int) (*SearchResult, error) {
	return e.Execute(ctx, e.parser.Parse(queryText), limit)
}

// Execute runs a parsed query. A negative limit is rejected; zero yields no
// results. An empty plan is not an error.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be >= 0, got %d", apperrors.ErrInvalidInput, limit)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if plan.Empty() || limit == 0 {
		e.record("empty_query", 0)
		return &SearchResult{
			Query:     plan.RawQuery,
			Terms:     plan.Terms,
			Results:   []ranker.ScoredDoc{},
			TermStats: map[string]int{},
		}, nil
	}

	ctx, span := tracing.StartChildSpan(ctx, "execute")
	defer span.End()
	span.SetAttr("terms", len(plan.Terms))

	termStats := make(map[string]int, len(plan.Distinct))
	for _, term := range plan.Distinct {
		if df := e.index.DocFreq(term); df > 0 {
			termStats[term] = df
		}
	}
	totalHits := int(e.index.Candidates(plan.Distinct).GetCardinality())

	rankings, err := e.score(ctx, plan.Terms)
	if err != nil {
		e.record("error", 0)
		return nil, fmt.Errorf("scoring query %q: %w", plan.RawQuery, err)
	}
	ranked := rankings[0]
	if len(rankings) > 1 {
		_, fuseSpan := tracing.StartChildSpan(ctx, "fuse")
		ranked = merger.Fuse(rankings, e.ranking.RRFK)
		fuseSpan.SetAttr("fused", len(ranked))
		fuseSpan.End()
	}
	results := merger.TopK(ranked, limit)
	span.SetAttr("candidates", totalHits)
	span.SetAttr("results", len(results))

	resultType := "hit"
	if len(results) == 0 {
		resultType = "zero_result"
	}
	e.record(resultType, len(results))
	e.logger.Debug("query executed",
		"query", plan.RawQuery,
		"terms", plan.Terms,
		"candidates", totalHits,
		"results", len(results),
	)
	return &SearchResult{
		Query:     plan.RawQuery,
		Terms:     plan.Terms,
		TotalHits: totalHits,
		Results:   results,
		TermStats: termStats,
	}, nil
}

// score fans the query out to every scorer. Each writes its own slot, so no
// locking is needed.
func (e *Executor) score(ctx context.Context, terms []string) ([][]ranker.ScoredDoc, error) {
	rankings := make([][]ranker.ScoredDoc, len(e.scorers))
	if len(e.scorers) == 1 {
		rankings[0] = e.runScorer(ctx, e.scorers[0], terms)
		return rankings, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range e.scorers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rankings[i] = e.runScorer(gctx, s, terms)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rankings, nil
}

func (e *Executor) runScorer(ctx context.Context, s ranker.Scorer, terms []string) []ranker.ScoredDoc {
	_, span := tracing.StartChildSpan(ctx, "score:"+s.Name())
	defer span.End()
	start := time.Now()
	ranking := s.Score(terms, e.index)
	span.SetAttr("scored", len(ranking))
	if e.metrics != nil {
		e.metrics.ScorerLatency.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
	}
	return ranking
}

func (e *Executor) record(resultType string, results int) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	e.metrics.SearchResultsCount.Observe(float64(results))
}
