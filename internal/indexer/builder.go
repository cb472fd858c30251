// Package indexer builds the immutable in-memory index from a document
// collection. Documents are tokenized in parallel into per-worker partial
// indexes which are then merged sequentially and frozen.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
)

// Document is one corpus entry. The builder never mutates it.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Builder struct {
	tokenizer *tokenizer.Tokenizer
	workers   int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewBuilder returns a Builder. m may be nil.
func NewBuilder(tok *tokenizer.Tokenizer, cfg config.IndexerConfig, m *metrics.Metrics) (*Builder, error) {
	if tok == nil {
		return nil, apperrors.Invalidf("indexer requires a tokenizer")
	}
	if cfg.Workers < 0 {
		return nil, apperrors.Invalidf("indexer.workers must be >= 0, got %d", cfg.Workers)
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Builder{
		tokenizer: tok,
		workers:   workers,
		metrics:   m,
		logger:    slog.Default().With("component", "indexer"),
	}, nil
}

// Tokenizer returns the tokenizer documents were indexed with. Queries must
// be tokenized by the same instance.
func (b *Builder) Tokenizer() *tokenizer.Tokenizer {
	return b.tokenizer
}

// Build indexes docs. Identifiers must be non-empty and unique; a duplicate
// fails the whole build rather than silently overwriting the earlier text.
func (b *Builder) Build(ctx context.Context, docs []Document) (*index.Index, error) {
	start := time.Now()
	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			return nil, fmt.Errorf("%w: empty document id", apperrors.ErrInvalidInput)
		}
		if _, dup := seen[doc.ID]; dup {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrDuplicateDocument, doc.ID)
		}
		seen[doc.ID] = struct{}{}
	}

	parts := partition(docs, b.workers)
	partials := make([]*index.Partial, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			partial := index.NewPartial()
			for _, doc := range part {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := partial.Add(doc.ID, b.tokenizer.Tokenize(doc.Text)); err != nil {
					return err
				}
			}
			partials[i] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building partial indexes: %w", err)
	}

	merged := index.NewPartial()
	for _, partial := range partials {
		if err := merged.Merge(partial); err != nil {
			return nil, fmt.Errorf("merging partial indexes: %w", err)
		}
	}
	idx := merged.Freeze()

	elapsed := time.Since(start)
	if b.metrics != nil {
		b.metrics.DocsIndexedTotal.Add(float64(idx.DocCount()))
		b.metrics.IndexBuildDuration.Observe(elapsed.Seconds())
		b.metrics.IndexDocuments.Set(float64(idx.DocCount()))
		b.metrics.IndexVocabularySize.Set(float64(idx.TermCount()))
	}
	b.logger.Info("index built",
		"mode", b.tokenizer.Mode(),
		"docs", idx.DocCount(),
		"terms", idx.TermCount(),
		"tokens", idx.TotalTokens(),
		"workers", len(parts),
		"digest", idx.Digest(),
		"duration", elapsed,
	)
	return idx, nil
}

// BuildMap indexes an identifier-to-text mapping. Map keys are unique, so
// only empty identifiers can fail.
func (b *Builder) BuildMap(ctx context.Context, docs map[string]string) (*index.Index, error) {
	list := make([]Document, 0, len(docs))
	for id, text := range docs {
		list = append(list, Document{ID: id, Text: text})
	}
	return b.Build(ctx, list)
}

// partition splits docs into at most n contiguous, non-empty chunks.
func partition(docs []Document, n int) [][]Document {
	if len(docs) == 0 {
		return nil
	}
	if n > len(docs) {
		n = len(docs)
	}
	size := (len(docs) + n - 1) / n
	parts := make([][]Document, 0, n)
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		parts = append(parts, docs[start:end])
	}
	return parts
}
