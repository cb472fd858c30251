package batch

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/resilience"
)

const createResultsTable = `
CREATE TABLE IF NOT EXISTS retrieval_results (
	run_name      TEXT        NOT NULL,
	index_digest  TEXT        NOT NULL,
	query_id      TEXT        NOT NULL,
	query         TEXT        NOT NULL,
	relevant_docs TEXT[]      NOT NULL,
	timed_out     BOOLEAN     NOT NULL DEFAULT FALSE,
	latency_us    BIGINT      NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (run_name, query_id)
)`

// Re-running a named run replaces its rows, so a retried transaction is
// idempotent.
const upsertResult = `
INSERT INTO retrieval_results (run_name, index_digest, query_id, query, relevant_docs, timed_out, latency_us)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_name, query_id) DO UPDATE SET
	index_digest  = EXCLUDED.index_digest,
	query         = EXCLUDED.query,
	relevant_docs = EXCLUDED.relevant_docs,
	timed_out     = EXCLUDED.timed_out,
	latency_us    = EXCLUDED.latency_us,
	created_at    = NOW()`

// PostgresSink stores one row per query in a single transaction, retrying
// transient database failures.
type PostgresSink struct {
	client  *postgres.Client
	runName string
	digest  string
	retry   resilience.RetryConfig
	logger  *slog.Logger
}

func NewPostgresSink(client *postgres.Client, runName, digest string) *PostgresSink {
	return &PostgresSink{
		client:  client,
		runName: runName,
		digest:  digest,
		retry: resilience.RetryConfig{
			MaxAttempts:    4,
			JitterFraction: 0.1,
			Retryable:      Retryable,
		},
		logger: logger.WithComponent("postgres-sink").With("run", runName),
	}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Write(ctx context.Context, results []Result) error {
	err := resilience.Retry(ctx, "store batch results", s.retry, func(ctx context.Context) error {
		return s.client.InTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, createResultsTable); err != nil {
				return fmt.Errorf("creating results table: %w", err)
			}
			stmt, err := tx.PrepareContext(ctx, upsertResult)
			if err != nil {
				return fmt.Errorf("preparing insert: %w", err)
			}
			defer stmt.Close()
			for _, res := range results {
				if _, err := stmt.ExecContext(ctx,
					s.runName, s.digest, res.Query.ID, res.Query.Text,
					pq.Array(res.Docs), res.TimedOut, res.Latency.Microseconds(),
				); err != nil {
					return fmt.Errorf("inserting query %s: %w", res.Query.ID, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	s.logger.Info("batch results stored", "rows", len(results))
	return nil
}

// Retryable reports whether a database error is worth another attempt:
// dropped connections, serialization conflicts and resource exhaustion.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "40", "53":
			return true
		}
		return pqErr.Code == "57P01"
	}
	return false
}
