// Package batch answers a file of queries against a built index and writes
// the ranked results to the configured sinks.
package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

const (
	columnQueryID      = "query_id"
	columnQuery        = "query"
	columnRelevantDocs = "relevant_docs"
)

type Query struct {
	ID   string `json:"query_id"`
	Text string `json:"query"`
}

// ReadQueries parses CSV with a header naming query_id and query columns.
// Other columns are ignored; column order is free.
func ReadQueries(r io.Reader) ([]Query, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: query file is empty", apperrors.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("reading query header: %w", err)
	}
	idCol, textCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case columnQueryID:
			idCol = i
		case columnQuery:
			textCol = i
		}
	}
	if idCol < 0 || textCol < 0 {
		return nil, fmt.Errorf("%w: query header must contain %q and %q, got %v",
			apperrors.ErrInvalidInput, columnQueryID, columnQuery, header)
	}

	var queries []Query
	seen := make(map[string]struct{})
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading queries: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if idCol >= len(record) || textCol >= len(record) {
			return nil, fmt.Errorf("%w: line %d has %d fields", apperrors.ErrInvalidInput, line, len(record))
		}
		id := strings.TrimSpace(record[idCol])
		if id == "" {
			return nil, fmt.Errorf("%w: line %d has an empty query id", apperrors.ErrInvalidInput, line)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate query id %q on line %d", apperrors.ErrInvalidInput, id, line)
		}
		seen[id] = struct{}{}
		queries = append(queries, Query{ID: id, Text: record[textCol]})
	}
	return queries, nil
}

func ReadQueriesFile(path string) ([]Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening query file: %w", err)
	}
	defer f.Close()

	queries, err := ReadQueries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return queries, nil
}
