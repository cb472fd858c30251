// Package corpus loads a document collection from a directory of plain-text
// files.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/logger"
)

const (
	extension       = ".txt"
	maxDocumentSize = 16 << 20
)

// LoadDir reads every regular *.txt file directly inside dir. A document's
// ID is its file name without the extension. Documents are returned sorted
// by ID; subdirectories and other files are skipped.
func LoadDir(dir string) ([]indexer.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory %s: %w", dir, err)
	}

	docs := make([]indexer.Document, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasSuffix(name, extension) {
			continue
		}
		path := filepath.Join(dir, name)
		doc, err := readDocument(path, strings.TrimSuffix(name, extension))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})

	logger.WithComponent("corpus").Info("corpus loaded", "dir", dir, "documents", len(docs))
	return docs, nil
}

func readDocument(path, id string) (indexer.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return indexer.Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxDocumentSize {
		return indexer.Document{}, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			apperrors.ErrInvalidInput, path, info.Size(), maxDocumentSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return indexer.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return indexer.Document{}, fmt.Errorf("%w: %s is not valid UTF-8", apperrors.ErrInvalidInput, path)
	}
	return indexer.Document{ID: id, Text: string(data)}, nil
}
