package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// Sink persists the results of a run.
type Sink interface {
	Name() string
	Write(ctx context.Context, results []Result) error
}

// WriteCSV emits the query_id,query,relevant_docs table with document IDs
// space-joined in rank order.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{columnQueryID, columnQuery, columnRelevantDocs}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, res := range results {
		record := []string{res.Query.ID, res.Query.Text, strings.Join(res.Docs, " ")}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing result for query %s: %w", res.Query.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVSink writes the results file and, when ZipPath is set, an archive
// holding it.
type CSVSink struct {
	CSVPath string
	ZipPath string
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(_ context.Context, results []Result) error {
	f, err := os.Create(s.CSVPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", s.CSVPath, err)
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", s.CSVPath, err)
	}
	if s.ZipPath == "" {
		return nil
	}
	return ZipFile(s.CSVPath, s.ZipPath)
}

// ZipFile stores src, deflated, under its base name in a new archive at dst.
func ZipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	zw := zip.NewWriter(out)
	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     filepath.Base(src),
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		out.Close()
		return fmt.Errorf("adding %s to archive: %w", src, err)
	}
	if _, err := io.Copy(entry, in); err != nil {
		out.Close()
		return fmt.Errorf("compressing %s: %w", src, err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalising archive %s: %w", dst, err)
	}
	return out.Close()
}
