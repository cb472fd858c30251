package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/batch"
)

var defaultQueries = []string{
	"boundary layer",
	"heat transfer",
	"supersonic flow over a wedge",
	"skin friction",
	"shock wave interaction",
	"laminar flow separation",
	"wing aerodynamics",
	"pressure distribution",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	limit := flag.Int("limit", 10, "results requested per query")
	queriesFile := flag.String("queries", "", "query CSV with query_id,query columns")
	flag.Parse()

	queries := defaultQueries
	if *queriesFile != "" {
		loaded, err := batch.ReadQueriesFile(*queriesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading queries: %v\n", err)
			os.Exit(1)
		}
		queries = make([]string, 0, len(loaded))
		for _, q := range loaded {
			queries = append(queries, q.Text)
		}
	}
	if len(queries) == 0 {
		fmt.Fprintln(os.Stderr, "no queries to replay")
		os.Exit(1)
	}

	cfg := Config{
		BaseURL:     *baseURL,
		Concurrency: *concurrency,
		Duration:    *duration,
		Limit:       *limit,
		Queries:     queries,
	}

	fmt.Println("=== lexsearch load test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Queries:     %d unique\n", len(cfg.Queries))
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()
	report := Run(ctx, cfg, newClient(cfg.Concurrency)).Report(cfg.Duration)
	printReport(os.Stdout, report)
	if report.Total == 0 {
		fmt.Println("WARNING: no requests completed. Is the service running?")
		os.Exit(1)
	}
}

func printReport(w io.Writer, r Report) {
	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total requests:  %d\n", r.Total)
	fmt.Fprintf(w, "Successful:      %d\n", r.Success)
	fmt.Fprintf(w, "Errors:          %d (%.2f%%)\n", r.Errors, r.ErrorRate)
	fmt.Fprintf(w, "Zero results:    %d\n", r.ZeroResults)
	fmt.Fprintf(w, "Requests/sec:    %.2f\n", r.RequestsPerSec)
	if r.Latency.Count > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", r.Latency.Min)
		fmt.Fprintf(w, "Avg:    %s\n", r.Latency.Avg)
		fmt.Fprintf(w, "P50:    %s\n", r.Latency.P50)
		fmt.Fprintf(w, "P95:    %s\n", r.Latency.P95)
		fmt.Fprintf(w, "P99:    %s\n", r.Latency.P99)
		fmt.Fprintf(w, "Max:    %s\n", r.Latency.Max)
		fmt.Fprintf(w, "StdDev: %s\n", r.Latency.StdDev)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Status codes ===")
	for _, sc := range r.StatusCodes {
		fmt.Fprintf(w, "  %d: %d\n", sc.Code, sc.Count)
	}
}
