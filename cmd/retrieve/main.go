package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/batch"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	corpusDir := flag.String("corpus", "", "corpus directory (overrides batch.corpusDir)")
	queriesFile := flag.String("queries", "", "query CSV (overrides batch.queriesFile)")
	outputCSV := flag.String("out", "", "result CSV (overrides batch.outputCsv)")
	outputZip := flag.String("zip", "", "result archive (overrides batch.outputZip)")
	scorers := flag.String("scorers", "", "comma-separated scorers (overrides ranking.scorers)")
	topK := flag.Int("topk", -1, "results per query (overrides ranking.topK)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg, *corpusDir, *queriesFile, *outputCSV, *outputZip, *scorers, *topK); err != nil {
		fmt.Fprintf(os.Stderr, "invalid flags: %v\n", err)
		os.Exit(2)
	}

	logger.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, metrics.New(prometheus.DefaultRegisterer)); err != nil {
		slog.Error("retrieval run failed", "error", err)
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config, corpusDir, queriesFile, outputCSV, outputZip, scorers string, topK int) error {
	if corpusDir != "" {
		cfg.Batch.CorpusDir = corpusDir
	}
	if queriesFile != "" {
		cfg.Batch.QueriesFile = queriesFile
	}
	if outputCSV != "" {
		cfg.Batch.OutputCSV = outputCSV
	}
	if outputZip != "" {
		cfg.Batch.OutputZip = outputZip
	}
	if scorers != "" {
		cfg.Ranking.Scorers = splitList(scorers)
	}
	if topK >= 0 {
		cfg.Ranking.TopK = topK
	}
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, m *metrics.Metrics) error {
	start := time.Now()

	tok, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		return err
	}
	docs, err := corpus.LoadDir(cfg.Batch.CorpusDir)
	if err != nil {
		return err
	}
	builder, err := indexer.NewBuilder(tok, cfg.Indexer, m)
	if err != nil {
		return err
	}
	idx, err := builder.Build(ctx, docs)
	if err != nil {
		return err
	}
	exec, err := executor.New(idx, tok, cfg.Ranking, m)
	if err != nil {
		return err
	}
	queries, err := batch.ReadQueriesFile(cfg.Batch.QueriesFile)
	if err != nil {
		return err
	}

	var publisher analytics.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		publisher = producer
	}
	collector := analytics.NewCollector(publisher, nil, analytics.CollectorConfig{
		BufferSize: cfg.Kafka.EventBufferSize,
	}, m)
	collector.Start(ctx)

	runner, err := batch.NewRunner(exec, batch.RunnerConfig{
		Workers: cfg.Batch.Workers,
		Timeout: cfg.Batch.QueryTimeout,
		TopK:    cfg.Ranking.TopK,
	}, collector, m)
	if err != nil {
		collector.Close()
		return err
	}
	results, err := runner.Run(ctx, queries)
	collector.Close()
	if err != nil {
		return err
	}

	sinks := []batch.Sink{&batch.CSVSink{CSVPath: cfg.Batch.OutputCSV, ZipPath: cfg.Batch.OutputZip}}
	if cfg.Batch.PostgresSink {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		sinks = append(sinks, batch.NewPostgresSink(db, cfg.Batch.RunName, idx.Digest()))
	}
	for _, sink := range sinks {
		if err := sink.Write(ctx, results); err != nil {
			return fmt.Errorf("writing %s sink: %w", sink.Name(), err)
		}
	}

	slog.Info("retrieval run finished",
		"documents", idx.DocCount(),
		"queries", len(results),
		"scorers", cfg.Ranking.Scorers,
		"output", cfg.Batch.OutputCSV,
		"archive", cfg.Batch.OutputZip,
		"digest", idx.Digest(),
		"duration", time.Since(start),
	)
	return nil
}
