// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Tokenizer, Indexer, Ranking, Server, Cache, Redis, Kafka, ...).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

// Tokenizer modes. Segmentation changes token boundaries and therefore index
// identity, so the active mode is part of every cache key.
const (
	ModeLatin               = "latin"
	ModeVietnamese          = "vietnamese"
	ModeVietnameseSegmented = "vietnamese_segmented"
)

// Scorer names accepted in RankingConfig.Scorers.
const (
	ScorerOverlap     = "overlap"
	ScorerBM25        = "bm25"
	ScorerVector      = "vector"
	ScorerPhrase      = "phrase"
	ScorerLoosePhrase = "loose_phrase"
	ScorerBigram      = "bigram"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Search    SearchConfig    `yaml:"search"`
	Batch     BatchConfig     `yaml:"batch"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// RateLimit is the per-client requests-per-minute budget; 0 disables it.
	RateLimit int `yaml:"rateLimit"`
}

// TokenizerConfig selects the character class, the stopword set and the
// optional word-segmentation dictionary.
type TokenizerConfig struct {
	Mode           string   `yaml:"mode"`
	Stopwords      []string `yaml:"stopwords"`
	StopwordsFile  string   `yaml:"stopwordsFile"`
	DictionaryFile string   `yaml:"dictionaryFile"`
	Dictionary     []string `yaml:"dictionary"`
}

// IndexerConfig controls how the in-memory index is built.
type IndexerConfig struct {
	Workers int `yaml:"workers"`
}

// RankingConfig holds the scorer selection and scoring parameters.
type RankingConfig struct {
	Scorers     []string `yaml:"scorers"`
	K1          float64  `yaml:"k1"`
	B           float64  `yaml:"b"`
	RRFK        int      `yaml:"rrfK"`
	PhraseBonus float64  `yaml:"phraseBonus"`
	TopK        int      `yaml:"topK"`
}

// SearchConfig controls HTTP query limits.
type SearchConfig struct {
	MaxResults   int `yaml:"maxResults"`
	DefaultLimit int `yaml:"defaultLimit"`
}

// BatchConfig describes the offline run: where the corpus and queries live
// and where results are written.
type BatchConfig struct {
	CorpusDir    string        `yaml:"corpusDir"`
	QueriesFile  string        `yaml:"queriesFile"`
	OutputCSV    string        `yaml:"outputCsv"`
	OutputZip    string        `yaml:"outputZip"`
	Workers      int           `yaml:"workers"`
	QueryTimeout time.Duration `yaml:"queryTimeout"`
	PostgresSink bool          `yaml:"postgresSink"`
	RunName      string        `yaml:"runName"`
}

// CacheConfig selects the answer cache backend.
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// KafkaConfig holds Kafka broker and topic settings for analytics events.
type KafkaConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Brokers         []string `yaml:"brokers"`
	AnalyticsTopic  string   `yaml:"analyticsTopic"`
	EventBufferSize int      `yaml:"eventBufferSize"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with the reference ranking parameters and local
// development endpoints.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Tokenizer: TokenizerConfig{
			Mode: ModeLatin,
		},
		Indexer: IndexerConfig{
			Workers: 4,
		},
		Ranking: DefaultRanking(),
		Search: SearchConfig{
			MaxResults:   100,
			DefaultLimit: 50,
		},
		Batch: BatchConfig{
			CorpusDir:   "Cranfield",
			QueriesFile: "test.csv",
			OutputCSV:   "submission.csv",
			OutputZip:   "submission.zip",
			Workers:     8,
			RunName:     "default",
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			Size:    1024,
			TTL:     10 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Kafka: KafkaConfig{
			Brokers:         []string{"localhost:9092"},
			AnalyticsTopic:  "search-analytics",
			EventBufferSize: 10000,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "lexsearch",
			User:            "lexsearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// DefaultRanking returns BM25 fused with vector-space scoring using the
// standard Okapi and RRF constants.
func DefaultRanking() RankingConfig {
	return RankingConfig{
		Scorers:     []string{ScorerBM25, ScorerVector},
		K1:          1.5,
		B:           0.75,
		RRFK:        60,
		PhraseBonus: 1.0,
		TopK:        50,
	}
}

// Validate rejects malformed values. Nothing is clamped.
func (c *Config) Validate() error {
	if err := c.Tokenizer.Validate(); err != nil {
		return err
	}
	if err := c.Ranking.Validate(); err != nil {
		return err
	}
	if c.Indexer.Workers < 0 {
		return apperrors.Invalidf("indexer.workers must be >= 0, got %d", c.Indexer.Workers)
	}
	if c.Server.RateLimit < 0 {
		return apperrors.Invalidf("server.rateLimit must be >= 0, got %d", c.Server.RateLimit)
	}
	if c.Batch.Workers < 0 {
		return apperrors.Invalidf("batch.workers must be >= 0, got %d", c.Batch.Workers)
	}
	if c.Batch.QueryTimeout < 0 {
		return apperrors.Invalidf("batch.queryTimeout must be >= 0, got %s", c.Batch.QueryTimeout)
	}
	if c.Search.DefaultLimit < 1 || c.Search.MaxResults < c.Search.DefaultLimit {
		return apperrors.Invalidf("search limits must satisfy 1 <= defaultLimit <= maxResults, got %d/%d",
			c.Search.DefaultLimit, c.Search.MaxResults)
	}
	switch c.Cache.Backend {
	case CacheNone, CacheRedis:
	case CacheMemory:
		if c.Cache.Size <= 0 {
			return apperrors.Invalidf("cache.size must be > 0 for the memory backend, got %d", c.Cache.Size)
		}
	default:
		return apperrors.Invalidf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// Validate checks the tokenizer mode.
func (t TokenizerConfig) Validate() error {
	switch t.Mode {
	case ModeLatin, ModeVietnamese, ModeVietnameseSegmented:
		return nil
	default:
		return apperrors.Invalidf("unknown tokenizer mode %q", t.Mode)
	}
}

// Validate checks scorer names and scoring parameters.
func (r RankingConfig) Validate() error {
	if len(r.Scorers) == 0 {
		return apperrors.Invalidf("ranking.scorers must name at least one scorer")
	}
	seen := make(map[string]struct{}, len(r.Scorers))
	for _, name := range r.Scorers {
		switch name {
		case ScorerOverlap, ScorerBM25, ScorerVector, ScorerPhrase, ScorerLoosePhrase, ScorerBigram:
		default:
			return apperrors.Invalidf("unknown scorer %q", name)
		}
		if _, dup := seen[name]; dup {
			return apperrors.Invalidf("scorer %q listed twice", name)
		}
		seen[name] = struct{}{}
	}
	if r.K1 <= 0 {
		return apperrors.Invalidf("ranking.k1 must be > 0, got %g", r.K1)
	}
	if r.B < 0 || r.B > 1 {
		return apperrors.Invalidf("ranking.b must be within [0, 1], got %g", r.B)
	}
	if r.RRFK <= 0 {
		return apperrors.Invalidf("ranking.rrfK must be > 0, got %d", r.RRFK)
	}
	if r.PhraseBonus < 0 {
		return apperrors.Invalidf("ranking.phraseBonus must be >= 0, got %g", r.PhraseBonus)
	}
	if r.TopK < 0 {
		return apperrors.Invalidf("ranking.topK must be >= 0, got %d", r.TopK)
	}
	return nil
}

// applyEnvOverrides reads LEX_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LEX_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LEX_SERVER_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = n
		}
	}
	if v := os.Getenv("LEX_TOKENIZER_MODE"); v != "" {
		cfg.Tokenizer.Mode = v
	}
	if v := os.Getenv("LEX_TOKENIZER_STOPWORDS_FILE"); v != "" {
		cfg.Tokenizer.StopwordsFile = v
	}
	if v := os.Getenv("LEX_TOKENIZER_DICTIONARY_FILE"); v != "" {
		cfg.Tokenizer.DictionaryFile = v
	}
	if v := os.Getenv("LEX_INDEXER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Workers = n
		}
	}
	if v := os.Getenv("LEX_RANKING_SCORERS"); v != "" {
		cfg.Ranking.Scorers = strings.Split(v, ",")
	}
	if v := os.Getenv("LEX_RANKING_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ranking.TopK = n
		}
	}
	if v := os.Getenv("LEX_BATCH_CORPUS_DIR"); v != "" {
		cfg.Batch.CorpusDir = v
	}
	if v := os.Getenv("LEX_BATCH_QUERIES_FILE"); v != "" {
		cfg.Batch.QueriesFile = v
	}
	if v := os.Getenv("LEX_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("LEX_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("LEX_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LEX_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("LEX_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("LEX_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("LEX_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LEX_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
