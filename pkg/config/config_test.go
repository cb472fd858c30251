package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{ScorerBM25, ScorerVector}, cfg.Ranking.Scorers)
	assert.Equal(t, 60, cfg.Ranking.RRFK)
	assert.Equal(t, 1.5, cfg.Ranking.K1)
	assert.Equal(t, 0.75, cfg.Ranking.B)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
}

func TestLoad_YAMLOverridesOnlyListedFields(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  rateLimit: 120
ranking:
  scorers: [bm25, phrase]
batch:
  queryTimeout: 250ms
cache:
  backend: none
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 120, cfg.Server.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{ScorerBM25, ScorerPhrase}, cfg.Ranking.Scorers)
	assert.Equal(t, 1.5, cfg.Ranking.K1)
	assert.Equal(t, 250*time.Millisecond, cfg.Batch.QueryTimeout)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("LEX_SERVER_PORT", "7000")
	t.Setenv("LEX_RANKING_SCORERS", "overlap,bigram")
	t.Setenv("LEX_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LEX_TOKENIZER_MODE", ModeVietnamese)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, []string{ScorerOverlap, ScorerBigram}, cfg.Ranking.Scorers)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, ModeVietnamese, cfg.Tokenizer.Mode)
}

func TestLoad_MalformedEnvNumberIsIgnored(t *testing.T) {
	t.Setenv("LEX_SERVER_PORT", "not-a-port")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map]\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "ranking:\n  scorers: [tfidf]\n"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Tokenizer.Mode = "klingon" }},
		{"no scorers", func(c *Config) { c.Ranking.Scorers = nil }},
		{"duplicate scorer", func(c *Config) { c.Ranking.Scorers = []string{ScorerBM25, ScorerBM25} }},
		{"zero k1", func(c *Config) { c.Ranking.K1 = 0 }},
		{"b above one", func(c *Config) { c.Ranking.B = 1.1 }},
		{"zero rrf k", func(c *Config) { c.Ranking.RRFK = 0 }},
		{"negative phrase bonus", func(c *Config) { c.Ranking.PhraseBonus = -1 }},
		{"negative top k", func(c *Config) { c.Ranking.TopK = -1 }},
		{"negative indexer workers", func(c *Config) { c.Indexer.Workers = -1 }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -5 }},
		{"negative batch workers", func(c *Config) { c.Batch.Workers = -1 }},
		{"negative query timeout", func(c *Config) { c.Batch.QueryTimeout = -time.Second }},
		{"default above max", func(c *Config) { c.Search.DefaultLimit = 500 }},
		{"zero default limit", func(c *Config) { c.Search.DefaultLimit = 0 }},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"empty memory cache", func(c *Config) { c.Cache.Size = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			assert.ErrorIs(t, cfg.Validate(), apperrors.ErrInvalidConfig)
		})
	}
}

func TestValidate_RedisBackendIgnoresSize(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = CacheRedis
	cfg.Cache.Size = 0

	assert.NoError(t, cfg.Validate())
}

func TestPostgresConfig_DSN(t *testing.T) {
	dsn := Default().Postgres.DSN()

	assert.Equal(t, "host=localhost port=5432 user=lexsearch password=localdev dbname=lexsearch sslmode=disable", dsn)
}
