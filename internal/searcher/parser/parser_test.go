package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
)

func TestParse(t *testing.T) {
	tok, err := tokenizer.New(config.TokenizerConfig{Mode: config.ModeLatin})
	require.NoError(t, err)
	p := New(tok)

	plan := p.Parse("The new, NEW York!")

	assert.Equal(t, "The new, NEW York!", plan.RawQuery)
	assert.Equal(t, []string{"new", "new", "york"}, plan.Terms)
	assert.Equal(t, []string{"new", "york"}, plan.Distinct)
	assert.False(t, plan.Empty())
}

func TestParse_EmptyQuery(t *testing.T) {
	tok, err := tokenizer.New(config.TokenizerConfig{Mode: config.ModeLatin})
	require.NoError(t, err)
	p := New(tok)

	for _, q := range []string{"", "   ", "the of", "?!"} {
		plan := p.Parse(q)
		assert.True(t, plan.Empty(), q)
		assert.Empty(t, plan.Distinct, q)
	}
}
