// Package parser turns raw query text into a QueryPlan using the same
// tokenizer the index was built with.
package parser

import (
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
)

type QueryPlan struct {
	RawQuery string
	// Terms is the full query term sequence, repeats and order preserved;
	// phrase scoring depends on both.
	Terms []string
	// Distinct holds Terms without repeats in first-occurrence order.
	Distinct []string
}

// Empty reports whether tokenization left no terms.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}

type Parser struct {
	tokenizer *tokenizer.Tokenizer
}

func New(tok *tokenizer.Tokenizer) *Parser {
	return &Parser{tokenizer: tok}
}

func (p *Parser) Parse(query string) *QueryPlan {
	terms := p.tokenizer.Terms(query)
	plan := &QueryPlan{
		RawQuery: query,
		Terms:    terms,
		Distinct: make([]string, 0, len(terms)),
	}
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		plan.Distinct = append(plan.Distinct, term)
	}
	return plan
}
