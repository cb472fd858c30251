// Package ranker implements the relevance scorers. Every scorer restricts
// candidates to documents containing at least one query term and returns
// its results in the canonical order: descending score, then ascending
// document id.
package ranker

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Scorer ranks the candidate documents of idx for a query term sequence.
// Implementations are stateless and safe for concurrent use.
type Scorer interface {
	Name() string
	Score(query []string, idx *index.Index) []ScoredDoc
}

// Sort orders docs by descending score, breaking ties by ascending id.
func Sort(docs []ScoredDoc) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Score != docs[j].Score {
			return docs[i].Score > docs[j].Score
		}
		return docs[i].DocID < docs[j].DocID
	})
}

// New returns the scorer registered under name, parameterised by cfg.
func New(name string, cfg config.RankingConfig) (Scorer, error) {
	switch name {
	case config.ScorerOverlap:
		return Overlap{}, nil
	case config.ScorerBM25:
		return NewBM25(cfg.K1, cfg.B)
	case config.ScorerVector:
		return Vector{}, nil
	case config.ScorerPhrase:
		return NewPhrase(cfg.PhraseBonus)
	case config.ScorerLoosePhrase:
		return NewLoosePhrase(cfg.PhraseBonus)
	case config.ScorerBigram:
		return NewBigram(cfg.PhraseBonus)
	default:
		return nil, apperrors.Invalidf("unknown scorer %q", name)
	}
}

// FromConfig validates cfg and builds its scorers in configured order.
func FromConfig(cfg config.RankingConfig) ([]Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scorers := make([]Scorer, 0, len(cfg.Scorers))
	for _, name := range cfg.Scorers {
		s, err := New(name, cfg)
		if err != nil {
			return nil, err
		}
		scorers = append(scorers, s)
	}
	return scorers, nil
}

// distinct returns the query terms in first-occurrence order without repeats.
func distinct(query []string) []string {
	seen := make(map[string]struct{}, len(query))
	out := make([]string, 0, len(query))
	for _, term := range query {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}

// collect turns per-ordinal scores into sorted results.
func collect(idx *index.Index, scores map[uint32]float64) []ScoredDoc {
	result := make([]ScoredDoc, 0, len(scores))
	for ord, score := range scores {
		result = append(result, ScoredDoc{
			DocID: idx.DocID(ord),
			Score: score,
		})
	}
	Sort(result)
	return result
}

// overlapCounts scores every candidate by how many distinct query terms it
// contains.
func overlapCounts(terms []string, idx *index.Index) map[uint32]float64 {
	scores := make(map[uint32]float64)
	for _, term := range terms {
		for _, p := range idx.Search(term) {
			ord, _ := idx.Ordinal(p.DocID)
			scores[ord]++
		}
	}
	return scores
}
