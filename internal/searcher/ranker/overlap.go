package ranker

import "github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/index"

// Overlap scores a document by the number of distinct query terms it holds.
type Overlap struct{}

func (Overlap) Name() string { return "overlap" }

func (Overlap) Score(query []string, idx *index.Index) []ScoredDoc {
	return collect(idx, overlapCounts(distinct(query), idx))
}
