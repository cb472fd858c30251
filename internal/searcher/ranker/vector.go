package ranker

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/index"
)

// Vector scores by cosine similarity between TF-IDF vectors of the query and
// each candidate document. Both sides use index.TFIDFWeight; document norms
// come precomputed from the index.
type Vector struct{}

func (Vector) Name() string { return "vector" }

func (Vector) Score(query []string, idx *index.Index) []ScoredDoc {
	n := idx.DocCount()
	queryTF := make(map[string]int, len(query))
	for _, term := range query {
		queryTF[term]++
	}

	dots := make(map[uint32]float64)
	var queryNorm float64
	for _, term := range distinct(query) {
		postings := idx.Search(term)
		df := len(postings)
		qw := index.TFIDFWeight(queryTF[term], df, n)
		if qw == 0 {
			continue
		}
		queryNorm += qw * qw
		for _, p := range postings {
			ord, _ := idx.Ordinal(p.DocID)
			dots[ord] += qw * index.TFIDFWeight(p.Frequency, df, n)
		}
	}
	if queryNorm == 0 {
		return []ScoredDoc{}
	}
	queryNorm = math.Sqrt(queryNorm)

	scores := make(map[uint32]float64, len(dots))
	for ord, dot := range dots {
		docNorm := idx.DocNorm(ord)
		if docNorm == 0 {
			scores[ord] = 0
			continue
		}
		scores[ord] = dot / (queryNorm * docNorm)
	}
	return collect(idx, scores)
}
