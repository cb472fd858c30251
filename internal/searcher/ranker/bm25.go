package ranker

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

// BM25 is Okapi BM25 summed over the distinct query terms. Terms absent
// from the corpus contribute nothing.
type BM25 struct {
	k1 float64
	b  float64
}

func NewBM25(k1, b float64) (*BM25, error) {
	if k1 <= 0 {
		return nil, apperrors.Invalidf("bm25 k1 must be > 0, got %g", k1)
	}
	if b < 0 || b > 1 {
		return nil, apperrors.Invalidf("bm25 b must be within [0, 1], got %g", b)
	}
	return &BM25{k1: k1, b: b}, nil
}

func (s *BM25) Name() string { return "bm25" }

func (s *BM25) Score(query []string, idx *index.Index) []ScoredDoc {
	totalDocs := idx.DocCount()
	avgDocLength := idx.AvgDocLength()
	scores := make(map[uint32]float64)
	for _, term := range distinct(query) {
		postings := idx.Search(term)
		if len(postings) == 0 {
			continue
		}
		idf := computeIDF(totalDocs, len(postings))
		for _, posting := range postings {
			ord, _ := idx.Ordinal(posting.DocID)
			tfNorm := s.computeTFNorm(
				float64(posting.Frequency),
				float64(idx.DocLength(ord)),
				avgDocLength,
			)
			scores[ord] += idf * tfNorm
		}
	}
	return collect(idx, scores)
}

func computeIDF(totalDocs int, docFreq int) float64 {
	numerator := float64(totalDocs) - float64(docFreq) + 0.5
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func (s *BM25) computeTFNorm(termFreq float64, docLength float64, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgDocLength
	denominator := termFreq + s.k1*(1-s.b+s.b*lengthRatio)
	return (termFreq * (s.k1 + 1)) / denominator
}
