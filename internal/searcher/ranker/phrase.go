package ranker

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

func checkBonus(bonus float64) error {
	if bonus < 0 {
		return apperrors.Invalidf("phrase bonus must be >= 0, got %g", bonus)
	}
	return nil
}

// Phrase scores term overlap plus a fixed bonus when the whole query occurs
// in the document as a contiguous, order-preserving run of terms.
type Phrase struct {
	bonus float64
}

func NewPhrase(bonus float64) (*Phrase, error) {
	if err := checkBonus(bonus); err != nil {
		return nil, err
	}
	return &Phrase{bonus: bonus}, nil
}

func (s *Phrase) Name() string { return "phrase" }

func (s *Phrase) Score(query []string, idx *index.Index) []ScoredDoc {
	scores := overlapCounts(distinct(query), idx)
	for ord := range scores {
		if containsPhrase(query, idx, ord) {
			scores[ord] += s.bonus
		}
	}
	return collect(idx, scores)
}

// containsPhrase reports whether query[i] sits at start+i for some start
// position of query[0] in the document.
func containsPhrase(query []string, idx *index.Index, ord uint32) bool {
	if len(query) == 0 {
		return false
	}
	positions := make([][]int, len(query))
	for i, term := range query {
		positions[i] = idx.Positions(term, ord)
		if len(positions[i]) == 0 {
			return false
		}
	}
	for _, start := range positions[0] {
		matched := true
		for offset := 1; offset < len(query); offset++ {
			if !hasPosition(positions[offset], start+offset) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func hasPosition(sorted []int, pos int) bool {
	i := sort.SearchInts(sorted, pos)
	return i < len(sorted) && sorted[i] == pos
}

// LoosePhrase awards the bonus when every distinct query term occurs in the
// document, in any order and at any distance.
type LoosePhrase struct {
	bonus float64
}

func NewLoosePhrase(bonus float64) (*LoosePhrase, error) {
	if err := checkBonus(bonus); err != nil {
		return nil, err
	}
	return &LoosePhrase{bonus: bonus}, nil
}

func (s *LoosePhrase) Name() string { return "loose_phrase" }

func (s *LoosePhrase) Score(query []string, idx *index.Index) []ScoredDoc {
	terms := distinct(query)
	scores := overlapCounts(terms, idx)
	for ord, count := range scores {
		if int(count) == len(terms) {
			scores[ord] += s.bonus
		}
	}
	return collect(idx, scores)
}

// Bigram adds half the bonus for every occurrence of every adjacent query
// term pair found adjacent in the document.
type Bigram struct {
	bonus float64
}

func NewBigram(bonus float64) (*Bigram, error) {
	if err := checkBonus(bonus); err != nil {
		return nil, err
	}
	return &Bigram{bonus: bonus}, nil
}

func (s *Bigram) Name() string { return "bigram" }

func (s *Bigram) Score(query []string, idx *index.Index) []ScoredDoc {
	scores := overlapCounts(distinct(query), idx)
	for ord := range scores {
		for i := 0; i+1 < len(query); i++ {
			second := idx.Positions(query[i+1], ord)
			if len(second) == 0 {
				continue
			}
			for _, p := range idx.Positions(query[i], ord) {
				if hasPosition(second, p+1) {
					scores[ord] += s.bonus / 2
				}
			}
		}
	}
	return collect(idx, scores)
}
