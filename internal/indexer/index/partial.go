package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

// Partial accumulates postings for a subset of the corpus. Each build
// worker owns one Partial; partials are merged sequentially and frozen into
// an Index. A Partial is not safe for concurrent use.
type Partial struct {
	postings   map[string]map[string]*Posting
	docLengths map[string]int
}

func NewPartial() *Partial {
	return &Partial{
		postings:   make(map[string]map[string]*Posting),
		docLengths: make(map[string]int),
	}
}

// Add records every (term, position) pair of one tokenized document.
func (p *Partial) Add(docID string, tokens []tokenizer.Token) error {
	if _, exists := p.docLengths[docID]; exists {
		return fmt.Errorf("%w: %q", apperrors.ErrDuplicateDocument, docID)
	}
	p.docLengths[docID] = len(tokens)

	for _, token := range tokens {
		docs, exists := p.postings[token.Term]
		if !exists {
			docs = make(map[string]*Posting)
			p.postings[token.Term] = docs
		}
		posting, exists := docs[docID]
		if !exists {
			posting = &Posting{
				DocID:     docID,
				Positions: make([]int, 0, 4),
			}
			docs[docID] = posting
		}
		posting.Frequency++
		posting.Positions = append(posting.Positions, token.Position)
	}
	return nil
}

// Merge folds other into p. Partials cover disjoint documents, so postings
// never collide; a shared document id is reported as a duplicate.
func (p *Partial) Merge(other *Partial) error {
	for docID, length := range other.docLengths {
		if _, exists := p.docLengths[docID]; exists {
			return fmt.Errorf("%w: %q", apperrors.ErrDuplicateDocument, docID)
		}
		p.docLengths[docID] = length
	}
	for term, docs := range other.postings {
		target, exists := p.postings[term]
		if !exists {
			p.postings[term] = docs
			continue
		}
		for docID, posting := range docs {
			target[docID] = posting
		}
	}
	return nil
}

// DocCount returns the number of documents added so far.
func (p *Partial) DocCount() int {
	return len(p.docLengths)
}

// Freeze produces the immutable Index. Ordinals are assigned in ascending
// document id order, so every ordinal-ordered traversal is also id-ordered.
func (p *Partial) Freeze() *Index {
	docIDs := make([]string, 0, len(p.docLengths))
	for docID := range p.docLengths {
		docIDs = append(docIDs, docID)
	}
	sort.Strings(docIDs)

	idx := &Index{
		docIDs:     docIDs,
		ordinals:   make(map[string]uint32, len(docIDs)),
		docLengths: make([]int, len(docIDs)),
		docNorms:   make([]float64, len(docIDs)),
		postings:   make(map[string]PostingList, len(p.postings)),
		positional: make(map[string]map[uint32]*Posting, len(p.postings)),
		inverted:   make(map[string]*roaring.Bitmap, len(p.postings)),
	}
	for i, docID := range docIDs {
		ord := uint32(i)
		idx.ordinals[docID] = ord
		idx.docLengths[i] = p.docLengths[docID]
		idx.totalTokens += int64(p.docLengths[docID])
	}

	// Terms are visited in sorted order so floating-point norm sums are
	// reproducible across builds.
	terms := make([]string, 0, len(p.postings))
	for term := range p.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := len(docIDs)
	for _, term := range terms {
		docs := p.postings[term]
		list := make(PostingList, 0, len(docs))
		for _, posting := range docs {
			list = append(list, *posting)
		}
		sort.Slice(list, func(i, j int) bool {
			return list[i].DocID < list[j].DocID
		})

		byOrdinal := make(map[uint32]*Posting, len(list))
		bitmap := roaring.New()
		for i := range list {
			ord := idx.ordinals[list[i].DocID]
			byOrdinal[ord] = &list[i]
			bitmap.Add(ord)
			w := TFIDFWeight(list[i].Frequency, len(list), n)
			idx.docNorms[ord] += w * w
		}
		bitmap.RunOptimize()

		idx.postings[term] = list
		idx.positional[term] = byOrdinal
		idx.inverted[term] = bitmap
	}
	for i, sq := range idx.docNorms {
		idx.docNorms[i] = math.Sqrt(sq)
	}
	idx.digest = computeDigest(idx)
	return idx
}
