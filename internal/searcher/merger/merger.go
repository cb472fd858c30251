// Package merger combines rankings. Fuse implements reciprocal rank fusion,
// which only looks at ranks so scorers with unrelated scales can be mixed;
// TopK selects the best entries of a scored list with a bounded heap.
package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/ranker"
)

// DefaultRRFK is the usual smoothing constant for reciprocal rank fusion.
const DefaultRRFK = 60

// Fuse sums 1/(k+r) over every ranking a document appears in, r being its
// 1-based rank there. Each ranking must already be in canonical order. The
// result is sorted by fused score, then id.
func Fuse(rankings [][]ranker.ScoredDoc, k int) []ranker.ScoredDoc {
	if k <= 0 {
		k = DefaultRRFK
	}
	fused := make(map[string]float64)
	order := make([]string, 0)
	for _, ranking := range rankings {
		for i, doc := range ranking {
			if _, seen := fused[doc.DocID]; !seen {
				order = append(order, doc.DocID)
			}
			fused[doc.DocID] += 1 / float64(k+i+1)
		}
	}
	result := make([]ranker.ScoredDoc, 0, len(order))
	for _, docID := range order {
		result = append(result, ranker.ScoredDoc{
			DocID: docID,
			Score: fused[docID],
		})
	}
	ranker.Sort(result)
	return result
}

// TopK returns the limit best documents in canonical order. A non-positive
// limit yields an empty list.
func TopK(docs []ranker.ScoredDoc, limit int) []ranker.ScoredDoc {
	if limit <= 0 {
		return []ranker.ScoredDoc{}
	}
	h := &scoredDocHeap{}
	heap.Init(h)
	for _, doc := range docs {
		heap.Push(h, doc)
		if h.Len() > limit {
			heap.Pop(h)
		}
	}
	result := make([]ranker.ScoredDoc, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ranker.ScoredDoc)
	}
	return result
}

// scoredDocHeap is a min-heap on the canonical order: the root is the entry
// that would be ranked last.
type scoredDocHeap []ranker.ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].DocID > h[j].DocID
}

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x any) {
	*h = append(*h, x.(ranker.ScoredDoc))
}

func (h *scoredDocHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
