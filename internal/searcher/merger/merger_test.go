package merger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/ranker"
)

func ranking(ids ...string) []ranker.ScoredDoc {
	out := make([]ranker.ScoredDoc, len(ids))
	for i, id := range ids {
		out[i] = ranker.ScoredDoc{DocID: id, Score: float64(len(ids) - i)}
	}
	return out
}

func TestFuse_ReciprocalRankFormula(t *testing.T) {
	fused := Fuse([][]ranker.ScoredDoc{
		ranking("a", "b", "c"),
		ranking("b", "c"),
	}, 60)

	require.Len(t, fused, 3)
	assert.Equal(t, "b", fused[0].DocID)
	assert.InDelta(t, 1.0/62+1.0/61, fused[0].Score, 1e-15)
	assert.Equal(t, "c", fused[1].DocID)
	assert.InDelta(t, 1.0/63+1.0/62, fused[1].Score, 1e-15)
	assert.Equal(t, "a", fused[2].DocID)
	assert.InDelta(t, 1.0/61, fused[2].Score, 1e-15)
}

func TestFuse_IgnoresRawScores(t *testing.T) {
	small := []ranker.ScoredDoc{{DocID: "x", Score: 0.001}, {DocID: "y", Score: 0.0001}}
	large := []ranker.ScoredDoc{{DocID: "x", Score: 9000}, {DocID: "y", Score: 10}}

	assert.Equal(t,
		Fuse([][]ranker.ScoredDoc{small}, 60),
		Fuse([][]ranker.ScoredDoc{large}, 60))
}

func TestFuse_FirstEverywhereStaysFirst(t *testing.T) {
	fused := Fuse([][]ranker.ScoredDoc{
		ranking("top", "b", "c", "d"),
		ranking("top", "d", "c"),
		ranking("top", "e"),
	}, 60)

	assert.Equal(t, "top", fused[0].DocID)
}

func TestFuse_TiesBrokenByID(t *testing.T) {
	fused := Fuse([][]ranker.ScoredDoc{
		ranking("z", "a"),
		ranking("a", "z"),
	}, 60)

	require.Len(t, fused, 2)
	assert.Equal(t, fused[0].Score, fused[1].Score)
	assert.Equal(t, "a", fused[0].DocID)
	assert.Equal(t, "z", fused[1].DocID)
}

func TestFuse_EmptyInputs(t *testing.T) {
	assert.Empty(t, Fuse(nil, 60))
	assert.Empty(t, Fuse([][]ranker.ScoredDoc{{}, {}}, 60))

	fused := Fuse([][]ranker.ScoredDoc{{}, ranking("only")}, 0)
	require.Len(t, fused, 1)
	assert.InDelta(t, 1.0/float64(DefaultRRFK+1), fused[0].Score, 1e-15)
}

func TestTopK(t *testing.T) {
	docs := []ranker.ScoredDoc{
		{DocID: "d", Score: 1},
		{DocID: "a", Score: 3},
		{DocID: "c", Score: 2},
		{DocID: "b", Score: 2},
	}

	assert.Equal(t, []ranker.ScoredDoc{
		{DocID: "a", Score: 3},
		{DocID: "b", Score: 2},
	}, TopK(docs, 2))
	assert.Len(t, TopK(docs, 10), 4)
	assert.Equal(t, "d", TopK(docs, 10)[3].DocID)
	assert.Empty(t, TopK(docs, 0))
}

func TestTopK_MatchesFullSort(t *testing.T) {
	docs := make([]ranker.ScoredDoc, 0, 200)
	for i := 0; i < 200; i++ {
		docs = append(docs, ranker.ScoredDoc{DocID: fmt.Sprintf("doc-%03d", i), Score: float64(i % 13)})
	}
	sorted := append([]ranker.ScoredDoc(nil), docs...)
	ranker.Sort(sorted)

	for _, k := range []int{1, 7, 50, 199, 200} {
		assert.Equal(t, sorted[:k], TopK(docs, k), "k=%d", k)
	}
}
