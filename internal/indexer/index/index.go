// Package index holds the immutable in-memory indexes built from a corpus:
// an inverted index (term -> document set, as roaring bitmaps over dense
// document ordinals) and a positional index (term -> document -> positions),
// plus the corpus statistics the scorers need. An Index is never mutated
// after Freeze and may be read by any number of goroutines without locking.
package index

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/zeebo/blake3"
)

type Index struct {
	docIDs      []string
	ordinals    map[string]uint32
	docLengths  []int
	docNorms    []float64
	totalTokens int64

	postings   map[string]PostingList
	positional map[string]map[uint32]*Posting
	inverted   map[string]*roaring.Bitmap

	digest string
}

// TFIDFWeight is the vector-space weight of a term occurring tf times in a
// document, given its document frequency df in a corpus of n documents.
// Unknown terms (df == 0) and absent terms (tf == 0) weigh nothing.
func TFIDFWeight(tf, df, n int) float64 {
	if tf <= 0 || df <= 0 || n <= 0 {
		return 0
	}
	return (1 + math.Log(float64(tf))) * math.Log(1+float64(n)/float64(df))
}

// DocCount returns the number of documents, including empty ones.
func (idx *Index) DocCount() int {
	return len(idx.docIDs)
}

// TermCount returns the vocabulary size.
func (idx *Index) TermCount() int {
	return len(idx.postings)
}

// TotalTokens returns the number of terms across all documents.
func (idx *Index) TotalTokens() int64 {
	return idx.totalTokens
}

// DocID returns the identifier for an ordinal.
func (idx *Index) DocID(ord uint32) string {
	return idx.docIDs[ord]
}

// Ordinal returns the dense ordinal for a document identifier.
func (idx *Index) Ordinal(docID string) (uint32, bool) {
	ord, ok := idx.ordinals[docID]
	return ord, ok
}

// DocIDs returns every document identifier in ascending order.
func (idx *Index) DocIDs() []string {
	out := make([]string, len(idx.docIDs))
	copy(out, idx.docIDs)
	return out
}

// DocLength returns the term-sequence length of a document.
func (idx *Index) DocLength(ord uint32) int {
	return idx.docLengths[ord]
}

// AvgDocLength returns the mean term-sequence length over all documents.
func (idx *Index) AvgDocLength() float64 {
	if len(idx.docIDs) == 0 {
		return 0
	}
	return float64(idx.totalTokens) / float64(len(idx.docIDs))
}

// DocNorm returns the Euclidean norm of the document's TF-IDF vector.
func (idx *Index) DocNorm(ord uint32) float64 {
	return idx.docNorms[ord]
}

// DocFreq returns how many documents contain term.
func (idx *Index) DocFreq(term string) int {
	return len(idx.postings[term])
}

// Search returns the postings for term ordered by document id, or nil for
// an unknown term. The returned slice is shared and must not be modified.
func (idx *Index) Search(term string) PostingList {
	return idx.postings[term]
}

// Posting returns the posting for (term, document).
func (idx *Index) Posting(term string, ord uint32) (*Posting, bool) {
	p, ok := idx.positional[term][ord]
	return p, ok
}

// Positions returns the ascending positions of term in a document.
func (idx *Index) Positions(term string, ord uint32) []int {
	if p, ok := idx.positional[term][ord]; ok {
		return p.Positions
	}
	return nil
}

// TermFrequency returns how often term occurs in a document.
func (idx *Index) TermFrequency(term string, ord uint32) int {
	if p, ok := idx.positional[term][ord]; ok {
		return p.Frequency
	}
	return 0
}

// Contains reports whether a document holds term at least once.
func (idx *Index) Contains(term string, ord uint32) bool {
	bm, ok := idx.inverted[term]
	return ok && bm.Contains(ord)
}

// Docs returns the identifiers of documents containing term, ascending.
func (idx *Index) Docs(term string) []string {
	bm, ok := idx.inverted[term]
	if !ok {
		return nil
	}
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, idx.docIDs[it.Next()])
	}
	return out
}

// Candidates returns a fresh bitmap of every document containing at least
// one of terms. Unknown terms are ignored.
func (idx *Index) Candidates(terms []string) *roaring.Bitmap {
	sets := make([]*roaring.Bitmap, 0, len(terms))
	for _, term := range terms {
		if bm, ok := idx.inverted[term]; ok {
			sets = append(sets, bm)
		}
	}
	if len(sets) == 0 {
		return roaring.New()
	}
	return roaring.FastOr(sets...)
}

// Snapshot returns every term with its postings, sorted by term.
func (idx *Index) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(idx.postings))
	for term, postings := range idx.postings {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: postings,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// Digest identifies the index contents. Rebuilding from the same documents
// and tokenizer configuration always yields the same digest.
func (idx *Index) Digest() string {
	return idx.digest
}

func computeDigest(idx *Index) string {
	h := blake3.New()
	var buf [binary.MaxVarintLen64]byte
	writeInt := func(v int64) {
		n := binary.PutVarint(buf[:], v)
		h.Write(buf[:n])
	}
	writeString := func(s string) {
		writeInt(int64(len(s)))
		h.Write([]byte(s))
	}

	writeInt(int64(len(idx.docIDs)))
	for i, docID := range idx.docIDs {
		writeString(docID)
		writeInt(int64(idx.docLengths[i]))
	}
	for _, entry := range idx.Snapshot() {
		writeString(entry.Term)
		writeInt(int64(len(entry.Postings)))
		for _, p := range entry.Postings {
			writeInt(int64(idx.ordinals[p.DocID]))
			writeInt(int64(p.Frequency))
			for _, pos := range p.Positions {
				writeInt(int64(pos))
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
