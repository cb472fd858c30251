package index

// Posting records one (term, document) association: how often the term
// occurs and at which term-sequence positions, ascending.
type Posting struct {
	DocID     string `json:"doc_id"`
	Frequency int    `json:"frequency"`
	Positions []int  `json:"positions"`
}

// PostingList is ordered by ascending DocID.
type PostingList []Posting

// TermEntry pairs a term with its postings in a Snapshot.
type TermEntry struct {
	Term     string
	Postings PostingList
}
