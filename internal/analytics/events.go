// Package analytics records what users search for. Search events are kept
// in an in-process Aggregator for the stats endpoint and, when Kafka is
// configured, published in batches to the analytics topic.
package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventCacheHit   EventType = "cache_hit"
	EventZeroResult EventType = "zero_result"
)

// Sources of search events.
const (
	SourceHTTP  = "http"
	SourceBatch = "batch"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	TopDocs   []string  `json:"top_docs,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Digest    string    `json:"index_digest"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Classify fills in Type from the event's outcome.
func (e *SearchEvent) Classify() {
	switch {
	case e.Returned == 0:
		e.Type = EventZeroResult
	case e.CacheHit:
		e.Type = EventCacheHit
	default:
		e.Type = EventSearch
	}
}
