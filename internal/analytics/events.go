// Package analytics emits query telemetry events to Kafka through a buffered
// collector. Event emission never blocks or fails a request; a full buffer
// drops the event with a warning.
package analytics

import "time"

type EventType string

const (
	EventTermLookup EventType = "term_lookup"
	EventGeneLookup EventType = "gene_lookup"
	EventSimilarity EventType = "similarity"
)

// LookupEvent describes one term or gene lookup.
type LookupEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Requested int       `json:"requested"`
	Resolved  int       `json:"resolved"`
	Warnings  int       `json:"warnings"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// SimilarityEvent describes one similarity ranking request.
type SimilarityEvent struct {
	Type       EventType `json:"type"`
	QueryTerms int       `json:"query_terms"`
	Candidates int       `json:"candidates"`
	Returned   int       `json:"returned"`
	Method     string    `json:"method"`
	Combiner   string    `json:"combiner"`
	CacheHit   bool      `json:"cache_hit"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}
