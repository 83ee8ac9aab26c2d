package domain

import (
	"fmt"
	"math"
)

// Default retrieval parameters.
const (
	DefaultTopK      = 5
	DefaultThreshold = 0.5
)

// Fixed user-visible texts.
const (
	// ApologyText replaces the answer when generation fails.
	ApologyText = "I’m sorry, I encountered an error while generating an answer."

	// RefusalText is the answer when no usable context is available.
	RefusalText = "I’m sorry, I don’t have that information."
)

// SearchHit is one row scored against a query vector.
type SearchHit struct {
	// Row is the position of the vector in the index.
	Row int

	// Score is the cosine similarity in [-1, 1].
	Score float64
}

// ContextItem is one entry of the context handed to generation.
type ContextItem struct {
	// Text is the formatted context string.
	Text string `json:"text"`

	// RecordID is the source record's identifier. Empty for the fallback item.
	RecordID string `json:"record_id,omitempty"`

	// Row is the index row of the source record, -1 for the fallback item.
	Row int `json:"row"`

	// Score is the similarity of the source record, 0 for the fallback item.
	Score float64 `json:"score"`

	// Fallback marks the single configured fallback item.
	Fallback bool `json:"fallback,omitempty"`
}

// NewFallbackItem wraps the configured fallback text.
func NewFallbackItem(text string) ContextItem {
	return ContextItem{Text: text, Row: -1, Fallback: true}
}

// RetrievalOptions configures a single retrieval.
type RetrievalOptions struct {
	// TopK is the maximum number of rows to consider. Must be >= 1.
	TopK int

	// Threshold is the minimum similarity a row needs to survive. Must be in [-1, 1].
	Threshold float64
}

// DefaultRetrievalOptions returns the standard top-k and threshold.
func DefaultRetrievalOptions() RetrievalOptions {
	return RetrievalOptions{TopK: DefaultTopK, Threshold: DefaultThreshold}
}

// Validate checks the option ranges.
func (o RetrievalOptions) Validate() error {
	if o.TopK < 1 {
		return fmt.Errorf("%w: top-k must be at least 1, got %d", ErrInvalidInput, o.TopK)
	}
	if math.IsNaN(o.Threshold) || o.Threshold < -1 || o.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be in [-1, 1], got %g", ErrInvalidInput, o.Threshold)
	}
	return nil
}

// QueryState is a stage of a single query.
type QueryState string

// Query stages. MATCHED and FALLBACK are terminal.
const (
	QueryStateStart     QueryState = "start"
	QueryStateEmbedding QueryState = "embedding"
	QueryStateSearching QueryState = "searching"
	QueryStateGating    QueryState = "gating"
	QueryStateMatched   QueryState = "matched"
	QueryStateFallback  QueryState = "fallback"
)

// IsTerminal reports whether the state ends a query.
func (s QueryState) IsTerminal() bool {
	return s == QueryStateMatched || s == QueryStateFallback
}

// RetrievalResult is the outcome of one query.
// Contexts is never empty. Scores holds the surviving similarities in
// context order and is empty when UsedFallback is true.
type RetrievalResult struct {
	Query        string        `json:"query"`
	Contexts     []ContextItem `json:"contexts"`
	UsedFallback bool          `json:"used_fallback"`
	Scores       []float64     `json:"scores"`
	State        QueryState    `json:"state"`
}

// Texts returns the context strings in order.
func (r *RetrievalResult) Texts() []string {
	texts := make([]string, len(r.Contexts))
	for i := range r.Contexts {
		texts[i] = r.Contexts[i].Text
	}
	return texts
}

// Answer is a generated reply together with the retrieval that fed it.
type Answer struct {
	Query        string        `json:"query"`
	Text         string        `json:"answer"`
	UsedFallback bool          `json:"used_fallback"`
	Similarities []float64     `json:"similarities"`
	Contexts     []ContextItem `json:"contexts,omitempty"`
}
