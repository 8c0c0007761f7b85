// Package types provides type definitions for structured data used throughout the pin pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

// TrendItem is one keyword reported by a trend source. Score and Rising are
// optional; sources that have no numeric score leave Score nil.
type TrendItem struct {
	Keyword string   `json:"keyword"`
	Score   *float64 `json:"score,omitempty"`
	Rising  bool     `json:"rising,omitempty"`
}

// ScoreValue returns the score, or zero when the source did not report one.
func (t TrendItem) ScoreValue() float64 {
	if t.Score == nil {
		return 0
	}
	return *t.Score
}

// TopicCandidate is a ranked primary keyword with its supporting keywords.
type TopicCandidate struct {
	Primary       string   `json:"primary"`
	Supporting    []string `json:"supporting"`
	Score         float64  `json:"score"`
	IndustryMatch bool     `json:"industry_match"`
	ContextMatch  bool     `json:"context_match"`
}

// StoreContext is the business-context payload: categories and products,
// each with optional keywords.
type StoreContext struct {
	Categories []ContextEntry `json:"categories"`
	Products   []ContextEntry `json:"products"`
}

// ContextEntry is a named catalog entry with optional keywords.
type ContextEntry struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords,omitempty"`
}
