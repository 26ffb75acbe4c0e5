// ABOUTME: RAG query log entry and reading progress records
// ABOUTME: Side-effect sinks written by the pipeline and progress endpoints
package models

import "time"

// QueryMode distinguishes the two pipeline variants
type QueryMode string

const (
	QueryModeBookWide  QueryMode = "book-wide"
	QueryModeSelection QueryMode = "selection-based"
)

// RetrievedChunk is the digest of one retrieved chunk stored with a query log row
type RetrievedChunk struct {
	SectionID string  `json:"section_id"`
	Score     float64 `json:"score"`
	Excerpt   string  `json:"excerpt"`
}

// QueryLogEntry records one question-answering interaction
type QueryLogEntry struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id,omitempty"`
	QueryText       string           `json:"query_text"`
	QueryMode       QueryMode        `json:"query_mode"`
	SelectedText    string           `json:"selected_text,omitempty"`
	RetrievedChunks []RetrievedChunk `json:"retrieved_chunks,omitempty"`
	ResponseText    string           `json:"response_text"`
	ResponseTimeMS  int              `json:"response_time_ms"`
	CreatedAt       time.Time        `json:"created_at"`
}

// ReadingProgress tracks which sections a user has viewed and completed
type ReadingProgress struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	SectionID        string     `json:"section_id"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TimeSpentSeconds int        `json:"time_spent_seconds"`
	ScrollPercentage float64    `json:"scroll_percentage"` // 0.0 to 1.0
}

// IsCompleted reports whether the section counts as read
func (rp *ReadingProgress) IsCompleted() bool {
	return rp.ScrollPercentage >= 0.9
}
