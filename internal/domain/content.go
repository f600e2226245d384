package domain

import "time"

// RequestStatus is the state of a content request as it moves through
// the generation pipeline. The pipeline is the only writer; external
// callers observe the last known status.
type RequestStatus string

const (
	RequestStatusPending     RequestStatus = "pending"
	RequestStatusPlanning    RequestStatus = "planning"
	RequestStatusResearching RequestStatus = "researching"
	RequestStatusWriting     RequestStatus = "writing"
	RequestStatusEditing     RequestStatus = "editing"
	RequestStatusAnalyzing   RequestStatus = "analyzing"
	RequestStatusDraft       RequestStatus = "draft"
	RequestStatusFailed      RequestStatus = "failed"
)

// Terminal reports whether s is a terminal pipeline state.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusDraft || s == RequestStatusFailed
}

// ContentRequest drives a single generation pipeline run.
type ContentRequest struct {
	ID          string
	AgentID     string
	Description string
	Status      RequestStatus
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ContentStatus is the lifecycle state of a content row.
type ContentStatus string

const (
	ContentStatusPending ContentStatus = "pending"
	ContentStatusDraft   ContentStatus = "draft"
)

// ContentMeta is the structured metadata computed by the analysis
// stage from the generated body.
type ContentMeta struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Slug        string   `json:"slug"`
	Tags        []string `json:"tags"`
	Topics      []string `json:"topics"`
	Keywords    []string `json:"keywords"`
	Sources     []string `json:"sources"`
}

// ContentStats holds model-computed quality statistics for a body.
type ContentStats struct {
	QualityScore float64 `json:"quality_score"`
	WordCount    int     `json:"word_count"`
	ReadingTime  int     `json:"reading_time_minutes"`
}

// Content is the single active row per content request. Body and meta
// are mutated only by the generation pipeline or manual edits.
type Content struct {
	ID             string
	AgentID        string
	RequestID      string
	Body           string
	Meta           ContentMeta
	Stats          ContentStats
	Status         ContentStatus
	CurrentVersion int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ContentVersion is an immutable numbered snapshot of a content's
// body and meta. Version numbers are strictly increasing per content,
// starting at 1.
type ContentVersion struct {
	ID            string
	ContentID     string
	Version       int64
	Body          string
	Meta          ContentMeta
	Diff          string
	LineDiff      string
	ChangedFields []string
	UserID        string
	CreatedAt     time.Time
}

// StatusEvent is the outbound content.statusChanged notification.
type StatusEvent struct {
	ContentID string `json:"contentId"`
	Status    string `json:"status"`
}
