package domain

import "time"

// KnowledgeSourceType identifies where a knowledge point originated.
type KnowledgeSourceType string

const (
	KnowledgeSourceWebsite  KnowledgeSourceType = "website"
	KnowledgeSourceDocument KnowledgeSourceType = "document"
	KnowledgeSourceManual   KnowledgeSourceType = "manual"
)

// Chunk is a bounded, semantically coherent slice of source text
// produced by the segmenter. Chunks are immutable and ordered by
// Sequence; they are never shared across agents.
type Chunk struct {
	ID       string
	SourceID string
	Text     string
	Sequence int
}

// KnowledgePoint is a distilled, embedding-indexed unit of brand
// knowledge owned by an agent. Knowledge points are never mutated,
// only superseded by re-distillation under fresh ids.
type KnowledgePoint struct {
	ID         string
	AgentID    string
	SourceType KnowledgeSourceType
	Content    string
	Summary    string
	Category   string
	Keywords   []string
	Confidence float64
	CreatedAt  time.Time
}

// SummaryPreviewLen is the maximum length of the truncated content
// preview stored as a knowledge point's summary.
const SummaryPreviewLen = 160

// SummaryPreview truncates content to a short preview usable as a
// knowledge point summary.
func SummaryPreview(content string) string {
	runes := []rune(content)
	if len(runes) <= SummaryPreviewLen {
		return content
	}
	return string(runes[:SummaryPreviewLen])
}

// ValidateKnowledgePoint validates a KnowledgePoint instance
func ValidateKnowledgePoint(kp *KnowledgePoint) error {
	if kp == nil {
		return ErrMissingRequiredField
	}
	if kp.ID == "" || kp.AgentID == "" || kp.Content == "" {
		return ErrMissingRequiredField
	}
	if !isValidKnowledgeSource(kp.SourceType) {
		return ErrInvalidKnowledgeSource
	}
	return nil
}

func isValidKnowledgeSource(s KnowledgeSourceType) bool {
	switch s {
	case KnowledgeSourceWebsite, KnowledgeSourceDocument, KnowledgeSourceManual:
		return true
	default:
		return false
	}
}
