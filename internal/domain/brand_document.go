package domain

import "time"

// BrandDocument is the concatenated text of one crawl of an agent's
// website, kept as the input for chunking and distillation. One
// document per agent; a re-crawl replaces it under a fresh source id.
type BrandDocument struct {
	AgentID   string
	SourceID  string
	Text      string
	UpdatedAt time.Time
}
