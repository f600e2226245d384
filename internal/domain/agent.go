package domain

import "time"

// ContentPurpose is the channel a piece of content is written for.
// Each purpose carries its own tone and length guidance in the
// retrieval engine's purpose table.
type ContentPurpose string

const (
	PurposeBlogPost        ContentPurpose = "blog_post"
	PurposeLinkedInPost    ContentPurpose = "linkedin_post"
	PurposeTwitterThread   ContentPurpose = "twitter_thread"
	PurposeInstagramPost   ContentPurpose = "instagram_post"
	PurposeEmailNewsletter ContentPurpose = "email_newsletter"
	PurposeRedditPost      ContentPurpose = "reddit_post"
	PurposeTechnicalDocs   ContentPurpose = "technical_documentation"
)

// Agent represents a brand agent that owns knowledge points and
// content. The dashboard that manages agents is an external
// collaborator; the pipeline only reads them.
type Agent struct {
	ID           string
	Name         string
	Purpose      ContentPurpose
	SystemPrompt string
	WebsiteURL   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAgent creates a new Agent instance
func NewAgent(id, name string, purpose ContentPurpose, systemPrompt, websiteURL string, createdAt time.Time) *Agent {
	return &Agent{
		ID:           id,
		Name:         name,
		Purpose:      purpose,
		SystemPrompt: systemPrompt,
		WebsiteURL:   websiteURL,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

// ValidateAgent validates an Agent instance
func ValidateAgent(a *Agent) error {
	if a == nil {
		return ErrMissingRequiredField
	}
	if a.ID == "" || a.Name == "" {
		return ErrMissingRequiredField
	}
	if a.Purpose != "" && !IsValidPurpose(a.Purpose) {
		return ErrInvalidPurpose
	}
	return nil
}

// IsValidPurpose reports whether p names a known content channel.
func IsValidPurpose(p ContentPurpose) bool {
	switch p {
	case PurposeBlogPost, PurposeLinkedInPost, PurposeTwitterThread,
		PurposeInstagramPost, PurposeEmailNewsletter, PurposeRedditPost,
		PurposeTechnicalDocs:
		return true
	default:
		return false
	}
}
