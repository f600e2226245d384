package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/brandforge-ai/brandforge/internal/domain"
)

// RetrievedPoint is a knowledge point with its similarity score.
type RetrievedPoint struct {
	Point domain.KnowledgePoint
	Score float64
}

// VectorSearcher performs nearest-neighbour search over an agent's
// knowledge points.
type VectorSearcher interface {
	QueryNearest(ctx context.Context, agentID string, embedding []float32, k int) ([]*RetrievedPoint, error)
}

// DefaultRetrievalLimit is how many knowledge points are pulled into
// the brief when the caller does not ask for a specific number.
const DefaultRetrievalLimit = 5

var purposeGuidance = map[domain.ContentPurpose]string{
	domain.PurposeBlogPost:        "The brief is for a long-form blog post. Favour depth, a clear angle and section-worthy sub-topics.",
	domain.PurposeLinkedInPost:    "The brief is for a LinkedIn post. Favour a professional tone, a single insight and a hook that works in the first two lines.",
	domain.PurposeTwitterThread:   "The brief is for a Twitter thread. Favour short punchy claims that can be split across numbered tweets.",
	domain.PurposeInstagramPost:   "The brief is for an Instagram caption. Favour vivid, visual language and a conversational voice.",
	domain.PurposeEmailNewsletter: "The brief is for an email newsletter. Favour a personal address to the reader and one clear call to action.",
	domain.PurposeRedditPost:      "The brief is for a Reddit post. Favour plain language, concrete detail and zero marketing speak.",
	domain.PurposeTechnicalDocs:   "The brief is for technical documentation. Favour precision, prerequisites and step-by-step structure.",
}

const retrievalSystemPrompt = `You refine a rough content request into a focused creative brief.
Ground the brief in the brand knowledge provided; never invent facts about the
brand that the knowledge does not support. Reply with the brief only.`

// RetrievalService turns a raw content description into a brand-aware
// brief by combining vector retrieval with an LLM rewrite.
type RetrievalService struct {
	embed  EmbeddingClient
	points VectorSearcher
	llm    LLMClient
}

func NewRetrievalService(embed EmbeddingClient, points VectorSearcher, llm LLMClient) *RetrievalService {
	return &RetrievalService{
		embed:  embed,
		points: points,
		llm:    llm,
	}
}

type RetrieveInput struct {
	AgentID     string
	Purpose     domain.ContentPurpose
	Description string
	Limit       int
}

type RetrievalResult struct {
	Brief  string
	Points []*RetrievedPoint
}

// Retrieve builds the creative brief for a content request. It fails
// before touching any external service when the description is empty
// or the agent's purpose is missing or unknown.
func (s *RetrievalService) Retrieve(ctx context.Context, input RetrieveInput) (*RetrievalResult, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, domain.ErrEmptyDescription
	}
	if input.Purpose == "" {
		return nil, domain.ErrAgentPurposeNotSet
	}
	guidance, ok := purposeGuidance[input.Purpose]
	if !ok {
		return nil, domain.ErrInvalidPurpose
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}

	embedding, err := s.embed.GenerateEmbedding(ctx, description)
	if err != nil {
		return nil, domain.NewExternalServiceError("failed to embed description", err)
	}

	points, err := s.points.QueryNearest(ctx, input.AgentID, embedding, limit)
	if err != nil {
		return nil, domain.NewPersistenceError("knowledge search failed", err)
	}

	res, err := s.llm.Generate(ctx, GenerateRequest{
		System: retrievalSystemPrompt + "\n\n" + guidance,
		Prompt: buildBriefPrompt(description, points),
	})
	if err != nil {
		return nil, domain.NewExternalServiceError("brief rewrite failed", err)
	}

	brief := strings.TrimSpace(res.Text)
	if brief == "" {
		return nil, domain.ErrEmptyGeneration
	}

	return &RetrievalResult{Brief: brief, Points: points}, nil
}

func buildBriefPrompt(description string, points []*RetrievedPoint) string {
	var b strings.Builder
	b.WriteString("Content request:\n")
	b.WriteString(description)
	b.WriteString("\n\nBrand knowledge:\n")
	if len(points) == 0 {
		b.WriteString("(no brand knowledge available)\n")
	}
	for i, p := range points {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Point.Content)
	}
	return b.String()
}
