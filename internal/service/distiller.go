package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/telemetry"
	"github.com/google/uuid"
)

// UUIDGenerator generates UUIDs, allowing injection in tests.
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator uses google/uuid.
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string.
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

var _ UUIDGenerator = (*DefaultUUIDGenerator)(nil)

type KnowledgePointRepositoryInterface interface {
	Upsert(ctx context.Context, kp *domain.KnowledgePoint, embedding []float32) error
	CountByAgent(ctx context.Context, agentID string) (int64, error)
	DeleteByAgent(ctx context.Context, agentID string) (int64, error)
}

const distillSystemPrompt = `You clean up raw text extracted from websites and documents.
Rewrite the passage so that every statement stands on its own: resolve pronouns,
expand abbreviations on first use, and drop navigation text, boilerplate and
calls to action. Keep every concrete fact. Reply with the rewritten passage
only. If the passage contains no usable information, reply with an empty string.`

const formatSystemPrompt = `You turn a cleaned passage into a single structured knowledge point.
Reply with a JSON object and nothing else, using exactly these fields:
{"content": "the full knowledge point text",
 "summary": "one sentence summary",
 "category": "a short category label",
 "keywords": ["list", "of", "keywords"],
 "confidence": 0.0 to 1.0 indicating how factual the passage is}`

// DistillerService converts raw text chunks into embedded knowledge
// points through a two-stage distill-then-format pass.
type DistillerService struct {
	llm        LLMClient
	embed      EmbeddingClient
	pointsRepo KnowledgePointRepositoryInterface
	uuidGen    UUIDGenerator
}

func NewDistillerService(llm LLMClient, embed EmbeddingClient, pointsRepo KnowledgePointRepositoryInterface) *DistillerService {
	return &DistillerService{
		llm:        llm,
		embed:      embed,
		pointsRepo: pointsRepo,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

func NewDistillerServiceWithUUIDGen(llm LLMClient, embed EmbeddingClient, pointsRepo KnowledgePointRepositoryInterface, uuidGen UUIDGenerator) *DistillerService {
	return &DistillerService{
		llm:        llm,
		embed:      embed,
		pointsRepo: pointsRepo,
		uuidGen:    uuidGen,
	}
}

type FormattedPoint struct {
	Content    string   `json:"content"`
	Summary    string   `json:"summary"`
	Category   string   `json:"category"`
	Keywords   []string `json:"keywords"`
	Confidence float64  `json:"confidence"`
}

// DistillChunk rewrites one raw chunk into standalone prose. An empty
// result means the chunk carried no usable information.
func (s *DistillerService) DistillChunk(ctx context.Context, text string) (string, error) {
	res, err := s.llm.Generate(ctx, GenerateRequest{
		System: distillSystemPrompt,
		Prompt: text,
	})
	if err != nil {
		return "", domain.NewExternalServiceError("distillation call failed", err)
	}
	return strings.TrimSpace(res.Text), nil
}

// FormatKnowledgePoint structures a distilled passage. A nil result
// with nil error means the model output could not be parsed and the
// chunk should be skipped.
func (s *DistillerService) FormatKnowledgePoint(ctx context.Context, distilled string) (*FormattedPoint, error) {
	res, err := s.llm.Generate(ctx, GenerateRequest{
		System: formatSystemPrompt,
		Prompt: distilled,
	})
	if err != nil {
		return nil, domain.NewExternalServiceError("formatting call failed", err)
	}

	var fp FormattedPoint
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Text)), &fp); err != nil {
		log.Printf("Skipping chunk with unparseable formatting output: %v", err)
		return nil, nil
	}
	if strings.TrimSpace(fp.Content) == "" {
		return nil, nil
	}
	return &fp, nil
}

// DistillBatch processes all chunks of one source and persists the
// resulting knowledge points. Chunks whose formatting output cannot be
// used are skipped; if no chunk yields a point the whole batch fails.
// Each call mints fresh point IDs, so a retried batch writes new rows
// rather than overwriting a previous attempt.
func (s *DistillerService) DistillBatch(ctx context.Context, agentID string, sourceType domain.KnowledgeSourceType, chunks []domain.Chunk) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "DistillerService.DistillBatch", telemetry.SpanAttributes{
		AgentID:   agentID,
		Operation: "distill",
	})
	defer span.End()

	written := 0
	for _, chunk := range chunks {
		distilled, err := s.DistillChunk(ctx, chunk.Text)
		if err != nil {
			return written, err
		}
		if distilled == "" {
			log.Printf("Skipping empty distillation for chunk %s", chunk.ID)
			continue
		}

		fp, err := s.FormatKnowledgePoint(ctx, distilled)
		if err != nil {
			return written, err
		}
		if fp == nil {
			continue
		}

		summary := strings.TrimSpace(fp.Summary)
		if summary == "" {
			summary = domain.SummaryPreview(fp.Content)
		}

		kp := &domain.KnowledgePoint{
			ID:         s.uuidGen.NewString(),
			AgentID:    agentID,
			SourceType: sourceType,
			Content:    fp.Content,
			Summary:    summary,
			Category:   fp.Category,
			Keywords:   fp.Keywords,
			Confidence: fp.Confidence,
			CreatedAt:  time.Now().UTC(),
		}
		if err := domain.ValidateKnowledgePoint(kp); err != nil {
			log.Printf("Skipping invalid knowledge point for chunk %s: %v", chunk.ID, err)
			continue
		}

		embedding, err := s.embed.GenerateEmbedding(ctx, kp.Content)
		if err != nil {
			return written, domain.NewExternalServiceError("embedding call failed", err)
		}
		if err := s.pointsRepo.Upsert(ctx, kp, embedding); err != nil {
			return written, domain.NewPersistenceError("failed to store knowledge point", err)
		}
		written++
	}

	if written == 0 {
		return 0, domain.ErrNoKnowledgePoints
	}
	return written, nil
}
