package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/telemetry"
)

type AgentRepositoryInterface interface {
	Create(ctx context.Context, a *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	Update(ctx context.Context, a *domain.Agent) error
}

type ContentRequestRepositoryInterface interface {
	Create(ctx context.Context, req *domain.ContentRequest) error
	GetByID(ctx context.Context, id string) (*domain.ContentRequest, error)
	UpdateStatus(ctx context.Context, id string, status domain.RequestStatus, errMsg string) error
}

type PipelineJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.PipelineJob) error
	GetByID(ctx context.Context, id string) (*domain.PipelineJob, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.PipelineJob, error)
}

// WebSearchResult is one ranked hit from the external search API.
type WebSearchResult struct {
	Title   string
	URL     string
	Content string
}

// WebSearcher performs an external web search for a query.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]WebSearchResult, error)
}

// RetrievalEngine builds the brand-aware brief for a request.
type RetrievalEngine interface {
	Retrieve(ctx context.Context, input RetrieveInput) (*RetrievalResult, error)
}

// VersionSaver persists the draft and its version snapshot.
type VersionSaver interface {
	SaveVersion(ctx context.Context, input SaveVersionInput) (*domain.ContentVersion, error)
}

// GenerationJobPayload is the payload carried by content_generation
// jobs.
type GenerationJobPayload struct {
	AgentID     string `json:"agentId"`
	ContentID   string `json:"contentId"`
	RequestID   string `json:"requestId"`
	Description string `json:"description"`
}

const defaultWriterSystemPrompt = `You write publishable marketing content for a brand.
Work only from the brief and research provided. Reply with the finished piece
only, no preamble.`

const analysisSystemPrompt = `You analyze a finished piece of content and describe it as metadata.
Reply with a JSON object and nothing else, using exactly these fields:
{"meta": {"title": "", "description": "", "slug": "", "tags": [], "topics": [], "keywords": [], "sources": []},
 "stats": {"quality_score": 0.0 to 1.0}}`

// readingWordsPerMinute is the assumed reading speed for the
// reading-time stat.
const readingWordsPerMinute = 200

// GenerationService runs the content generation state machine:
// pending, planning, researching, writing, editing, analyzing, then
// draft or failed. A failed run is retried from the beginning by the
// job worker, never resumed mid-way.
type GenerationService struct {
	agentRepo      AgentRepositoryInterface
	requestRepo    ContentRequestRepositoryInterface
	retrieval      RetrievalEngine
	searcher       WebSearcher
	llm            LLMClient
	versions       VersionSaver
	txRunner       TxRunner
	uuidGen        UUIDGenerator
	jobMaxAttempts int
}

func NewGenerationService(
	agentRepo AgentRepositoryInterface,
	requestRepo ContentRequestRepositoryInterface,
	retrieval RetrievalEngine,
	searcher WebSearcher,
	llm LLMClient,
	versions VersionSaver,
	txRunner TxRunner,
	jobMaxAttempts int,
) *GenerationService {
	return &GenerationService{
		agentRepo:      agentRepo,
		requestRepo:    requestRepo,
		retrieval:      retrieval,
		searcher:       searcher,
		llm:            llm,
		versions:       versions,
		txRunner:       txRunner,
		uuidGen:        &DefaultUUIDGenerator{},
		jobMaxAttempts: jobMaxAttempts,
	}
}

// WithUUIDGen replaces the id generator, for tests.
func (s *GenerationService) WithUUIDGen(uuidGen UUIDGenerator) *GenerationService {
	s.uuidGen = uuidGen
	return s
}

type EnqueueGenerationInput struct {
	AgentID     string
	Description string
}

type EnqueueGenerationResult struct {
	RequestID string
	ContentID string
	JobID     string
}

// EnqueueGeneration records an approved content request and schedules
// the pipeline job that will fulfil it. The content row and the job
// are created in one transaction so a job never references a missing
// row.
func (s *GenerationService) EnqueueGeneration(ctx context.Context, input EnqueueGenerationInput) (*EnqueueGenerationResult, error) {
	if _, err := s.agentRepo.GetByID(ctx, input.AgentID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	request := &domain.ContentRequest{
		ID:          s.uuidGen.NewString(),
		AgentID:     input.AgentID,
		Description: input.Description,
		Status:      domain.RequestStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, domain.NewPersistenceError("failed to create content request", err)
	}

	contentID := s.uuidGen.NewString()
	jobID := s.uuidGen.NewString()

	payload, err := json.Marshal(GenerationJobPayload{
		AgentID:     input.AgentID,
		ContentID:   contentID,
		RequestID:   request.ID,
		Description: input.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		content := &domain.Content{
			ID:        contentID,
			AgentID:   input.AgentID,
			RequestID: request.ID,
			Status:    domain.ContentStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repos.Contents().Create(ctx, content); err != nil {
			return err
		}
		job := domain.NewPipelineJob(jobID, domain.QueueContentGeneration, payload, s.jobMaxAttempts, now)
		return repos.Jobs().Create(ctx, job)
	})
	if err != nil {
		return nil, domain.NewPersistenceError("failed to enqueue generation job", err)
	}

	return &EnqueueGenerationResult{
		RequestID: request.ID,
		ContentID: contentID,
		JobID:     jobID,
	}, nil
}

// Run executes one full pipeline attempt. Any stage error leaves the
// request in failed with the error message attached; the job worker
// decides whether another attempt restarts the run from pending.
func (s *GenerationService) Run(ctx context.Context, payload GenerationJobPayload) error {
	ctx, span := telemetry.StartSpan(ctx, "GenerationService.Run", telemetry.SpanAttributes{
		AgentID:   payload.AgentID,
		ContentID: payload.ContentID,
		Operation: "generate",
	})
	defer span.End()

	if err := s.run(ctx, payload); err != nil {
		span.SetError(err)
		s.markFailed(ctx, payload.RequestID, err)
		return err
	}
	return nil
}

func (s *GenerationService) run(ctx context.Context, payload GenerationJobPayload) error {
	if err := s.setStatus(ctx, payload.RequestID, domain.RequestStatusPending); err != nil {
		return err
	}

	agent, err := s.agentRepo.GetByID(ctx, payload.AgentID)
	if err != nil {
		return err
	}
	if err := s.setStatus(ctx, payload.RequestID, domain.RequestStatusPlanning); err != nil {
		return err
	}

	brief, err := s.retrieval.Retrieve(ctx, RetrieveInput{
		AgentID:     payload.AgentID,
		Purpose:     agent.Purpose,
		Description: payload.Description,
	})
	if err != nil {
		return err
	}
	if err := s.setStatus(ctx, payload.RequestID, domain.RequestStatusResearching); err != nil {
		return err
	}

	findings, err := s.research(ctx, payload.Description)
	if err != nil {
		return err
	}
	if err := s.setStatus(ctx, payload.RequestID, domain.RequestStatusWriting); err != nil {
		return err
	}

	body, err := s.write(ctx, agent, brief.Brief, findings)
	if err != nil {
		return err
	}
	if err := s.setStatus(ctx, payload.RequestID, domain.RequestStatusEditing); err != nil {
		return err
	}
	if err := s.setStatus(ctx, payload.RequestID, domain.RequestStatusAnalyzing); err != nil {
		return err
	}

	meta, stats, err := s.analyze(ctx, body)
	if err != nil {
		return err
	}

	if _, err := s.versions.SaveVersion(ctx, SaveVersionInput{
		ContentID: payload.ContentID,
		Body:      body,
		Meta:      meta,
		Stats:     stats,
	}); err != nil {
		return err
	}

	return s.setStatus(ctx, payload.RequestID, domain.RequestStatusDraft)
}

func (s *GenerationService) research(ctx context.Context, query string) ([]WebSearchResult, error) {
	results, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, domain.NewExternalServiceError("web search failed", err)
	}
	if len(results) == 0 {
		return nil, domain.ErrEmptySearchResults
	}
	return results, nil
}

func (s *GenerationService) write(ctx context.Context, agent *domain.Agent, brief string, findings []WebSearchResult) (string, error) {
	system := strings.TrimSpace(agent.SystemPrompt)
	if system == "" {
		system = defaultWriterSystemPrompt
	}

	res, err := s.llm.Generate(ctx, GenerateRequest{
		System: system,
		Prompt: buildWriterPrompt(brief, findings),
	})
	if err != nil {
		return "", domain.NewExternalServiceError("draft generation failed", err)
	}

	body := strings.TrimSpace(res.Text)
	if body == "" {
		return "", domain.ErrEmptyGeneration
	}
	return body, nil
}

type analysisOutput struct {
	Meta  domain.ContentMeta `json:"meta"`
	Stats struct {
		QualityScore float64 `json:"quality_score"`
	} `json:"stats"`
}

// analyze asks the model to describe the body as structured metadata.
// Output that is not the requested JSON shape is a malformed-output
// failure; no fallback schema is guessed.
func (s *GenerationService) analyze(ctx context.Context, body string) (domain.ContentMeta, domain.ContentStats, error) {
	res, err := s.llm.Generate(ctx, GenerateRequest{
		System: analysisSystemPrompt,
		Prompt: body,
	})
	if err != nil {
		return domain.ContentMeta{}, domain.ContentStats{}, domain.NewExternalServiceError("metadata analysis failed", err)
	}

	var out analysisOutput
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Text)), &out); err != nil {
		return domain.ContentMeta{}, domain.ContentStats{}, domain.ErrMalformedMetadata
	}

	words := len(strings.Fields(body))
	stats := domain.ContentStats{
		QualityScore: out.Stats.QualityScore,
		WordCount:    words,
		ReadingTime:  (words + readingWordsPerMinute - 1) / readingWordsPerMinute,
	}
	return out.Meta, stats, nil
}

func (s *GenerationService) setStatus(ctx context.Context, requestID string, status domain.RequestStatus) error {
	if err := s.requestRepo.UpdateStatus(ctx, requestID, status, ""); err != nil {
		return domain.NewPersistenceError("failed to update request status", err)
	}
	return nil
}

// markFailed records the terminal failure and its message on the
// request for operator review. Best effort.
func (s *GenerationService) markFailed(ctx context.Context, requestID string, cause error) {
	if err := s.requestRepo.UpdateStatus(ctx, requestID, domain.RequestStatusFailed, cause.Error()); err != nil {
		log.Printf("Failed to mark request %s as failed: %v", requestID, err)
	}
}

func buildWriterPrompt(brief string, findings []WebSearchResult) string {
	var b strings.Builder
	b.WriteString("Brief:\n")
	b.WriteString(brief)
	b.WriteString("\n\nResearch:\n")
	for i, f := range findings {
		fmt.Fprintf(&b, "%d. %s (%s)\n%s\n\n", i+1, f.Title, f.URL, f.Content)
	}
	return b.String()
}
