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

// CrawledPage is one fetched page of an agent's website.
type CrawledPage struct {
	URL   string
	Title string
	Text  string
}

// WebCrawler fetches the readable pages of a website.
type WebCrawler interface {
	Crawl(ctx context.Context, seedURL string) ([]CrawledPage, error)
}

// DocumentArchive stores a copy of the built brand document in object
// storage for operator inspection.
type DocumentArchive interface {
	Store(ctx context.Context, key string, body []byte) error
}

type BrandDocumentRepositoryInterface interface {
	Upsert(ctx context.Context, doc *domain.BrandDocument) error
	GetByAgent(ctx context.Context, agentID string) (*domain.BrandDocument, error)
}

// ChunkDistiller turns chunks into stored knowledge points.
type ChunkDistiller interface {
	DistillBatch(ctx context.Context, agentID string, sourceType domain.KnowledgeSourceType, chunks []domain.Chunk) (int, error)
}

// BrandKnowledgeJobPayload is carried by brand_knowledge parent jobs.
type BrandKnowledgeJobPayload struct {
	AgentID    string `json:"agentId"`
	UserID     string `json:"userId"`
	WebsiteURL string `json:"websiteUrl"`
}

// CrawlJobPayload is carried by crawl child jobs.
type CrawlJobPayload struct {
	AgentID    string `json:"agentId"`
	WebsiteURL string `json:"websiteUrl"`
}

// ChunkDistillJobPayload is carried by chunk_distill child jobs.
type ChunkDistillJobPayload struct {
	AgentID string `json:"agentId"`
}

// BrandKnowledgeService runs the brand knowledge acquisition
// sub-pipeline: crawl the website, build one brand document, then
// chunk and distill it into the agent's knowledge points.
type BrandKnowledgeService struct {
	crawler        WebCrawler
	archive        DocumentArchive
	docRepo        BrandDocumentRepositoryInterface
	segmenter      *Segmenter
	distiller      ChunkDistiller
	pointsRepo     KnowledgePointRepositoryInterface
	jobRepo        PipelineJobRepositoryInterface
	uuidGen        UUIDGenerator
	jobMaxAttempts int
}

func NewBrandKnowledgeService(
	crawler WebCrawler,
	archive DocumentArchive,
	docRepo BrandDocumentRepositoryInterface,
	segmenter *Segmenter,
	distiller ChunkDistiller,
	pointsRepo KnowledgePointRepositoryInterface,
	jobRepo PipelineJobRepositoryInterface,
	jobMaxAttempts int,
) *BrandKnowledgeService {
	return &BrandKnowledgeService{
		crawler:        crawler,
		archive:        archive,
		docRepo:        docRepo,
		segmenter:      segmenter,
		distiller:      distiller,
		pointsRepo:     pointsRepo,
		jobRepo:        jobRepo,
		uuidGen:        &DefaultUUIDGenerator{},
		jobMaxAttempts: jobMaxAttempts,
	}
}

// WithUUIDGen replaces the id generator, for tests.
func (s *BrandKnowledgeService) WithUUIDGen(uuidGen UUIDGenerator) *BrandKnowledgeService {
	s.uuidGen = uuidGen
	return s
}

// EnqueueAutoBrandKnowledge schedules the parent job of the
// crawl-then-distill sub-pipeline and returns its id.
func (s *BrandKnowledgeService) EnqueueAutoBrandKnowledge(ctx context.Context, input BrandKnowledgeJobPayload) (string, error) {
	if strings.TrimSpace(input.WebsiteURL) == "" {
		return "", domain.ErrMissingRequiredField
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := domain.NewPipelineJob(s.uuidGen.NewString(), domain.QueueBrandKnowledge, payload, s.jobMaxAttempts, time.Now().UTC())
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return "", domain.NewPersistenceError("failed to enqueue brand knowledge job", err)
	}
	return job.ID, nil
}

// BuildBrandDocument crawls the website and stores the concatenated
// page text as the agent's brand document. Each crawl gets a fresh
// source id so chunks of different crawls never collide.
func (s *BrandKnowledgeService) BuildBrandDocument(ctx context.Context, agentID, websiteURL string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "BrandKnowledgeService.BuildBrandDocument", telemetry.SpanAttributes{
		AgentID:   agentID,
		Operation: "crawl",
	})
	defer span.End()

	pages, err := s.crawler.Crawl(ctx, websiteURL)
	if err != nil {
		return "", domain.NewExternalServiceError("website crawl failed", err)
	}

	sourceID := s.uuidGen.NewString()
	doc := &domain.BrandDocument{
		AgentID:   agentID,
		SourceID:  sourceID,
		Text:      renderBrandDocument(pages),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.docRepo.Upsert(ctx, doc); err != nil {
		return "", domain.NewPersistenceError("failed to store brand document", err)
	}

	if s.archive != nil {
		key := fmt.Sprintf("agents/%s/brand-document.txt", agentID)
		if err := s.archive.Store(ctx, key, []byte(doc.Text)); err != nil {
			log.Printf("Failed to archive brand document for agent %s: %v", agentID, err)
		}
	}
	return sourceID, nil
}

// ChunkAndDistill segments the agent's stored brand document and
// distills the chunks into knowledge points.
func (s *BrandKnowledgeService) ChunkAndDistill(ctx context.Context, agentID string) (int, error) {
	doc, err := s.docRepo.GetByAgent(ctx, agentID)
	if err != nil {
		return 0, err
	}

	chunks, err := s.segmenter.Segment(doc.SourceID, doc.Text)
	if err != nil {
		return 0, err
	}
	return s.distiller.DistillBatch(ctx, agentID, domain.KnowledgeSourceWebsite, chunks)
}

// DistillDocument ingests uploaded document text directly, without a
// crawl.
func (s *BrandKnowledgeService) DistillDocument(ctx context.Context, agentID, text string) (int, error) {
	chunks, err := s.segmenter.Segment(s.uuidGen.NewString(), text)
	if err != nil {
		return 0, err
	}
	return s.distiller.DistillBatch(ctx, agentID, domain.KnowledgeSourceDocument, chunks)
}

// ResetKnowledge deletes every knowledge point of an agent. This is
// the only deletion path for knowledge points.
func (s *BrandKnowledgeService) ResetKnowledge(ctx context.Context, agentID string) (int64, error) {
	deleted, err := s.pointsRepo.DeleteByAgent(ctx, agentID)
	if err != nil {
		return 0, domain.NewPersistenceError("failed to reset agent knowledge", err)
	}
	return deleted, nil
}

func renderBrandDocument(pages []CrawledPage) string {
	var b strings.Builder
	for _, p := range pages {
		if title := strings.TrimSpace(p.Title); title != "" {
			b.WriteString(title)
			b.WriteString("\n")
		}
		b.WriteString(p.URL)
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(p.Text))
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}
