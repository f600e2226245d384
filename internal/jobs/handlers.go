package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/service"
)

// GenerationRunner runs one content generation pipeline attempt.
type GenerationRunner interface {
	Run(ctx context.Context, payload service.GenerationJobPayload) error
}

// NewGenerationHandler dispatches content_generation jobs to the
// pipeline.
func NewGenerationHandler(generator GenerationRunner) Handler {
	return HandlerFunc(func(ctx context.Context, job *domain.PipelineJob) error {
		var payload service.GenerationJobPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return domain.ErrMissingRequiredField
		}
		return generator.Run(ctx, payload)
	})
}

// BrandKnowledgeStages runs the stages of the brand knowledge
// sub-pipeline.
type BrandKnowledgeStages interface {
	BuildBrandDocument(ctx context.Context, agentID, websiteURL string) (string, error)
	ChunkAndDistill(ctx context.Context, agentID string) (int, error)
}

// NewCrawlHandler dispatches crawl child jobs.
func NewCrawlHandler(brand BrandKnowledgeStages) Handler {
	return HandlerFunc(func(ctx context.Context, job *domain.PipelineJob) error {
		var payload service.CrawlJobPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return domain.ErrMissingRequiredField
		}
		_, err := brand.BuildBrandDocument(ctx, payload.AgentID, payload.WebsiteURL)
		return err
	})
}

// NewChunkDistillHandler dispatches chunk_distill child jobs.
func NewChunkDistillHandler(brand BrandKnowledgeStages) Handler {
	return HandlerFunc(func(ctx context.Context, job *domain.PipelineJob) error {
		var payload service.ChunkDistillJobPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return domain.ErrMissingRequiredField
		}
		_, err := brand.ChunkAndDistill(ctx, payload.AgentID)
		return err
	})
}

// ChildRunner claims and processes at most one queued job inline,
// reporting whether one was claimed.
type ChildRunner interface {
	ProcessOne(ctx context.Context, queues []string) (bool, error)
}

// BrandKnowledgeHandler runs brand_knowledge parent jobs: it enqueues
// the crawl child, waits for it, then the chunk_distill child. A
// non-ok child fails the parent fast; later children never run. The
// parent drives its own children through the child runner, so it
// completes even when every pool worker is occupied by a parent.
type BrandKnowledgeHandler struct {
	repo         JobRepository
	children     ChildRunner
	uuidGen      service.UUIDGenerator
	maxAttempts  int
	pollInterval time.Duration
	waitTimeout  time.Duration
}

func NewBrandKnowledgeHandler(repo JobRepository, children ChildRunner, maxAttempts int) *BrandKnowledgeHandler {
	return &BrandKnowledgeHandler{
		repo:         repo,
		children:     children,
		uuidGen:      &service.DefaultUUIDGenerator{},
		maxAttempts:  maxAttempts,
		pollInterval: 2 * time.Second,
		waitTimeout:  30 * time.Minute,
	}
}

// WithWaitPolicy tightens the child polling, for tests.
func (h *BrandKnowledgeHandler) WithWaitPolicy(pollInterval, waitTimeout time.Duration) *BrandKnowledgeHandler {
	h.pollInterval = pollInterval
	h.waitTimeout = waitTimeout
	return h
}

// WithUUIDGen replaces the id generator, for tests.
func (h *BrandKnowledgeHandler) WithUUIDGen(uuidGen service.UUIDGenerator) *BrandKnowledgeHandler {
	h.uuidGen = uuidGen
	return h
}

func (h *BrandKnowledgeHandler) Handle(ctx context.Context, job *domain.PipelineJob) error {
	var payload service.BrandKnowledgeJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return domain.ErrMissingRequiredField
	}

	crawlPayload, err := json.Marshal(service.CrawlJobPayload{
		AgentID:    payload.AgentID,
		WebsiteURL: payload.WebsiteURL,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal crawl payload: %w", err)
	}
	if err := h.runChild(ctx, job.ID, domain.QueueCrawl, crawlPayload); err != nil {
		return err
	}

	distillPayload, err := json.Marshal(service.ChunkDistillJobPayload{AgentID: payload.AgentID})
	if err != nil {
		return fmt.Errorf("failed to marshal chunk_distill payload: %w", err)
	}
	return h.runChild(ctx, job.ID, domain.QueueChunkDistill, distillPayload)
}

// runChild enqueues one child job and blocks until it reaches a
// terminal status, processing the child queue inline between polls.
func (h *BrandKnowledgeHandler) runChild(ctx context.Context, parentID, queue string, payload []byte) error {
	child := domain.NewPipelineJob(h.uuidGen.NewString(), queue, payload, h.maxAttempts, time.Now().UTC())
	child.ParentID = parentID
	if err := h.repo.Create(ctx, child); err != nil {
		return domain.NewPersistenceError("failed to enqueue child job", err)
	}

	deadline := time.Now().Add(h.waitTimeout)
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		if h.children != nil {
			if _, err := h.children.ProcessOne(ctx, []string{queue}); err != nil {
				return domain.NewPersistenceError("failed to process child job", err)
			}
		}

		current, err := h.repo.GetByID(ctx, child.ID)
		if err != nil {
			return domain.NewPersistenceError("failed to check child job", err)
		}

		switch current.Status {
		case domain.PipelineJobStatusCompleted:
			return nil
		case domain.PipelineJobStatusFailed:
			return fmt.Errorf("child job %s on queue %s failed: %s", child.ID, queue, current.LastError)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("child job %s on queue %s did not finish within %v", child.ID, queue, h.waitTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
