package jobs

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/brandforge-ai/brandforge/internal/domain"
)

const (
	// retryBaseDelay is the delay before the second attempt of a job.
	retryBaseDelay = 5 * time.Second

	// retryMaxDelay caps the backoff between attempts.
	retryMaxDelay = 5 * time.Minute

	// pruneEvery controls how often a worker prunes completed jobs,
	// counted in successfully processed jobs.
	pruneEvery = 50
)

// JobRepository defines the interface for durable pipeline job
// persistence.
type JobRepository interface {
	Create(ctx context.Context, job *domain.PipelineJob) error
	GetByID(ctx context.Context, id string) (*domain.PipelineJob, error)
	ClaimPending(ctx context.Context, queues []string, limit int) ([]*domain.PipelineJob, error)
	Complete(ctx context.Context, id string) error
	Fail(ctx context.Context, id, errMsg string) error
	Release(ctx context.Context, id, errMsg string, availableAt time.Time) error
	PruneCompleted(ctx context.Context, keep int) (int64, error)
}

// Handler processes one claimed job.
type Handler interface {
	Handle(ctx context.Context, job *domain.PipelineJob) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, job *domain.PipelineJob) error

func (f HandlerFunc) Handle(ctx context.Context, job *domain.PipelineJob) error {
	return f(ctx, job)
}

// PipelineWorker claims jobs from the registered queues and dispatches
// them to their handlers. Failed jobs are requeued with backoff until
// their attempts are exhausted or the error is final.
type PipelineWorker struct {
	repo          JobRepository
	handlers      map[string]Handler
	queues        []string
	completedKept int
	processed     atomic.Int64
}

// NewPipelineWorker creates a PipelineWorker. completedKept bounds how
// many completed jobs are retained for inspection.
func NewPipelineWorker(repo JobRepository, completedKept int) *PipelineWorker {
	return &PipelineWorker{
		repo:          repo,
		handlers:      make(map[string]Handler),
		completedKept: completedKept,
	}
}

// Register binds a handler to a queue name. Not safe to call after the
// worker started.
func (w *PipelineWorker) Register(queue string, handler Handler) {
	if _, ok := w.handlers[queue]; !ok {
		w.queues = append(w.queues, queue)
	}
	w.handlers[queue] = handler
}

// ProcessJobs implements the JobProcessor interface. One claimed job
// per call; each pool worker runs its own loop.
func (w *PipelineWorker) ProcessJobs(ctx context.Context) error {
	_, err := w.ProcessOne(ctx, w.queues)
	return err
}

// ProcessOne claims and processes at most one job from the given
// queues. It reports whether a job was claimed. Parent handlers use it
// to drive their own children, so a pool whose workers are all busy
// with parents still makes progress.
func (w *PipelineWorker) ProcessOne(ctx context.Context, queues []string) (bool, error) {
	jobs, err := w.repo.ClaimPending(ctx, queues, 1)
	if err != nil {
		return false, fmt.Errorf("failed to claim pending jobs: %w", err)
	}
	if len(jobs) == 0 {
		return false, nil
	}
	w.processJob(ctx, jobs[0])
	return true, nil
}

func (w *PipelineWorker) processJob(ctx context.Context, job *domain.PipelineJob) {
	handler, ok := w.handlers[job.Queue]
	if !ok {
		log.Printf("Job %s on unknown queue %q, marking failed", job.ID, job.Queue)
		if err := w.repo.Fail(ctx, job.ID, "no handler registered for queue"); err != nil {
			log.Printf("Failed to mark job %s failed: %v", job.ID, err)
		}
		return
	}

	log.Printf("Processing job %s on queue %s (attempt %d/%d)", job.ID, job.Queue, job.Attempts, job.MaxAttempts)

	if err := handler.Handle(ctx, job); err != nil {
		w.handleJobFailure(ctx, job, err)
		return
	}

	if err := w.repo.Complete(ctx, job.ID); err != nil {
		log.Printf("Failed to mark job %s completed: %v", job.ID, err)
		return
	}
	log.Printf("Job %s completed successfully", job.ID)

	if w.processed.Add(1)%pruneEvery == 0 {
		if pruned, err := w.repo.PruneCompleted(ctx, w.completedKept); err != nil {
			log.Printf("Failed to prune completed jobs: %v", err)
		} else if pruned > 0 {
			log.Printf("Pruned %d completed jobs", pruned)
		}
	}
}

// handleJobFailure requeues the job with backoff, or marks it failed
// when the error is final or the attempts are exhausted. Failed jobs
// stay visible to operators and are never auto-requeued.
func (w *PipelineWorker) handleJobFailure(ctx context.Context, job *domain.PipelineJob, jobErr error) {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if !domain.Retryable(jobErr) {
		if err := w.repo.Fail(ctx, job.ID, jobErr.Error()); err != nil {
			log.Printf("Failed to mark job %s failed: %v", job.ID, err)
		}
		return
	}

	if job.Attempts >= job.MaxAttempts {
		log.Printf("Job %s exhausted %d attempts, marking as failed", job.ID, job.MaxAttempts)
		errMsg := fmt.Sprintf("max attempts exceeded: %v", jobErr)
		if err := w.repo.Fail(ctx, job.ID, errMsg); err != nil {
			log.Printf("Failed to mark job %s failed: %v", job.ID, err)
		}
		return
	}

	delay := retryDelay(job.Attempts)
	log.Printf("Job %s will be retried in %v (attempt %d/%d)", job.ID, delay, job.Attempts, job.MaxAttempts)
	errMsg := fmt.Sprintf("attempt %d: %v", job.Attempts, jobErr)
	if err := w.repo.Release(ctx, job.ID, errMsg, time.Now().UTC().Add(delay)); err != nil {
		log.Printf("Failed to release job %s for retry: %v", job.ID, err)
	}
}

// retryDelay returns the backoff delay after the given attempt number.
// The constructor seeds the current interval from the defaults, so the
// configured fields only take effect after Reset.
func retryDelay(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryBaseDelay
	b.RandomizationFactor = 0
	b.MaxInterval = retryMaxDelay
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := 1; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	return delay
}
