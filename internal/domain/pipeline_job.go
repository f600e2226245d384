package domain

import "time"

// PipelineJobStatus represents the status of a pipeline job
type PipelineJobStatus string

const (
	PipelineJobStatusPending    PipelineJobStatus = "pending"
	PipelineJobStatusProcessing PipelineJobStatus = "processing"
	PipelineJobStatusCompleted  PipelineJobStatus = "completed"
	PipelineJobStatusFailed     PipelineJobStatus = "failed"
)

// Queue names for the durable job queues.
const (
	QueueContentGeneration = "content_generation"
	QueueBrandKnowledge    = "brand_knowledge"
	QueueCrawl             = "crawl"
	QueueChunkDistill      = "chunk_distill"
)

// PipelineJob is one durable unit of orchestrated work. Delivery is
// at-least-once: a worker crash before acknowledging causes
// redelivery, so handlers must tolerate re-running from the start.
type PipelineJob struct {
	ID          string
	Queue       string
	ParentID    string
	Payload     []byte
	Attempts    int
	MaxAttempts int
	Status      PipelineJobStatus
	LastError   string
	AvailableAt time.Time
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewPipelineJob creates a pending job on the named queue.
func NewPipelineJob(id, queue string, payload []byte, maxAttempts int, now time.Time) *PipelineJob {
	return &PipelineJob{
		ID:          id,
		Queue:       queue,
		Payload:     payload,
		MaxAttempts: maxAttempts,
		Status:      PipelineJobStatusPending,
		AvailableAt: now,
		CreatedAt:   now,
	}
}

// ValidatePipelineJob validates a PipelineJob instance
func ValidatePipelineJob(j *PipelineJob) error {
	if j == nil {
		return ErrMissingRequiredField
	}
	if j.ID == "" || j.Queue == "" {
		return ErrMissingRequiredField
	}
	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}
	return nil
}

func isValidJobStatus(s PipelineJobStatus) bool {
	switch s {
	case PipelineJobStatusPending, PipelineJobStatusProcessing,
		PipelineJobStatusCompleted, PipelineJobStatusFailed:
		return true
	default:
		return false
	}
}
