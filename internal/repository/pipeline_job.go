package repository

import (
	"context"
	"errors"
	"time"

	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultClaimLease is how long a claimed job stays invisible to other
// workers. It must exceed the longest-running handler, including the
// brand_knowledge parent's child wait, or a live job gets double-run.
const defaultClaimLease = time.Hour

// PipelineJobRepository is the durable job queue. Claiming uses
// FOR UPDATE SKIP LOCKED so parallel workers never double-claim a job
// within one attempt.
type PipelineJobRepository struct {
	db    dbtx
	lease time.Duration
}

func NewPipelineJobRepository(pool *pgxpool.Pool) *PipelineJobRepository {
	return &PipelineJobRepository{db: pool, lease: defaultClaimLease}
}

func NewPipelineJobRepositoryWithTx(tx pgx.Tx) *PipelineJobRepository {
	return &PipelineJobRepository{db: tx, lease: defaultClaimLease}
}

// WithClaimLease overrides the claim lease, for tests.
func (r *PipelineJobRepository) WithClaimLease(lease time.Duration) *PipelineJobRepository {
	r.lease = lease
	return r
}

func (r *PipelineJobRepository) Create(ctx context.Context, job *domain.PipelineJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO pipeline_jobs (id, queue, parent_id, payload, attempts, max_attempts, status, last_error, available_at, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		job.ID, job.Queue, nullableString(job.ParentID), job.Payload, job.Attempts, job.MaxAttempts,
		job.Status, nullableString(job.LastError), job.AvailableAt, job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *PipelineJobRepository) GetByID(ctx context.Context, id string) (*domain.PipelineJob, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, queue, parent_id, payload, attempts, max_attempts, status, last_error, available_at, created_at, processed_at
		 FROM pipeline_jobs WHERE id = $1`,
		id,
	)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ClaimPending atomically claims up to limit due jobs from the named
// queues and marks them processing. A claim sets available_at to the
// lease deadline, so a processing job whose worker died becomes
// claimable again once the lease expires. Attempts is incremented at
// claim time so a worker crash mid-run still consumes an attempt.
func (r *PipelineJobRepository) ClaimPending(ctx context.Context, queues []string, limit int) ([]*domain.PipelineJob, error) {
	if limit <= 0 {
		limit = 1
	}
	now := time.Now().UTC()

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM pipeline_jobs
			 WHERE status = ANY($1) AND queue = ANY($2) AND available_at <= $3
			 ORDER BY available_at ASC, created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $4
		 )
		 UPDATE pipeline_jobs
		 SET status = $5,
		     attempts = attempts + 1,
		     available_at = $6
		 FROM cte
		 WHERE pipeline_jobs.id = cte.id
		 RETURNING pipeline_jobs.id, pipeline_jobs.queue, pipeline_jobs.parent_id, pipeline_jobs.payload,
		           pipeline_jobs.attempts, pipeline_jobs.max_attempts, pipeline_jobs.status,
		           pipeline_jobs.last_error, pipeline_jobs.available_at, pipeline_jobs.created_at,
		           pipeline_jobs.processed_at`,
		[]string{string(domain.PipelineJobStatusPending), string(domain.PipelineJobStatusProcessing)},
		queues, now, limit, domain.PipelineJobStatusProcessing, now.Add(r.lease),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.PipelineJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Complete marks a job done and stamps its processing time.
func (r *PipelineJobRepository) Complete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE pipeline_jobs SET status = $1, last_error = NULL, processed_at = $2 WHERE id = $3`,
		domain.PipelineJobStatusCompleted, now, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// Fail marks a job terminally failed and records the last error for
// operator review.
func (r *PipelineJobRepository) Fail(ctx context.Context, id, errMsg string) error {
	now := time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE pipeline_jobs SET status = $1, last_error = $2, processed_at = $3 WHERE id = $4`,
		domain.PipelineJobStatusFailed, nullableString(errMsg), now, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// Release puts a failed attempt back on the queue with a backoff
// delay before it becomes claimable again.
func (r *PipelineJobRepository) Release(ctx context.Context, id, errMsg string, availableAt time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE pipeline_jobs SET status = $1, last_error = $2, available_at = $3 WHERE id = $4`,
		domain.PipelineJobStatusPending, nullableString(errMsg), availableAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *PipelineJobRepository) ListChildren(ctx context.Context, parentID string) ([]*domain.PipelineJob, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, queue, parent_id, payload, attempts, max_attempts, status, last_error, available_at, created_at, processed_at
		 FROM pipeline_jobs WHERE parent_id = $1 ORDER BY created_at ASC`,
		parentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.PipelineJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// PruneCompleted keeps only the most recent keep completed jobs,
// bounding queue storage.
func (r *PipelineJobRepository) PruneCompleted(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM pipeline_jobs
		 WHERE status = $1 AND id NOT IN (
			 SELECT id FROM pipeline_jobs
			 WHERE status = $1
			 ORDER BY processed_at DESC NULLS LAST
			 LIMIT $2
		 )`,
		domain.PipelineJobStatusCompleted, keep,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

func scanJob(row pgx.Row) (*domain.PipelineJob, error) {
	var job domain.PipelineJob
	var parentID, lastError pgtype.Text
	err := row.Scan(&job.ID, &job.Queue, &parentID, &job.Payload, &job.Attempts, &job.MaxAttempts,
		&job.Status, &lastError, &job.AvailableAt, &job.CreatedAt, &job.ProcessedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		job.ParentID = parentID.String
	}
	if lastError.Valid {
		job.LastError = lastError.String
	}
	return &job, nil
}
