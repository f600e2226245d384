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

type ContentRequestRepository struct {
	db dbtx
}

func NewContentRequestRepository(pool *pgxpool.Pool) *ContentRequestRepository {
	return &ContentRequestRepository{db: pool}
}

func NewContentRequestRepositoryWithTx(tx pgx.Tx) *ContentRequestRepository {
	return &ContentRequestRepository{db: tx}
}

func (r *ContentRequestRepository) Create(ctx context.Context, req *domain.ContentRequest) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO content_requests (id, agent_id, description, status, error, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID, req.AgentID, req.Description, req.Status, nullableString(req.Error), req.CreatedAt, req.UpdatedAt,
	)
	return err
}

func (r *ContentRequestRepository) GetByID(ctx context.Context, id string) (*domain.ContentRequest, error) {
	var req domain.ContentRequest
	var errMsg pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT id, agent_id, description, status, error, created_at, updated_at
		 FROM content_requests WHERE id = $1`,
		id,
	).Scan(&req.ID, &req.AgentID, &req.Description, &req.Status, &errMsg, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContentRequestNotFound
		}
		return nil, err
	}
	if errMsg.Valid {
		req.Error = errMsg.String
	}
	return &req, nil
}

// UpdateStatus records the pipeline's progress through the state
// machine. The error message is kept for operator review on failure
// and cleared otherwise.
func (r *ContentRequestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus, errMsg string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE content_requests SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrContentRequestNotFound
	}
	return nil
}
