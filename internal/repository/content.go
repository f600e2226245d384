package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContentRepository struct {
	db dbtx
}

func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: pool}
}

func NewContentRepositoryWithTx(tx pgx.Tx) *ContentRepository {
	return &ContentRepository{db: tx}
}

func (r *ContentRepository) Create(ctx context.Context, c *domain.Content) error {
	meta, err := json.Marshal(c.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal content meta: %w", err)
	}
	stats, err := json.Marshal(c.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal content stats: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO contents (id, agent_id, request_id, body, meta, stats, status, current_version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.AgentID, c.RequestID, c.Body, meta, stats, c.Status, c.CurrentVersion, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *ContentRepository) GetByID(ctx context.Context, id string) (*domain.Content, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

func (r *ContentRepository) GetByRequestID(ctx context.Context, requestID string) (*domain.Content, error) {
	return r.getBy(ctx, `WHERE request_id = $1`, requestID)
}

func (r *ContentRepository) getBy(ctx context.Context, where string, arg any) (*domain.Content, error) {
	var c domain.Content
	var meta, stats []byte
	err := r.db.QueryRow(ctx,
		`SELECT id, agent_id, request_id, body, meta, stats, status, current_version, created_at, updated_at
		 FROM contents `+where,
		arg,
	).Scan(&c.ID, &c.AgentID, &c.RequestID, &c.Body, &meta, &stats, &c.Status, &c.CurrentVersion, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContentNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(meta, &c.Meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content meta: %w", err)
	}
	if err := json.Unmarshal(stats, &c.Stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content stats: %w", err)
	}
	return &c, nil
}

// UpdateDraft is the authoritative content write performed by the
// generation pipeline: body, meta, and stats land together with the
// draft status.
func (r *ContentRepository) UpdateDraft(ctx context.Context, id, body string, meta domain.ContentMeta, stats domain.ContentStats) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal content meta: %w", err)
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal content stats: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE contents SET body = $1, meta = $2, stats = $3, status = $4, updated_at = $5 WHERE id = $6`,
		body, metaJSON, statsJSON, domain.ContentStatusDraft, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrContentNotFound
	}
	return nil
}

// LockForVersioning takes the content row lock that serializes
// concurrent version allocation for one content id. Must run inside a
// transaction.
func (r *ContentRepository) LockForVersioning(ctx context.Context, id string) error {
	var locked string
	err := r.db.QueryRow(ctx, `SELECT id FROM contents WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrContentNotFound
		}
		return err
	}
	return nil
}

// NextVersionNumber returns previousMax + 1 for the content, starting
// at 1. Call under LockForVersioning.
func (r *ContentRepository) NextVersionNumber(ctx context.Context, contentID string) (int64, error) {
	var next int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM content_versions WHERE content_id = $1`,
		contentID,
	).Scan(&next)
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *ContentRepository) SetCurrentVersion(ctx context.Context, id string, version int64) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE contents SET current_version = $1, updated_at = $2 WHERE id = $3`,
		version, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrContentNotFound
	}
	return nil
}

func (r *ContentRepository) CreateVersion(ctx context.Context, v *domain.ContentVersion) error {
	meta, err := json.Marshal(v.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal version meta: %w", err)
	}
	changed, err := json.Marshal(v.ChangedFields)
	if err != nil {
		return fmt.Errorf("failed to marshal changed fields: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO content_versions (id, content_id, version, body, meta, diff, line_diff, changed_fields, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.ContentID, v.Version, v.Body, meta, v.Diff, v.LineDiff, changed, nullableString(v.UserID), v.CreatedAt,
	)
	return err
}

func (r *ContentRepository) GetVersion(ctx context.Context, contentID string, version int64) (*domain.ContentVersion, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, content_id, version, body, meta, diff, line_diff, changed_fields, user_id, created_at
		 FROM content_versions WHERE content_id = $1 AND version = $2`,
		contentID, version,
	)
	return scanVersion(row)
}

func (r *ContentRepository) GetLatestVersion(ctx context.Context, contentID string) (*domain.ContentVersion, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, content_id, version, body, meta, diff, line_diff, changed_fields, user_id, created_at
		 FROM content_versions WHERE content_id = $1 ORDER BY version DESC LIMIT 1`,
		contentID,
	)
	return scanVersion(row)
}

func (r *ContentRepository) ListVersions(ctx context.Context, contentID string) ([]*domain.ContentVersion, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, content_id, version, body, meta, diff, line_diff, changed_fields, user_id, created_at
		 FROM content_versions WHERE content_id = $1 ORDER BY version DESC`,
		contentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*domain.ContentVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func scanVersion(row pgx.Row) (*domain.ContentVersion, error) {
	var v domain.ContentVersion
	var meta, changed []byte
	var userID pgtype.Text
	err := row.Scan(&v.ID, &v.ContentID, &v.Version, &v.Body, &meta, &v.Diff, &v.LineDiff, &changed, &userID, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContentVersionNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(meta, &v.Meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal version meta: %w", err)
	}
	if err := json.Unmarshal(changed, &v.ChangedFields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal changed fields: %w", err)
	}
	if userID.Valid {
		v.UserID = userID.String
	}
	return &v, nil
}
