package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/brandforge-ai/brandforge/internal/domain"
)

type BrandDocumentRepository struct {
	db dbtx
}

func NewBrandDocumentRepository(db dbtx) *BrandDocumentRepository {
	return &BrandDocumentRepository{db: db}
}

// Upsert replaces the agent's brand document with a fresh crawl.
func (r *BrandDocumentRepository) Upsert(ctx context.Context, doc *domain.BrandDocument) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO brand_documents (agent_id, source_id, text, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (agent_id) DO UPDATE SET
		     source_id = EXCLUDED.source_id, text = EXCLUDED.text, updated_at = EXCLUDED.updated_at`,
		doc.AgentID, doc.SourceID, doc.Text, doc.UpdatedAt,
	)
	return err
}

func (r *BrandDocumentRepository) GetByAgent(ctx context.Context, agentID string) (*domain.BrandDocument, error) {
	var doc domain.BrandDocument
	err := r.db.QueryRow(ctx,
		`SELECT agent_id, source_id, text, updated_at FROM brand_documents WHERE agent_id = $1`,
		agentID,
	).Scan(&doc.AgentID, &doc.SourceID, &doc.Text, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBrandDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}
