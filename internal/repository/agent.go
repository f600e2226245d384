package repository

import (
	"context"
	"errors"

	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AgentRepository struct {
	db dbtx
}

func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{db: pool}
}

func NewAgentRepositoryWithTx(tx pgx.Tx) *AgentRepository {
	return &AgentRepository{db: tx}
}

func (r *AgentRepository) Create(ctx context.Context, a *domain.Agent) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO agents (id, name, purpose, system_prompt, website_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Name, nullableString(string(a.Purpose)), a.SystemPrompt, nullableString(a.WebsiteURL), a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *AgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	var a domain.Agent
	var purpose, websiteURL *string
	err := r.db.QueryRow(ctx,
		`SELECT id, name, purpose, system_prompt, website_url, created_at, updated_at
		 FROM agents WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Name, &purpose, &a.SystemPrompt, &websiteURL, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, err
	}
	if purpose != nil {
		a.Purpose = domain.ContentPurpose(*purpose)
	}
	if websiteURL != nil {
		a.WebsiteURL = *websiteURL
	}
	return &a, nil
}

func (r *AgentRepository) Update(ctx context.Context, a *domain.Agent) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE agents SET name = $1, purpose = $2, system_prompt = $3, website_url = $4, updated_at = $5
		 WHERE id = $6`,
		a.Name, nullableString(string(a.Purpose)), a.SystemPrompt, nullableString(a.WebsiteURL), a.UpdatedAt, a.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}
