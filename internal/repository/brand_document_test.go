//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrandDocumentRepository_UpsertReplacesDocument(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)
	agent := domain.NewAgent(uuid.NewString(), "Doc Test Brand", domain.PurposeBlogPost, "", "", now)
	require.NoError(t, NewAgentRepository(pool).Create(ctx, agent))

	repo := NewBrandDocumentRepository(pool)

	first := &domain.BrandDocument{
		AgentID:   agent.ID,
		SourceID:  uuid.NewString(),
		Text:      "first crawl text",
		UpdatedAt: now,
	}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &domain.BrandDocument{
		AgentID:   agent.ID,
		SourceID:  uuid.NewString(),
		Text:      "second crawl text",
		UpdatedAt: now.Add(time.Minute),
	}
	require.NoError(t, repo.Upsert(ctx, second))

	got, err := repo.GetByAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "second crawl text", got.Text)
	assert.Equal(t, second.SourceID, got.SourceID)
}

func TestBrandDocumentRepository_GetByAgent_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewBrandDocumentRepository(pool)

	_, err := repo.GetByAgent(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrBrandDocumentNotFound)
}
