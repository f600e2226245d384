package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// KnowledgePointRepository is the agent-scoped vector store. Points
// are written with fresh ids and never updated in place.
type KnowledgePointRepository struct {
	db dbtx
}

func NewKnowledgePointRepository(pool *pgxpool.Pool) *KnowledgePointRepository {
	return &KnowledgePointRepository{db: pool}
}

func NewKnowledgePointRepositoryWithTx(tx pgx.Tx) *KnowledgePointRepository {
	return &KnowledgePointRepository{db: tx}
}

func (r *KnowledgePointRepository) Upsert(ctx context.Context, kp *domain.KnowledgePoint, embedding []float32) error {
	keywords, err := json.Marshal(kp.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO knowledge_points (id, agent_id, source_type, content, summary, category, keywords, confidence, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE
		 SET content = EXCLUDED.content, summary = EXCLUDED.summary, category = EXCLUDED.category,
		     keywords = EXCLUDED.keywords, confidence = EXCLUDED.confidence, embedding = EXCLUDED.embedding`,
		kp.ID, kp.AgentID, kp.SourceType, kp.Content, kp.Summary, nullableString(kp.Category),
		keywords, kp.Confidence, pgvector.NewVector(embedding), kp.CreatedAt,
	)
	return err
}

// QueryNearest returns the k nearest knowledge points to the query
// embedding, scoped to one agent, most similar first.
func (r *KnowledgePointRepository) QueryNearest(ctx context.Context, agentID string, embedding []float32, k int) ([]*service.RetrievedPoint, error) {
	if k <= 0 {
		k = 5
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, agent_id, source_type, content, summary, category, keywords, confidence, created_at,
		        1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM knowledge_points
		 WHERE agent_id = $2 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(embedding), agentID, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*service.RetrievedPoint
	for rows.Next() {
		var rp service.RetrievedPoint
		var category pgtype.Text
		var keywords []byte
		if err := rows.Scan(&rp.Point.ID, &rp.Point.AgentID, &rp.Point.SourceType, &rp.Point.Content,
			&rp.Point.Summary, &category, &keywords, &rp.Point.Confidence, &rp.Point.CreatedAt, &rp.Score); err != nil {
			return nil, err
		}
		if category.Valid {
			rp.Point.Category = category.String
		}
		if len(keywords) > 0 {
			if err := json.Unmarshal(keywords, &rp.Point.Keywords); err != nil {
				return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
			}
		}
		results = append(results, &rp)
	}
	return results, rows.Err()
}

func (r *KnowledgePointRepository) CountByAgent(ctx context.Context, agentID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM knowledge_points WHERE agent_id = $1`,
		agentID,
	).Scan(&count)
	return count, err
}

// DeleteByAgent removes every knowledge point for an agent. This is
// the only deletion path; it backs the explicit knowledge reset.
func (r *KnowledgePointRepository) DeleteByAgent(ctx context.Context, agentID string) (int64, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM knowledge_points WHERE agent_id = $1`,
		agentID,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}
