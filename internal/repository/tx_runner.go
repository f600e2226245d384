package repository

import (
	"context"

	"github.com/brandforge-ai/brandforge/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner runs a function with content and job repositories bound to
// one transaction, so an enqueue and its rows commit or roll back
// together.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	repos := &txRepos{tx: tx}
	if err := fn(repos); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

type txRepos struct {
	tx pgx.Tx
}

func (r *txRepos) Contents() service.ContentRepositoryInterface {
	return NewContentRepositoryWithTx(r.tx)
}

func (r *txRepos) Jobs() service.PipelineJobRepositoryInterface {
	return NewPipelineJobRepositoryWithTx(r.tx)
}
