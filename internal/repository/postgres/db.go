package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tix-factory/internal/repository"
)

// maxTxAttempts bounds retries of transactions aborted by serialization
// conflicts.
const maxTxAttempts = 3

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

// RunTx runs fn in a serializable transaction, retrying it when Postgres
// aborts it with a serialization failure or deadlock.
func (s *Store) RunTx(
	ctx context.Context,
	opts *repository.TxOptions,
	fn func(ctx context.Context, tx repository.Tx) error,
) error {
	const op = "postgresrepo.Store.RunTx"

	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	}

	if opts != nil && opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.runTxOnce(ctx, txOpts, fn)
		if err == nil || !IsRetryable(err) {
			break
		}
	}
	if err != nil && IsRetryable(err) {
		return fmt.Errorf("%s: %d attempts: %w", op, maxTxAttempts, err)
	}

	return err
}

func (s *Store) runTxOnce(
	ctx context.Context,
	txOpts pgx.TxOptions,
	fn func(ctx context.Context, tx repository.Tx) error,
) error {
	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepos{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

type txRepos struct {
	db DB
}

func (t *txRepos) Accounts() repository.AccountRepo       { return &AccountRepo{db: t.db} }
func (t *txRepos) Deployments() repository.DeploymentRepo { return &DeploymentRepo{db: t.db} }
func (t *txRepos) Shows() repository.ShowRepo             { return &ShowRepo{db: t.db} }
func (t *txRepos) Tickets() repository.TicketRepo         { return &TicketRepo{db: t.db} }
func (t *txRepos) Tokens() repository.TokenRepo           { return &TokenRepo{db: t.db} }
func (t *txRepos) Sagas() repository.SagaRepo             { return &SagaRepo{db: t.db} }
