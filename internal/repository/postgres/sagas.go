package postgresrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-factory/internal/domain"
)

type SagaRepo struct {
	db DB
}

func (r *SagaRepo) Create(ctx context.Context, s *domain.Saga) error {
	const op = "postgresrepo.SagaRepo.Create"

	_, err := r.db.Exec(ctx,
		`INSERT INTO sagas(id, kind, status, subject, refunder, payer, amount, created_at, settled_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.Kind, s.Status, s.Subject, s.Refunder, s.Payer, int64(s.Amount), s.CreatedAt, s.SettledAt,
	)

	return wrapDBErr(op, err)
}

func (r *SagaRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Saga, error) {
	const op = "postgresrepo.SagaRepo.Get"

	var (
		s      domain.Saga
		amount int64
	)
	if err := r.db.QueryRow(ctx,
		`SELECT id, kind, status, subject, refunder, payer, amount, created_at, settled_at
		 FROM sagas
		 WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Kind, &s.Status, &s.Subject, &s.Refunder, &s.Payer, &amount, &s.CreatedAt, &s.SettledAt); err != nil {
		return nil, wrapDBErr(op, err)
	}
	s.Amount = domain.Amount(amount)

	return &s, nil
}

// Settle only overwrites a pending row, so a second continuation for the
// same saga reports false.
func (r *SagaRepo) Settle(ctx context.Context, s *domain.Saga) (bool, error) {
	const op = "postgresrepo.SagaRepo.Settle"

	tag, err := r.db.Exec(ctx,
		`UPDATE sagas SET status = $2, settled_at = $3
		 WHERE id = $1 AND status = $4`,
		s.ID, s.Status, s.SettledAt, domain.SagaPending,
	)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return tag.RowsAffected() == 1, nil
}
