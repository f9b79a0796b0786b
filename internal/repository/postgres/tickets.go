package postgresrepo

import (
	"context"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/repository"
)

type TicketRepo struct {
	db DB
}

func (r *TicketRepo) Insert(ctx context.Context, deployment domain.AccountID, t *domain.Ticket) error {
	const op = "postgresrepo.TicketRepo.Insert"

	_, err := r.db.Exec(ctx,
		`INSERT INTO tickets(deployment_id, token_id, show_key, type_name, is_used, issued_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		deployment, t.TokenID, t.ShowKey, t.TypeName, t.IsUsed, t.IssuedAt,
	)

	return wrapDBErr(op, err)
}

func (r *TicketRepo) Get(ctx context.Context, deployment domain.AccountID, tokenID string) (*domain.Ticket, error) {
	const op = "postgresrepo.TicketRepo.Get"

	var t domain.Ticket
	if err := r.db.QueryRow(ctx,
		`SELECT token_id, show_key, type_name, is_used, issued_at
		 FROM tickets
		 WHERE deployment_id = $1 AND token_id = $2`,
		deployment, tokenID,
	).Scan(&t.TokenID, &t.ShowKey, &t.TypeName, &t.IsUsed, &t.IssuedAt); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &t, nil
}

func (r *TicketRepo) MarkUsed(ctx context.Context, deployment domain.AccountID, tokenID string) error {
	const op = "postgresrepo.TicketRepo.MarkUsed"

	tag, err := r.db.Exec(ctx,
		`UPDATE tickets SET is_used = TRUE WHERE deployment_id = $1 AND token_id = $2`,
		deployment, tokenID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}
