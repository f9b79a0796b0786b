package postgresrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/repository"
)

type AccountRepo struct {
	db DB
}

func (r *AccountRepo) Create(ctx context.Context, id domain.AccountID, at time.Time) error {
	const op = "postgresrepo.AccountRepo.Create"

	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts(id, created_at) VALUES ($1, $2)`,
		id, at,
	)

	return wrapDBErr(op, err)
}

func (r *AccountRepo) Get(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	const op = "postgresrepo.AccountRepo.Get"

	var (
		a       domain.Account
		balance int64
	)
	if err := r.db.QueryRow(ctx,
		`SELECT id, balance, code, created_at FROM accounts WHERE id = $1`,
		id,
	).Scan(&a.ID, &balance, &a.Code, &a.CreatedAt); err != nil {
		return nil, wrapDBErr(op, err)
	}
	a.Balance = domain.Amount(balance)

	rows, err := r.db.Query(ctx,
		`SELECT public_key FROM access_keys WHERE account_id = $1 ORDER BY public_key`,
		id,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, wrapDBErr(op, err)
		}
		a.Keys = append(a.Keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &a, nil
}

func (r *AccountRepo) Credit(ctx context.Context, id domain.AccountID, amount domain.Amount) error {
	const op = "postgresrepo.AccountRepo.Credit"

	if !amount.Valid() {
		return wrapDBErr(op, fmt.Errorf("credit %d: %w", amount, repository.ErrOutOfRange))
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET balance = balance + $2 WHERE id = $1`,
		id, int64(amount),
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

func (r *AccountRepo) Transfer(ctx context.Context, from, to domain.AccountID, amount domain.Amount) error {
	const op = "postgresrepo.AccountRepo.Transfer"

	if !amount.Valid() {
		return wrapDBErr(op, fmt.Errorf("transfer %d: %w", amount, repository.ErrOutOfRange))
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET balance = balance - $2
      	 WHERE id = $1 AND balance >= $2`,
		from, int64(amount),
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`,
			from,
		).Scan(&exists); err != nil {
			return wrapDBErr(op, err)
		}
		if !exists {
			return wrapDBErr(op, repository.ErrNotFound)
		}
		return wrapDBErr(op, repository.ErrInsufficientFunds)
	}

	return r.Credit(ctx, to, amount)
}

func (r *AccountRepo) DeployCode(ctx context.Context, id domain.AccountID, code string) error {
	const op = "postgresrepo.AccountRepo.DeployCode"

	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET code = $2 WHERE id = $1`,
		id, code,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

func (r *AccountRepo) AddKey(ctx context.Context, id domain.AccountID, publicKey string) error {
	const op = "postgresrepo.AccountRepo.AddKey"

	_, err := r.db.Exec(ctx,
		`INSERT INTO access_keys(account_id, public_key) VALUES ($1, $2)`,
		id, publicKey,
	)

	return wrapDBErr(op, err)
}

func (r *AccountRepo) Delete(ctx context.Context, id, beneficiary domain.AccountID) (domain.Amount, error) {
	const op = "postgresrepo.AccountRepo.Delete"

	if _, err := r.db.Exec(ctx, `DELETE FROM access_keys WHERE account_id = $1`, id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	var balance int64
	if err := r.db.QueryRow(ctx,
		`DELETE FROM accounts WHERE id = $1 RETURNING balance`,
		id,
	).Scan(&balance); err != nil {
		return 0, wrapDBErr(op, err)
	}

	if err := r.Credit(ctx, beneficiary, domain.Amount(balance)); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return domain.Amount(balance), nil
}
