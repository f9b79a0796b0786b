package postgresrepo

import (
	"context"
	"time"

	"github.com/kirinyoku/tix-factory/internal/domain"
)

type TokenRepo struct {
	db DB
}

func (r *TokenRepo) Mint(ctx context.Context, deployment domain.AccountID, tokenID string, owner domain.AccountID, at time.Time) error {
	const op = "postgresrepo.TokenRepo.Mint"

	_, err := r.db.Exec(ctx,
		`INSERT INTO tokens(deployment_id, token_id, owner_id, minted_at)
		 VALUES ($1, $2, $3, $4)`,
		deployment, tokenID, owner, at,
	)

	return wrapDBErr(op, err)
}

func (r *TokenRepo) OwnerOf(ctx context.Context, deployment domain.AccountID, tokenID string) (domain.AccountID, error) {
	const op = "postgresrepo.TokenRepo.OwnerOf"

	var owner domain.AccountID
	if err := r.db.QueryRow(ctx,
		`SELECT owner_id FROM tokens WHERE deployment_id = $1 AND token_id = $2`,
		deployment, tokenID,
	).Scan(&owner); err != nil {
		return "", wrapDBErr(op, err)
	}

	return owner, nil
}

func (r *TokenRepo) ListByOwner(ctx context.Context, deployment, owner domain.AccountID) ([]string, error) {
	const op = "postgresrepo.TokenRepo.ListByOwner"

	rows, err := r.db.Query(ctx,
		`SELECT token_id FROM tokens
		 WHERE deployment_id = $1 AND owner_id = $2
		 ORDER BY seq`,
		deployment, owner,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapDBErr(op, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return ids, nil
}
