package postgresrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/repository"
)

type DeploymentRepo struct {
	db DB
}

func (r *DeploymentRepo) Init(ctx context.Context, d *domain.Deployment) error {
	const op = "postgresrepo.DeploymentRepo.Init"

	meta, err := json.Marshal(d.Metadata)
	if err != nil {
		return fmt.Errorf("%s: encode metadata: %w", op, err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO deployments(id, owner_id, metadata, created_at)
		 VALUES ($1, $2, $3, $4)`,
		d.ID, d.Owner, meta, d.CreatedAt,
	)

	return wrapDBErr(op, err)
}

func (r *DeploymentRepo) Get(ctx context.Context, id domain.AccountID) (*domain.Deployment, error) {
	const op = "postgresrepo.DeploymentRepo.Get"

	var (
		d    domain.Deployment
		meta []byte
	)
	if err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, metadata, created_at FROM deployments WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Owner, &meta, &d.CreatedAt); err != nil {
		return nil, wrapDBErr(op, err)
	}

	if err := json.Unmarshal(meta, &d.Metadata); err != nil {
		return nil, fmt.Errorf("%s: decode metadata: %w", op, err)
	}

	return &d, nil
}

func (r *DeploymentRepo) SetOwner(ctx context.Context, id, owner domain.AccountID) error {
	const op = "postgresrepo.DeploymentRepo.SetOwner"

	tag, err := r.db.Exec(ctx,
		`UPDATE deployments SET owner_id = $2 WHERE id = $1`,
		id, owner,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

func (r *DeploymentRepo) AppendListing(ctx context.Context, owner, deployment domain.AccountID, at time.Time) error {
	const op = "postgresrepo.DeploymentRepo.AppendListing"

	_, err := r.db.Exec(ctx,
		`INSERT INTO deployment_listings(owner_id, deployment_id, created_at)
		 VALUES ($1, $2, $3)`,
		owner, deployment, at,
	)

	return wrapDBErr(op, err)
}

func (r *DeploymentRepo) ListByOwner(ctx context.Context, owner domain.AccountID) ([]domain.AccountID, error) {
	const op = "postgresrepo.DeploymentRepo.ListByOwner"

	rows, err := r.db.Query(ctx,
		`SELECT deployment_id FROM deployment_listings
		 WHERE owner_id = $1
		 ORDER BY id`,
		owner,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var out []domain.AccountID
	for rows.Next() {
		var id domain.AccountID
		if err := rows.Scan(&id); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, id)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
