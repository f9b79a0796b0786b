// Package query serves the read side of deployments: shows, tickets, sagas
// and accounts.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/tix-factory/internal/domain"
	redisx "github.com/kirinyoku/tix-factory/internal/redis"
	"github.com/kirinyoku/tix-factory/internal/repository"
	redisrepo "github.com/kirinyoku/tix-factory/internal/repository/redis"
	"github.com/kirinyoku/tix-factory/internal/uow"
)

type Config struct {
	ShowTTL     time.Duration
	MetadataTTL time.Duration
}

type Service struct {
	uow   *uow.UoW
	cache *redisrepo.Cache
	cfg   Config
	clock func() time.Time
}

func New(store repository.Store, cache *redisrepo.Cache, cfg Config, clock func() time.Time) *Service {
	if cfg.ShowTTL <= 0 {
		cfg.ShowTTL = 30 * time.Second
	}

	if cfg.MetadataTTL <= 0 {
		cfg.MetadataTTL = 10 * time.Minute
	}

	if clock == nil {
		clock = time.Now
	}

	return &Service{
		uow:   uow.NewUoW(store),
		cache: cache,
		cfg:   cfg,
		clock: clock,
	}
}

func (s *Service) read(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return s.uow.Read(ctx, func(ctx context.Context, tx repository.Tx) error {
		return repository.Translate(fn(ctx, tx))
	})
}

// Deployment returns a deployment with its current owner.
func (s *Service) Deployment(ctx context.Context, id domain.AccountID) (*domain.Deployment, error) {
	const op = "service.query.Deployment"

	var d *domain.Deployment
	err := s.read(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		d, err = tx.Deployments().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return d, nil
}

// Metadata returns the contract metadata of a deployment. Metadata never
// changes after initialization, so it is cached for long.
func (s *Service) Metadata(ctx context.Context, id domain.AccountID) (*domain.ContractMetadata, error) {
	const op = "service.query.Metadata"

	meta, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyDeploymentMetadata(string(id)),
		s.cfg.MetadataTTL,
		func(ctx context.Context) (domain.ContractMetadata, error) {
			d, err := s.Deployment(ctx, id)
			if err != nil {
				return domain.ContractMetadata{}, err
			}
			return d.Metadata, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &meta, nil
}

// AllShows lists every show of a deployment ordered by key.
//
// Parameters:
//   - ctx: request-scoped context.
//   - deployment: the ticket-sales deployment.
//
// Returns:
//   - []domain.Show: the shows, possibly empty.
//   - error: domain.ErrNotFound if the deployment does not exist.
func (s *Service) AllShows(ctx context.Context, deployment domain.AccountID) ([]domain.Show, error) {
	const op = "service.query.AllShows"

	shows, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyDeploymentShows(string(deployment)),
		s.cfg.ShowTTL,
		func(ctx context.Context) ([]domain.Show, error) {
			var out []domain.Show
			err := s.read(ctx, func(ctx context.Context, tx repository.Tx) error {
				if _, err := tx.Deployments().Get(ctx, deployment); err != nil {
					return err
				}
				var err error
				out, err = tx.Shows().List(ctx, deployment)
				return err
			})
			if out == nil {
				out = []domain.Show{}
			}
			return out, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return shows, nil
}

// ActiveShows lists the shows whose sale window contains the current time.
func (s *Service) ActiveShows(ctx context.Context, deployment domain.AccountID) ([]domain.Show, error) {
	const op = "service.query.ActiveShows"

	all, err := s.AllShows(ctx, deployment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.clock()
	active := make([]domain.Show, 0, len(all))
	for i := range all {
		if all[i].OnSale(now) {
			active = append(active, all[i])
		}
	}

	return active, nil
}

func (s *Service) Show(ctx context.Context, deployment domain.AccountID, key string) (*domain.Show, error) {
	const op = "service.query.Show"

	show, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyDeploymentShow(string(deployment), key),
		s.cfg.ShowTTL,
		func(ctx context.Context) (domain.Show, error) {
			var sh *domain.Show
			err := s.read(ctx, func(ctx context.Context, tx repository.Tx) error {
				var err error
				sh, err = tx.Shows().Get(ctx, deployment, key)
				return err
			})
			if err != nil {
				return domain.Show{}, err
			}
			return *sh, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &show, nil
}

// Ticket returns a ticket with its show attached.
func (s *Service) Ticket(ctx context.Context, deployment domain.AccountID, tokenID string) (*domain.Ticket, error) {
	const op = "service.query.Ticket"

	var t *domain.Ticket
	err := s.read(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		t, err = ticketWithShow(ctx, tx, deployment, tokenID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

// TicketsOwnedBy returns the tickets held by owner in mint order.
func (s *Service) TicketsOwnedBy(ctx context.Context, deployment, owner domain.AccountID) ([]domain.Ticket, error) {
	const op = "service.query.TicketsOwnedBy"

	out := []domain.Ticket{}
	err := s.read(ctx, func(ctx context.Context, tx repository.Tx) error {
		ids, err := tx.Tokens().ListByOwner(ctx, deployment, owner)
		if err != nil {
			return err
		}

		for _, id := range ids {
			t, err := ticketWithShow(ctx, tx, deployment, id)
			if err != nil {
				return err
			}
			out = append(out, *t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func ticketWithShow(ctx context.Context, tx repository.Tx, deployment domain.AccountID, tokenID string) (*domain.Ticket, error) {
	t, err := tx.Tickets().Get(ctx, deployment, tokenID)
	if err != nil {
		return nil, err
	}

	show, err := tx.Shows().Get(ctx, deployment, t.ShowKey)
	if err != nil {
		return nil, err
	}
	t.Show = show

	return t, nil
}

func (s *Service) Saga(ctx context.Context, id uuid.UUID) (*domain.Saga, error) {
	const op = "service.query.Saga"

	var saga *domain.Saga
	err := s.read(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		saga, err = tx.Sagas().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return saga, nil
}

func (s *Service) Account(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	const op = "service.query.Account"

	var acc *domain.Account
	err := s.read(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		acc, err = tx.Accounts().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}
