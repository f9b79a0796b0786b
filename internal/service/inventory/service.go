// Package inventory manages the shows and ticket types of a ticket-sales
// deployment and its ownership.
package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/pricing"
	"github.com/kirinyoku/tix-factory/internal/repository"
	redisrepo "github.com/kirinyoku/tix-factory/internal/repository/redis"
	"github.com/kirinyoku/tix-factory/internal/uow"
)

// Notifier tells other instances that a show changed.
type Notifier interface {
	PublishShowChanged(ctx context.Context, deployment, showKey string) error
}

// Mode selects how AmendTicketType treats an existing ticket type.
type Mode int

const (
	ModeAdd Mode = iota
	ModeEdit
)

type ShowInput struct {
	Key         string
	Title       *string
	Description *string
	Banner      *string
	ShowTime    time.Time
	SaleStart   time.Time
	SaleEnd     time.Time
	TicketTypes []domain.TicketTypeSpec
}

type Service struct {
	uow      *uow.UoW
	cache    *redisrepo.Cache
	notifier Notifier
	prices   *pricing.Calculator
	clock    func() time.Time
	logger   *slog.Logger
}

func New(
	store repository.Store,
	cache *redisrepo.Cache,
	notifier Notifier,
	prices *pricing.Calculator,
	clock func() time.Time,
	logger *slog.Logger,
) *Service {
	if clock == nil {
		clock = time.Now
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		uow:      uow.NewUoW(store),
		cache:    cache,
		notifier: notifier,
		prices:   prices,
		clock:    clock,
		logger:   logger,
	}
}

// CreateShow registers a show with its initial ticket types. Prices are
// converted with the mint fee added.
//
// Parameters:
//   - ctx: request-scoped context.
//   - caller: account issuing the request; must own the deployment.
//   - deployment: the ticket-sales deployment.
//   - in: show attributes and ticket type specs.
//
// Returns:
//   - *domain.Show: the stored show.
//   - error: domain.ErrUnauthorized if caller is not the owner.
//   - error: domain.ErrAlreadyExists if the key is taken.
//   - error: domain.ErrInvalidKey, domain.ErrInvalidPrice or
//     domain.ErrInvalidSaleWindow on bad input.
func (s *Service) CreateShow(
	ctx context.Context,
	caller, deployment domain.AccountID,
	in ShowInput,
) (*domain.Show, error) {
	const op = "service.inventory.CreateShow"

	if err := domain.ValidateKey(in.Key); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !in.SaleEnd.After(in.SaleStart) {
		return nil, fmt.Errorf("%s: %w: start %s, end %s", op, domain.ErrInvalidSaleWindow,
			in.SaleStart.Format(time.RFC3339), in.SaleEnd.Format(time.RFC3339))
	}

	show := &domain.Show{
		Key:         in.Key,
		Title:       in.Title,
		Description: in.Description,
		Banner:      in.Banner,
		ShowTime:    in.ShowTime,
		SaleStart:   in.SaleStart,
		SaleEnd:     in.SaleEnd,
		TicketTypes: make(map[string]domain.TicketType, len(in.TicketTypes)),
	}

	for _, spec := range in.TicketTypes {
		tt, err := s.ticketType(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if _, dup := show.TicketTypes[tt.Name]; dup {
			return nil, fmt.Errorf("%s: ticket type %q: %w", op, tt.Name, domain.ErrAlreadyExists)
		}
		show.TicketTypes[tt.Name] = tt
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		if err := s.guard(ctx, tx, caller, deployment); err != nil {
			return err
		}

		if err := tx.Shows().Create(ctx, deployment, show); err != nil {
			return repository.Translate(err)
		}

		after(s.ShowChanged(deployment, show.Key))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("show created",
		"deployment", deployment, "show", show.Key, "ticket_types", len(show.TicketTypes))

	return show, nil
}

// AmendTicketType adds a ticket type to a show or edits an existing one.
// Editing replaces supply and price and keeps the sold count.
func (s *Service) AmendTicketType(
	ctx context.Context,
	caller, deployment domain.AccountID,
	showKey string,
	spec domain.TicketTypeSpec,
	mode Mode,
) (domain.TicketType, error) {
	const op = "service.inventory.AmendTicketType"

	tt, err := s.ticketType(spec)
	if err != nil {
		return domain.TicketType{}, fmt.Errorf("%s: %w", op, err)
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		if err := s.guard(ctx, tx, caller, deployment); err != nil {
			return err
		}

		show, err := tx.Shows().Get(ctx, deployment, showKey)
		if err != nil {
			return repository.Translate(err)
		}

		cur, exists := show.TicketTypes[tt.Name]
		switch mode {
		case ModeAdd:
			if exists {
				return fmt.Errorf("ticket type %q: %w", tt.Name, domain.ErrAlreadyExists)
			}
		case ModeEdit:
			if !exists {
				return fmt.Errorf("ticket type %q: %w", tt.Name, domain.ErrNotFound)
			}
			if tt.Supply < cur.Sold {
				return fmt.Errorf("%w: supply %d, sold %d", domain.ErrInvalidSupply, tt.Supply, cur.Sold)
			}
			tt.Sold = cur.Sold
		default:
			return fmt.Errorf("unknown mode %d", mode)
		}

		if err := tx.Shows().PutTicketType(ctx, deployment, showKey, tt); err != nil {
			return repository.Translate(err)
		}

		after(s.ShowChanged(deployment, showKey))
		return nil
	})
	if err != nil {
		return domain.TicketType{}, fmt.Errorf("%s: %w", op, err)
	}

	return tt, nil
}

// ReserveOne checks that one ticket of the type can be sold now and returns
// the token id it would get. It does not consume inventory.
func (s *Service) ReserveOne(
	ctx context.Context,
	deployment domain.AccountID,
	showKey, typeName string,
) (domain.Reservation, error) {
	const op = "service.inventory.ReserveOne"

	var res domain.Reservation
	err := s.uow.Read(ctx, func(ctx context.Context, tx repository.Tx) error {
		show, err := tx.Shows().Get(ctx, deployment, showKey)
		if err != nil {
			return repository.Translate(err)
		}

		res, err = show.Reserve(typeName, s.clock())
		return err
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

func (s *Service) TransferOwnership(ctx context.Context, caller, deployment, newOwner domain.AccountID) error {
	const op = "service.inventory.TransferOwnership"

	if newOwner == "" {
		return fmt.Errorf("%s: %w: empty new owner", op, domain.ErrInvalidAccount)
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, _ func(uow.AfterCommit)) error {
		d, err := tx.Deployments().Get(ctx, deployment)
		if err != nil {
			return repository.Translate(err)
		}

		if err := d.Transfer(caller, newOwner); err != nil {
			return err
		}

		return repository.Translate(tx.Deployments().SetOwner(ctx, deployment, d.Owner))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("ownership transferred", "deployment", deployment, "from", caller, "to", newOwner)
	return nil
}

// RenounceOwnership leaves the deployment without an owner. Owner-gated
// operations fail from then on.
func (s *Service) RenounceOwnership(ctx context.Context, caller, deployment domain.AccountID) error {
	const op = "service.inventory.RenounceOwnership"

	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, _ func(uow.AfterCommit)) error {
		d, err := tx.Deployments().Get(ctx, deployment)
		if err != nil {
			return repository.Translate(err)
		}

		if err := d.Renounce(caller); err != nil {
			return err
		}

		return repository.Translate(tx.Deployments().SetOwner(ctx, deployment, d.Owner))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Warn("ownership renounced", "deployment", deployment, "by", caller)
	return nil
}

func (s *Service) ticketType(spec domain.TicketTypeSpec) (domain.TicketType, error) {
	if err := domain.ValidateKey(spec.Name); err != nil {
		return domain.TicketType{}, err
	}

	price, err := s.prices.PriceFor(spec.Price)
	if err != nil {
		return domain.TicketType{}, err
	}

	return domain.TicketType{Name: spec.Name, Supply: spec.Supply, UnitPrice: price}, nil
}

func (s *Service) guard(ctx context.Context, tx repository.Tx, caller, deployment domain.AccountID) error {
	d, err := tx.Deployments().Get(ctx, deployment)
	if err != nil {
		return repository.Translate(err)
	}
	return d.Guard(caller)
}

// ShowChanged returns a hook that drops cached copies of the show and tells
// the other instances about the change.
func (s *Service) ShowChanged(deployment domain.AccountID, showKey string) uow.AfterCommit {
	return func(ctx context.Context) {
		if err := s.cache.InvalidateShow(ctx, string(deployment), showKey); err != nil {
			s.logger.Warn("cache invalidation failed", "deployment", deployment, "show", showKey, "error", err)
		}
		if s.notifier != nil {
			if err := s.notifier.PublishShowChanged(ctx, string(deployment), showKey); err != nil {
				s.logger.Warn("show change publish failed", "deployment", deployment, "show", showKey, "error", err)
			}
		}
	}
}
