// Package sale runs the ticket purchase saga and ticket redemption.
package sale

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/remote"
	"github.com/kirinyoku/tix-factory/internal/repository"
	"github.com/kirinyoku/tix-factory/internal/service/inventory"
	"github.com/kirinyoku/tix-factory/internal/service/settlement"
	"github.com/kirinyoku/tix-factory/internal/uow"
)

const (
	MethodConfirmMint    = "confirm_mint"
	MethodSettlePurchase = "settle_purchase"
)

// Limiter bounds how often a buyer may start a purchase.
type Limiter interface {
	Allow(ctx context.Context, id string) (allowed bool, current int64, retryAfter time.Duration, err error)
}

type Config struct {
	// MintFee is attached to the mint call.
	MintFee domain.Amount
	// RedeemFee is the exact deposit a redemption requires.
	RedeemFee domain.Amount
	MintGas   remote.Gas
	SettleGas remote.Gas
}

type Service struct {
	uow       *uow.UoW
	inventory *inventory.Service
	scheduler remote.Scheduler
	settler   *settlement.Settler
	limiter   Limiter
	cfg       Config
	clock     func() time.Time
	logger    *slog.Logger
}

func New(
	store repository.Store,
	inv *inventory.Service,
	scheduler remote.Scheduler,
	settler *settlement.Settler,
	limiter Limiter,
	cfg Config,
	clock func() time.Time,
	logger *slog.Logger,
) *Service {
	if cfg.RedeemFee == 0 {
		cfg.RedeemFee = 1
	}

	if cfg.MintGas == 0 {
		cfg.MintGas = 15 * remote.TGas
	}

	if cfg.SettleGas == 0 {
		cfg.SettleGas = 5 * remote.TGas
	}

	if clock == nil {
		clock = time.Now
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		uow:       uow.NewUoW(store),
		inventory: inv,
		scheduler: scheduler,
		settler:   settler,
		limiter:   limiter,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}
}

// Purchase is the synchronous outcome of BuyTicket. The ticket exists only
// once the saga is committed.
type Purchase struct {
	SagaID  uuid.UUID     `json:"saga_id"`
	TokenID string        `json:"ticket_id"`
	Price   domain.Amount `json:"price"`
	Deposit domain.Amount `json:"deposit"`
}

// MintArgs are the arguments of the mint call.
type MintArgs struct {
	TokenID    string           `json:"token_id"`
	ReceiverID domain.AccountID `json:"receiver_id"`
}

// SettleArgs carry everything the purchase continuation needs to refund the
// buyer.
type SettleArgs struct {
	SagaID uuid.UUID        `json:"saga_id"`
	Buyer  domain.AccountID `json:"buyer"`
	Price  domain.Amount    `json:"price"`
}

// BuyTicket takes the buyer's deposit for one ticket and schedules the mint.
// A deposit above the price is accepted and the excess is kept.
//
// Parameters:
//   - ctx: request-scoped context.
//   - buyer: the paying identity; the token is minted to it.
//   - deployment: the ticket-sales deployment.
//   - showKey, typeName: what to buy.
//   - deposit: the amount attached by the buyer.
//
// Returns:
//   - *Purchase: the saga id and the token id the ticket will get.
//   - error: domain.ErrNotFound, domain.ErrNotStarted, domain.ErrEnded or
//     domain.ErrSoldOut from the inventory check.
//   - error: domain.ErrInsufficientDeposit if deposit is below the price.
//   - error: domain.ErrInvalidAmount if deposit exceeds domain.MaxAmount.
//   - error: domain.ErrRemoteFailure if the mint could not be scheduled; the
//     price has been refunded by then.
func (s *Service) BuyTicket(
	ctx context.Context,
	buyer domain.Caller,
	deployment domain.AccountID,
	showKey, typeName string,
	deposit domain.Amount,
) (*Purchase, error) {
	const op = "service.sale.BuyTicket"

	if !deposit.Valid() {
		return nil, fmt.Errorf("%s: %w: deposit %d", op, domain.ErrInvalidAmount, deposit)
	}

	if s.limiter != nil {
		ok, _, retry, err := s.limiter.Allow(ctx, string(buyer.Account))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w: retry in %s", op, domain.ErrRateLimited, retry)
		}
	}

	res, err := s.inventory.ReserveOne(ctx, deployment, showKey, typeName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if deposit < res.UnitPrice {
		return nil, fmt.Errorf("%s: %w: price %d, deposit %d", op, domain.ErrInsufficientDeposit, res.UnitPrice, deposit)
	}

	comp := domain.Compensation{Payer: buyer.Account, Amount: res.UnitPrice}
	saga := domain.NewSaga(domain.SagaPurchase, res.TokenID, deployment, comp, s.clock())

	cmd, err := s.mintCommand(saga, buyer, deployment, res)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var submitErr error
	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		if err := tx.Accounts().Transfer(ctx, buyer.Account, deployment, deposit); err != nil {
			return repository.Translate(err)
		}

		if err := tx.Sagas().Create(ctx, saga); err != nil {
			return repository.Translate(err)
		}

		after(func(ctx context.Context) {
			submitErr = s.submit(ctx, cmd, comp)
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if submitErr != nil {
		return nil, fmt.Errorf("%s: %w", op, submitErr)
	}

	s.logger.Info("ticket purchase started",
		"deployment", deployment,
		"show", showKey,
		"ticket_type", typeName,
		"ticket_id", res.TokenID,
		"price", res.UnitPrice,
		"deposit", deposit,
		"saga", saga.ID)

	return &Purchase{SagaID: saga.ID, TokenID: res.TokenID, Price: res.UnitPrice, Deposit: deposit}, nil
}

func (s *Service) mintCommand(saga *domain.Saga, buyer domain.Caller, deployment domain.AccountID, res domain.Reservation) (*remote.Command, error) {
	mint, err := remote.FunctionCall(MethodConfirmMint,
		MintArgs{TokenID: res.TokenID, ReceiverID: buyer.Account},
		s.cfg.MintFee, s.cfg.MintGas)
	if err != nil {
		return nil, err
	}

	settle, err := remote.FunctionCall(MethodSettlePurchase,
		SettleArgs{SagaID: saga.ID, Buyer: buyer.Account, Price: res.UnitPrice},
		0, s.cfg.SettleGas)
	if err != nil {
		return nil, err
	}

	return &remote.Command{
		ID:          saga.ID,
		Predecessor: deployment,
		Signer:      buyer.Account,
		SignerKey:   buyer.PublicKey,
		Stages:      []remote.Stage{{Receiver: deployment, Actions: []remote.Action{mint}}},
		Callback:    &remote.Stage{Receiver: deployment, Actions: []remote.Action{settle}},
	}, nil
}

// submit hands the chain to the scheduler. A chain that cannot be scheduled
// is settled as failed right away.
func (s *Service) submit(ctx context.Context, cmd *remote.Command, comp domain.Compensation) error {
	err := s.scheduler.Submit(ctx, cmd)
	if err == nil {
		return nil
	}

	s.logger.Error("mint submission failed", "saga", cmd.ID, "error", err)

	if _, serr := s.settler.Settle(ctx, cmd.ID, comp, remote.Failed(*cmd, err)); serr != nil {
		s.logger.Error("settling unsubmitted purchase failed", "saga", cmd.ID, "error", serr)
	}

	return fmt.Errorf("%w: %v", domain.ErrRemoteFailure, err)
}

// Redeem marks a ticket as used. The caller must own the token and attach
// exactly the redeem fee. Redeeming a used ticket succeeds again.
func (s *Service) Redeem(
	ctx context.Context,
	caller domain.AccountID,
	deployment domain.AccountID,
	tokenID string,
	deposit domain.Amount,
) (*domain.Ticket, error) {
	const op = "service.sale.Redeem"

	if deposit != s.cfg.RedeemFee {
		return nil, fmt.Errorf("%s: %w: requires exactly %d, got %d", op, domain.ErrInsufficientDeposit, s.cfg.RedeemFee, deposit)
	}

	var ticket *domain.Ticket
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, _ func(uow.AfterCommit)) error {
		t, err := tx.Tickets().Get(ctx, deployment, tokenID)
		if err != nil {
			return repository.Translate(err)
		}

		owner, err := tx.Tokens().OwnerOf(ctx, deployment, tokenID)
		if err != nil {
			return repository.Translate(err)
		}

		if owner != caller {
			return fmt.Errorf("%w: %s", domain.ErrNotOwner, tokenID)
		}

		if err := tx.Accounts().Transfer(ctx, caller, deployment, deposit); err != nil {
			return repository.Translate(err)
		}

		if err := tx.Tickets().MarkUsed(ctx, deployment, tokenID); err != nil {
			return repository.Translate(err)
		}

		t.IsUsed = true
		ticket = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("ticket redeemed", "deployment", deployment, "ticket_id", tokenID, "owner", caller)
	return ticket, nil
}
