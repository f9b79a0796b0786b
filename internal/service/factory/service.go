// Package factory provisions ticket-sales deployments for organizers and
// refunds them when provisioning fails.
package factory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/tix-factory/internal/access"
	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/host"
	"github.com/kirinyoku/tix-factory/internal/remote"
	"github.com/kirinyoku/tix-factory/internal/repository"
	"github.com/kirinyoku/tix-factory/internal/service/inventory"
	"github.com/kirinyoku/tix-factory/internal/service/settlement"
	"github.com/kirinyoku/tix-factory/internal/uow"
)

const MethodConfirmProvision = "confirm_provision"

type Config struct {
	// Account is the factory's own account; deployments are its sub-accounts.
	Account domain.AccountID
	// Owner may credit accounts through the factory.
	Owner          domain.AccountID
	ProvisionFee   domain.Amount
	InitialCapital domain.Amount
	InitGas        remote.Gas
	SettleGas      remote.Gas
}

type Service struct {
	uow       *uow.UoW
	scheduler remote.Scheduler
	settler   *settlement.Settler
	control   access.Control[domain.AccountID]
	cfg       Config
	clock     func() time.Time
	logger    *slog.Logger
}

func New(
	store repository.Store,
	scheduler remote.Scheduler,
	settler *settlement.Settler,
	cfg Config,
	clock func() time.Time,
	logger *slog.Logger,
) *Service {
	if cfg.Account == "" {
		cfg.Account = "tixfactory"
	}

	if cfg.ProvisionFee == 0 {
		cfg.ProvisionFee = 5_000_000_000
	}

	if cfg.InitialCapital == 0 {
		cfg.InitialCapital = 6_500_000_000
	}

	if cfg.InitGas == 0 {
		cfg.InitGas = 25 * remote.TGas
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
		scheduler: scheduler,
		settler:   settler,
		control:   access.New(cfg.Owner),
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}
}

func (s *Service) Account() domain.AccountID { return s.cfg.Account }

// Deposit is the exact amount a provisioning request must attach.
func (s *Service) Deposit() domain.Amount { return s.cfg.ProvisionFee + s.cfg.InitialCapital }

type Provisioning struct {
	SagaID     uuid.UUID        `json:"saga_id"`
	Deployment domain.AccountID `json:"deployment"`
}

// ConfirmArgs carry everything the provisioning continuation needs to refund
// the organizer.
type ConfirmArgs struct {
	SagaID    uuid.UUID        `json:"saga_id"`
	Organizer domain.AccountID `json:"organizer"`
	Refund    domain.Amount    `json:"refund"`
}

// Provision charges the organizer and schedules the creation of the
// deployment prefix.<factory>. The deployment is listed under the organizer
// right away and stays listed even if provisioning fails.
//
// Parameters:
//   - ctx: request-scoped context.
//   - caller: the organizer; its signing key is added to the new account.
//   - prefix: the label of the new sub-account.
//   - metadata: contract metadata of the deployment.
//   - deposit: must equal the provision fee plus the initial capital.
//
// Returns:
//   - *Provisioning: the saga id and the deployment id.
//   - error: domain.ErrInsufficientDeposit if deposit is not exact; nothing
//     is charged or recorded in that case.
//   - error: domain.ErrRemoteFailure if the chain could not be scheduled;
//     the deposit has been refunded by then.
func (s *Service) Provision(
	ctx context.Context,
	caller domain.Caller,
	prefix string,
	metadata domain.ContractMetadata,
	deposit domain.Amount,
) (*Provisioning, error) {
	const op = "service.factory.Provision"

	if deposit != s.Deposit() {
		return nil, fmt.Errorf("%s: %w: requires exactly %d, got %d", op, domain.ErrInsufficientDeposit, s.Deposit(), deposit)
	}

	deployment, err := host.SubAccount(prefix, s.cfg.Account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	meta, err := metadata.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	comp := domain.Compensation{Payer: caller.Account, Amount: deposit}
	saga := domain.NewSaga(domain.SagaProvision, string(deployment), s.cfg.Account, comp, s.clock())

	cmd, err := s.provisionCommand(saga, caller, deployment, meta)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var submitErr error
	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		if err := tx.Accounts().Transfer(ctx, caller.Account, s.cfg.Account, deposit); err != nil {
			return repository.Translate(err)
		}

		if err := tx.Deployments().AppendListing(ctx, caller.Account, deployment, s.clock()); err != nil {
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

	s.logger.Info("creating ticket-sales deployment",
		"deployment", deployment, "organizer", caller.Account, "saga", saga.ID)

	return &Provisioning{SagaID: saga.ID, Deployment: deployment}, nil
}

func (s *Service) provisionCommand(
	saga *domain.Saga,
	caller domain.Caller,
	deployment domain.AccountID,
	meta domain.ContractMetadata,
) (*remote.Command, error) {
	setup := []remote.Action{
		{Kind: remote.ActionCreateAccount},
		{Kind: remote.ActionTransfer, Amount: s.cfg.InitialCapital},
	}
	if caller.PublicKey != "" {
		setup = append(setup, remote.Action{Kind: remote.ActionAddFullAccessKey, PublicKey: caller.PublicKey})
	}
	setup = append(setup, remote.Action{Kind: remote.ActionDeployCode, Code: host.CodeTicketSales})

	initCall, err := remote.FunctionCall(inventory.MethodNew,
		inventory.NewArgs{OwnerID: caller.Account, Metadata: meta},
		0, s.cfg.InitGas)
	if err != nil {
		return nil, err
	}

	confirm, err := remote.FunctionCall(MethodConfirmProvision,
		ConfirmArgs{SagaID: saga.ID, Organizer: caller.Account, Refund: saga.Amount},
		0, s.cfg.SettleGas)
	if err != nil {
		return nil, err
	}

	return &remote.Command{
		ID:          saga.ID,
		Predecessor: s.cfg.Account,
		Signer:      caller.Account,
		SignerKey:   caller.PublicKey,
		Stages: []remote.Stage{
			{Receiver: deployment, Actions: setup},
			{Receiver: deployment, Actions: []remote.Action{initCall}},
		},
		Callback: &remote.Stage{Receiver: s.cfg.Account, Actions: []remote.Action{confirm}},
	}, nil
}

func (s *Service) submit(ctx context.Context, cmd *remote.Command, comp domain.Compensation) error {
	err := s.scheduler.Submit(ctx, cmd)
	if err == nil {
		return nil
	}

	s.logger.Error("provisioning submission failed", "saga", cmd.ID, "error", err)

	if _, serr := s.settler.Settle(ctx, cmd.ID, comp, remote.Failed(*cmd, err)); serr != nil {
		s.logger.Error("settling unsubmitted provisioning failed", "saga", cmd.ID, "error", serr)
	}

	return fmt.Errorf("%w: %v", domain.ErrRemoteFailure, err)
}

// Register installs the factory continuation on the router.
func (s *Service) Register(r *remote.Router) {
	r.Handle(host.CodeFactory, MethodConfirmProvision, s.ConfirmProvision)
}

// ConfirmProvision is the provisioning continuation. Only the factory may
// call it.
func (s *Service) ConfirmProvision(ctx context.Context, call remote.Call) (any, error) {
	const op = "service.factory.ConfirmProvision"

	if err := call.Private(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var args ConfirmArgs
	if err := call.Decode(&args); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := s.settler.Settle(ctx, args.SagaID,
		domain.Compensation{Payer: args.Organizer, Amount: args.Refund}, call.Results, s.reclaim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out.Summary(), nil
}

// reclaim deletes a sub-account that the failed chain did create, so its
// initial capital returns to the factory before the organizer is refunded
// and the prefix can be provisioned again.
func (s *Service) reclaim(ctx context.Context, tx repository.Tx, results []remote.Result) error {
	if len(results) == 0 || !results[0].Success {
		return nil
	}

	deployment := results[0].Receiver
	if _, err := tx.Deployments().Get(ctx, deployment); err == nil {
		return fmt.Errorf("deployment %s is initialized", deployment)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	moved, err := tx.Accounts().Delete(ctx, deployment, s.cfg.Account)
	if err != nil {
		return fmt.Errorf("reclaim %s: %w", deployment, err)
	}

	s.logger.Warn("reclaimed orphaned deployment account", "deployment", deployment, "amount", moved)
	return nil
}

// DeploymentsOwnedBy lists the deployments provisioned for owner, oldest
// first.
func (s *Service) DeploymentsOwnedBy(ctx context.Context, owner domain.AccountID) ([]domain.AccountID, error) {
	const op = "service.factory.DeploymentsOwnedBy"

	var out []domain.AccountID
	err := s.uow.Read(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.Deployments().ListByOwner(ctx, owner)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if out == nil {
		out = []domain.AccountID{}
	}

	return out, nil
}

// Credit mints funds into an account, creating it if needed. Only the
// factory owner may call it.
func (s *Service) Credit(ctx context.Context, caller, account domain.AccountID, amount domain.Amount) (*domain.Account, error) {
	const op = "service.factory.Credit"

	if err := s.control.Guard(caller); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if account == "" {
		return nil, fmt.Errorf("%s: %w: empty account", op, domain.ErrInvalidAccount)
	}

	if !amount.Valid() {
		return nil, fmt.Errorf("%s: %w: %d", op, domain.ErrInvalidAmount, amount)
	}

	var acc *domain.Account
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, _ func(uow.AfterCommit)) error {
		_, err := tx.Accounts().Get(ctx, account)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			if err := tx.Accounts().Create(ctx, account, s.clock()); err != nil {
				return repository.Translate(err)
			}
		case err != nil:
			return err
		}

		if err := tx.Accounts().Credit(ctx, account, amount); err != nil {
			return repository.Translate(err)
		}

		acc, err = tx.Accounts().Get(ctx, account)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("account credited", "account", account, "amount", amount, "by", caller)
	return acc, nil
}
