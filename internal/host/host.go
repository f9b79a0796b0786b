// Package host applies remote stages against the account ledger: it creates
// accounts, moves balances, installs code and dispatches function calls to
// the methods registered for the code installed on the receiver.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/remote"
	"github.com/kirinyoku/tix-factory/internal/repository"
	"github.com/kirinyoku/tix-factory/internal/uow"
)

// Code identifiers installed on accounts.
const (
	CodeFactory     = "tixfactory/v1"
	CodeTicketSales = "ticket-sales/v1"
)

var (
	ErrInvalidAccountID = domain.ErrInvalidAccount
	ErrMixedStage       = errors.New("stage mixes function calls with account actions")
	ErrNoCode           = errors.New("no code installed on receiver")
)

var labelRe = regexp.MustCompile(`^[a-z0-9]+([_-][a-z0-9]+)*$`)

// SubAccount returns prefix.parent after checking that prefix is a single
// valid account label.
func SubAccount(prefix string, parent domain.AccountID) (domain.AccountID, error) {
	if len(prefix) < 2 || len(prefix) > 32 || !labelRe.MatchString(prefix) {
		return "", fmt.Errorf("%w: prefix %q", ErrInvalidAccountID, prefix)
	}
	return domain.AccountID(prefix + "." + string(parent)), nil
}

// isDirectSubAccount reports whether child is label.parent.
func isDirectSubAccount(child, parent domain.AccountID) bool {
	label, ok := strings.CutSuffix(string(child), "."+string(parent))
	return ok && labelRe.MatchString(label)
}

type Host struct {
	uow    *uow.UoW
	router *remote.Router
	clock  func() time.Time
	logger *slog.Logger
}

func New(u *uow.UoW, router *remote.Router, clock func() time.Time, logger *slog.Logger) *Host {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{uow: u, router: router, clock: clock, logger: logger}
}

// RunStage implements remote.StageRunner. A stage is either a batch of
// account actions applied in one transaction or a single function call.
func (h *Host) RunStage(ctx context.Context, cmd *remote.Command, st remote.Stage, results []remote.Result) (json.RawMessage, error) {
	const op = "host.Host.RunStage"

	calls := 0
	for _, a := range st.Actions {
		if a.Kind == remote.ActionFunctionCall {
			calls++
		}
	}

	switch {
	case calls == 0:
		if err := h.applyBatch(ctx, cmd, st); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, nil
	case calls == 1 && len(st.Actions) == 1:
		out, err := h.call(ctx, cmd, st.Receiver, st.Actions[0], results)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: %w", op, ErrMixedStage)
	}
}

func (h *Host) applyBatch(ctx context.Context, cmd *remote.Command, st remote.Stage) error {
	return h.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, _ func(uow.AfterCommit)) error {
		accounts := tx.Accounts()

		for _, a := range st.Actions {
			var err error
			switch a.Kind {
			case remote.ActionCreateAccount:
				if !isDirectSubAccount(st.Receiver, cmd.Predecessor) {
					return fmt.Errorf("%w: %s cannot create %s", ErrInvalidAccountID, cmd.Predecessor, st.Receiver)
				}
				err = accounts.Create(ctx, st.Receiver, h.clock())
			case remote.ActionTransfer:
				err = accounts.Transfer(ctx, cmd.Predecessor, st.Receiver, a.Amount)
			case remote.ActionAddFullAccessKey:
				err = accounts.AddKey(ctx, st.Receiver, a.PublicKey)
			case remote.ActionDeployCode:
				err = accounts.DeployCode(ctx, st.Receiver, a.Code)
			default:
				err = fmt.Errorf("unknown action %q", a.Kind)
			}
			if err != nil {
				return fmt.Errorf("%s on %s: %w", a.Kind, st.Receiver, err)
			}
		}

		return nil
	})
}

func (h *Host) call(ctx context.Context, cmd *remote.Command, receiver domain.AccountID, a remote.Action, results []remote.Result) (json.RawMessage, error) {
	moved := a.Deposit > 0 && cmd.Predecessor != receiver

	var code string
	err := h.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, _ func(uow.AfterCommit)) error {
		acc, err := tx.Accounts().Get(ctx, receiver)
		if err != nil {
			return err
		}
		if acc.Code == "" {
			return fmt.Errorf("%w: %s", ErrNoCode, receiver)
		}
		code = acc.Code

		if moved {
			return tx.Accounts().Transfer(ctx, cmd.Predecessor, receiver, a.Deposit)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", a.Method, receiver, err)
	}

	out, err := h.router.Dispatch(ctx, code, remote.Call{
		Receiver:    receiver,
		Predecessor: cmd.Predecessor,
		Signer:      cmd.Signer,
		SignerKey:   cmd.SignerKey,
		Method:      a.Method,
		Args:        a.Args,
		Deposit:     a.Deposit,
		Results:     results,
	})
	if err != nil {
		if moved {
			h.refund(ctx, receiver, cmd.Predecessor, a.Deposit)
		}
		return nil, fmt.Errorf("call %s on %s: %w", a.Method, receiver, err)
	}

	return out, nil
}

// refund returns the deposit attached to a failed call.
func (h *Host) refund(ctx context.Context, from, to domain.AccountID, amount domain.Amount) {
	err := h.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, _ func(uow.AfterCommit)) error {
		return tx.Accounts().Transfer(ctx, from, to, amount)
	})
	if err != nil {
		h.logger.Error("attached deposit refund failed",
			"from", from, "to", to, "amount", amount, "error", err)
	}
}

// Bootstrap creates id if it does not exist and installs code on it.
func (h *Host) Bootstrap(ctx context.Context, id domain.AccountID, code string) error {
	const op = "host.Host.Bootstrap"

	err := h.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, _ func(uow.AfterCommit)) error {
		_, err := tx.Accounts().Get(ctx, id)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			if err := tx.Accounts().Create(ctx, id, h.clock()); err != nil {
				return err
			}
		case err != nil:
			return err
		}
		return tx.Accounts().DeployCode(ctx, id, code)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
