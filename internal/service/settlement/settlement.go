// Package settlement resolves pending sagas once their remote chain has
// reported back, paying the compensation of failed chains exactly once.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/remote"
	"github.com/kirinyoku/tix-factory/internal/repository"
	"github.com/kirinyoku/tix-factory/internal/uow"
)

var ErrCompensationMismatch = errors.New("continuation does not match saga compensation")

// Outcome describes what a settlement did.
type Outcome struct {
	Saga           domain.Saga
	Refund         *domain.Compensation
	AlreadySettled bool
}

// Summary is the value a continuation reports back.
type Summary struct {
	Status   domain.SagaStatus `json:"status"`
	Refunded domain.Amount     `json:"refunded,omitempty"`
}

func (o Outcome) Summary() Summary {
	sum := Summary{Status: o.Saga.Status}
	if o.Refund != nil {
		sum.Refunded = o.Refund.Amount
	}
	return sum
}

// Unwind reverses what the successful stages of a failed chain left behind.
// It runs in the settling transaction before the refund is paid.
type Unwind func(ctx context.Context, tx repository.Tx, results []remote.Result) error

type Settler struct {
	uow    *uow.UoW
	clock  func() time.Time
	logger *slog.Logger
}

func New(u *uow.UoW, clock func() time.Time, logger *slog.Logger) *Settler {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Settler{uow: u, clock: clock, logger: logger}
}

// Settle commits the saga when every result succeeded and otherwise runs
// unwind and refunds comp from the saga's refunder. comp is what the
// continuation was scheduled with and must match what the saga recorded.
// Settling an already settled saga is a no-op.
func (s *Settler) Settle(
	ctx context.Context,
	id uuid.UUID,
	comp domain.Compensation,
	results []remote.Result,
	unwind ...Unwind,
) (Outcome, error) {
	const op = "service.settlement.Settle"

	succeeded := remote.Succeeded(results)

	var out Outcome
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, _ func(uow.AfterCommit)) error {
		out = Outcome{}

		saga, err := tx.Sagas().Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("saga %s: %w", id, domain.ErrNotFound)
			}
			return err
		}

		if saga.Compensation != comp {
			return fmt.Errorf("%w: saga %s owes %s %d, continuation says %s %d",
				ErrCompensationMismatch, id, saga.Payer, saga.Amount, comp.Payer, comp.Amount)
		}

		next, refund, err := saga.Settle(succeeded, s.clock())
		if errors.Is(err, domain.ErrAlreadySettled) {
			out = Outcome{Saga: *saga, AlreadySettled: true}
			return nil
		}
		if err != nil {
			return err
		}

		ok, err := tx.Sagas().Settle(ctx, &next)
		if err != nil {
			return err
		}
		if !ok {
			out = Outcome{Saga: *saga, AlreadySettled: true}
			return nil
		}

		if refund != nil {
			for _, u := range unwind {
				if err := u(ctx, tx, results); err != nil {
					return fmt.Errorf("unwind saga %s: %w", id, err)
				}
			}

			if err := tx.Accounts().Transfer(ctx, next.Refunder, refund.Payer, refund.Amount); err != nil {
				return fmt.Errorf("refund %d to %s: %w", refund.Amount, refund.Payer, err)
			}
		}

		out = Outcome{Saga: next, Refund: refund}
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case out.AlreadySettled:
		s.logger.Info("saga already settled", "saga", id, "status", out.Saga.Status)
	case out.Refund != nil:
		s.logger.Warn("saga compensated",
			"saga", id,
			"kind", out.Saga.Kind,
			"subject", out.Saga.Subject,
			"payer", out.Refund.Payer,
			"amount", out.Refund.Amount,
			"results", failures(results))
	default:
		s.logger.Info("saga committed", "saga", id, "kind", out.Saga.Kind, "subject", out.Saga.Subject)
	}

	return out, nil
}

func failures(results []remote.Result) []string {
	var out []string
	for _, r := range results {
		if !r.Success {
			out = append(out, fmt.Sprintf("stage %d on %s: %s", r.Stage, r.Receiver, r.Error))
		}
	}
	return out
}
