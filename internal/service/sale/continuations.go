package sale

import (
	"context"
	"fmt"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/host"
	"github.com/kirinyoku/tix-factory/internal/remote"
	"github.com/kirinyoku/tix-factory/internal/repository"
	"github.com/kirinyoku/tix-factory/internal/uow"
)

// Register installs the private purchase methods on the router.
func (s *Service) Register(r *remote.Router) {
	r.Handle(host.CodeTicketSales, MethodConfirmMint, s.ConfirmMint)
	r.Handle(host.CodeTicketSales, MethodSettlePurchase, s.SettlePurchase)
}

// ConfirmMint consumes one unit of inventory, records the ticket and mints
// its token. Only the deployment itself may call it. It fails if the type
// sold out or another ticket was minted since the purchase was accepted.
func (s *Service) ConfirmMint(ctx context.Context, call remote.Call) (any, error) {
	const op = "service.sale.ConfirmMint"

	if err := call.Private(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var args MintArgs
	if err := call.Decode(&args); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	showKey, typeName, seq, err := domain.ParseTokenID(args.TokenID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	deployment := call.Receiver
	ticket := &domain.Ticket{
		TokenID:  args.TokenID,
		ShowKey:  showKey,
		TypeName: typeName,
		IssuedAt: s.clock(),
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		sold, err := tx.Shows().IncrementSold(ctx, deployment, showKey, typeName)
		if err != nil {
			return repository.Translate(err)
		}

		// token n is the (n+1)th ticket of its type
		if sold != seq {
			return fmt.Errorf("%w: %s was reserved at sold=%d, sold is now %d",
				domain.ErrAlreadyExists, args.TokenID, seq, sold)
		}

		if err := tx.Tickets().Insert(ctx, deployment, ticket); err != nil {
			return repository.Translate(err)
		}

		if err := tx.Tokens().Mint(ctx, deployment, args.TokenID, args.ReceiverID, ticket.IssuedAt); err != nil {
			return repository.Translate(err)
		}

		after(s.inventory.ShowChanged(deployment, showKey))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("ticket minted", "deployment", deployment, "ticket_id", args.TokenID, "owner", args.ReceiverID)
	return ticket, nil
}

// SettlePurchase is the purchase continuation. It refunds the ticket price
// to the buyer if the mint failed and does nothing on later invocations.
func (s *Service) SettlePurchase(ctx context.Context, call remote.Call) (any, error) {
	const op = "service.sale.SettlePurchase"

	if err := call.Private(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var args SettleArgs
	if err := call.Decode(&args); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := s.settler.Settle(ctx, args.SagaID,
		domain.Compensation{Payer: args.Buyer, Amount: args.Price}, call.Results)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out.Summary(), nil
}
