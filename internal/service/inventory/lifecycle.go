package inventory

import (
	"context"
	"fmt"

	"github.com/kirinyoku/tix-factory/internal/access"
	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/host"
	"github.com/kirinyoku/tix-factory/internal/remote"
	"github.com/kirinyoku/tix-factory/internal/repository"
	"github.com/kirinyoku/tix-factory/internal/uow"
)

const MethodNew = "new"

// NewArgs initializes a freshly provisioned deployment.
type NewArgs struct {
	OwnerID  domain.AccountID        `json:"owner_id"`
	Metadata domain.ContractMetadata `json:"metadata"`
}

// Register installs the deployment constructor on the router.
func (s *Service) Register(r *remote.Router) {
	r.Handle(host.CodeTicketSales, MethodNew, s.handleNew)
}

func (s *Service) handleNew(ctx context.Context, call remote.Call) (any, error) {
	var args NewArgs
	if err := call.Decode(&args); err != nil {
		return nil, err
	}

	d, err := s.Init(ctx, call.Receiver, args)
	if err != nil {
		return nil, err
	}

	return d, nil
}

// Init creates the deployment state on an account that has the ticket-sales
// code installed. It can only succeed once per account.
func (s *Service) Init(ctx context.Context, id domain.AccountID, args NewArgs) (*domain.Deployment, error) {
	const op = "service.inventory.Init"

	if args.OwnerID == "" {
		return nil, fmt.Errorf("%s: %w: empty owner", op, domain.ErrInvalidAccount)
	}

	meta, err := args.Metadata.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d := &domain.Deployment{
		ID:        id,
		Control:   access.New(args.OwnerID),
		Metadata:  meta,
		CreatedAt: s.clock(),
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, _ func(uow.AfterCommit)) error {
		return repository.Translate(tx.Deployments().Init(ctx, d))
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("deployment initialized", "deployment", id, "owner", args.OwnerID, "name", meta.Name)
	return d, nil
}
