// Package repository declares the persistence contract shared by the
// Postgres and in-memory stores.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-factory/internal/domain"
)

type TxOptions struct {
	ReadOnly bool
}

// Store runs fn inside a serializable transaction. Repositories obtained
// from tx are only valid while fn runs.
type Store interface {
	RunTx(ctx context.Context, opts *TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Accounts() AccountRepo
	Deployments() DeploymentRepo
	Shows() ShowRepo
	Tickets() TicketRepo
	Tokens() TokenRepo
	Sagas() SagaRepo
}

type AccountRepo interface {
	// Create returns ErrConflict if the account exists.
	Create(ctx context.Context, id domain.AccountID, at time.Time) error
	Get(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	// Credit returns ErrOutOfRange if the balance would exceed
	// domain.MaxAmount.
	Credit(ctx context.Context, id domain.AccountID, amount domain.Amount) error
	// Transfer returns ErrNotFound if either account is missing,
	// ErrInsufficientFunds if from cannot cover amount and ErrOutOfRange if
	// amount or the resulting balance exceeds domain.MaxAmount.
	Transfer(ctx context.Context, from, to domain.AccountID, amount domain.Amount) error
	// Delete removes id with its keys and credits its balance to
	// beneficiary, returning the amount moved.
	Delete(ctx context.Context, id, beneficiary domain.AccountID) (domain.Amount, error)
	DeployCode(ctx context.Context, id domain.AccountID, code string) error
	AddKey(ctx context.Context, id domain.AccountID, publicKey string) error
}

type DeploymentRepo interface {
	// Init returns ErrConflict if the deployment was already initialized.
	Init(ctx context.Context, d *domain.Deployment) error
	Get(ctx context.Context, id domain.AccountID) (*domain.Deployment, error)
	SetOwner(ctx context.Context, id, owner domain.AccountID) error
	// AppendListing adds a deployment to an organizer's record.
	AppendListing(ctx context.Context, owner, deployment domain.AccountID, at time.Time) error
	ListByOwner(ctx context.Context, owner domain.AccountID) ([]domain.AccountID, error)
}

type ShowRepo interface {
	// Create returns ErrConflict if the key is taken in the deployment.
	Create(ctx context.Context, deployment domain.AccountID, show *domain.Show) error
	Get(ctx context.Context, deployment domain.AccountID, key string) (*domain.Show, error)
	List(ctx context.Context, deployment domain.AccountID) ([]domain.Show, error)
	PutTicketType(ctx context.Context, deployment domain.AccountID, showKey string, tt domain.TicketType) error
	// IncrementSold bumps sold by one and returns the previous value. It
	// returns ErrExhausted when sold already equals supply.
	IncrementSold(ctx context.Context, deployment domain.AccountID, showKey, typeName string) (uint32, error)
}

type TicketRepo interface {
	// Insert returns ErrConflict if the token id exists.
	Insert(ctx context.Context, deployment domain.AccountID, t *domain.Ticket) error
	Get(ctx context.Context, deployment domain.AccountID, tokenID string) (*domain.Ticket, error)
	MarkUsed(ctx context.Context, deployment domain.AccountID, tokenID string) error
}

// TokenRepo is the token ledger: it owns who holds which token.
type TokenRepo interface {
	// Mint returns ErrConflict if the token id exists.
	Mint(ctx context.Context, deployment domain.AccountID, tokenID string, owner domain.AccountID, at time.Time) error
	OwnerOf(ctx context.Context, deployment domain.AccountID, tokenID string) (domain.AccountID, error)
	ListByOwner(ctx context.Context, deployment, owner domain.AccountID) ([]string, error)
}

type SagaRepo interface {
	Create(ctx context.Context, s *domain.Saga) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Saga, error)
	// Settle stores s if the stored saga is still pending. It reports false
	// when another invocation settled it first.
	Settle(ctx context.Context, s *domain.Saga) (bool, error)
}
