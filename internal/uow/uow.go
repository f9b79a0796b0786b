// Package uow runs service logic inside a store transaction and defers side
// effects until the transaction has committed.
package uow

import (
	"context"

	"github.com/kirinyoku/tix-factory/internal/repository"
)

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// UoW represents a unit of work.
type UoW struct {
	store repository.Store
}

func NewUoW(store repository.Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside a read-write transaction. After a successful commit,
// it executes all after-commit hooks.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Tx, after func(AfterCommit)) error,
) error {
	return u.DoWithOpts(ctx, nil, fn)
}

// DoWithOpts runs fn inside the transaction with the given options. Hooks
// registered by an attempt that the store retries are discarded.
func (u *UoW) DoWithOpts(
	ctx context.Context,
	opts *repository.TxOptions,
	fn func(ctx context.Context, tx repository.Tx, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit

	err := u.store.RunTx(ctx, opts, func(ctx context.Context, tx repository.Tx) error {
		hooks = hooks[:0]
		return fn(ctx, tx, func(h AfterCommit) {
			hooks = append(hooks, h)
		})
	})
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}

// Read runs fn inside a read-only transaction.
func (u *UoW) Read(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return u.store.RunTx(ctx, &repository.TxOptions{ReadOnly: true}, fn)
}
