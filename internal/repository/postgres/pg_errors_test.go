package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/kirinyoku/tix-factory/internal/repository"
)

func TestWrapDBErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, repository.ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "deployments_pkey"}, repository.ErrConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, repository.ErrNotFound},
		{"balance", &pgconn.PgError{Code: "23514", ConstraintName: "accounts_balance_check"}, repository.ErrInsufficientFunds},
		{"sold", &pgconn.PgError{Code: "23514", ConstraintName: "ticket_types_check"}, repository.ErrExhausted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := wrapDBErr("op", fmt.Errorf("exec: %w", tc.err))
			assert.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), "op: ")
		})
	}

	assert.NoError(t, wrapDBErr("op", nil))

	other := errors.New("boom")
	assert.ErrorIs(t, wrapDBErr("op", other), other)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsRetryable(fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"})))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.False(t, IsRetryable(nil))
}

func TestOutOfRangeAmountsNeverReachTheDatabase(t *testing.T) {
	// a nil DB panics if a statement is issued
	r := &AccountRepo{}
	ctx := context.Background()

	assert.ErrorIs(t, r.Credit(ctx, "alice", domain.MaxAmount+1), repository.ErrOutOfRange)
	assert.ErrorIs(t, r.Transfer(ctx, "alice", "gala.tixfactory", ^domain.Amount(0)), repository.ErrOutOfRange)

	err := wrapDBErr("op", &pgconn.PgError{Code: "22003"})
	assert.ErrorIs(t, err, repository.ErrOutOfRange)
	assert.ErrorIs(t, repository.Translate(err), domain.ErrInvalidAmount)
}
