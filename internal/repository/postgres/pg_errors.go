package postgresrepo

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kirinyoku/tix-factory/internal/repository"
)

// SQLSTATE codes the store reacts to.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeNumericOutOfRange    = "22003"
)

// IsRetryable reports whether the transaction that produced err may succeed
// when run again from the start.
func IsRetryable(err error) bool {
	code := sqlState(err)
	return code == codeSerializationFailure || code == codeDeadlockDetected
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// wrapDBErr prefixes err with op, replacing driver errors that have a
// repository meaning by the matching sentinel.
func wrapDBErr(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, repository.ErrConflict)
	case codeForeignKeyViolation:
		return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, repository.ErrNotFound)
	case codeNumericOutOfRange:
		return fmt.Errorf("%s: %w", op, repository.ErrOutOfRange)
	case codeCheckViolation:
		// balance and sold/supply are the only checked columns
		if pgErr.ConstraintName == "accounts_balance_check" {
			return fmt.Errorf("%s: %w", op, repository.ErrInsufficientFunds)
		}
		return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, repository.ErrExhausted)
	}

	return fmt.Errorf("%s: %w", op, err)
}
