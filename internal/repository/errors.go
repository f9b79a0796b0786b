package repository

import (
	"errors"
	"fmt"

	"github.com/kirinyoku/tix-factory/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrExhausted         = errors.New("supply exhausted")
	ErrOutOfRange        = errors.New("amount out of range")
)

// Translate maps storage errors onto the domain taxonomy. Errors it does not
// know, such as serialization failures, pass through unchanged.
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case errors.Is(err, ErrConflict):
		return fmt.Errorf("%w: %v", domain.ErrAlreadyExists, err)
	case errors.Is(err, ErrExhausted):
		return fmt.Errorf("%w: %v", domain.ErrSoldOut, err)
	case errors.Is(err, ErrInsufficientFunds):
		return fmt.Errorf("%w: %v", domain.ErrInsufficientFunds, err)
	case errors.Is(err, ErrOutOfRange):
		return fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	default:
		return err
	}
}
