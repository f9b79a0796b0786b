package domain

import (
	"errors"

	"github.com/kirinyoku/tix-factory/internal/access"
)

var (
	ErrUnauthorized        = access.ErrUnauthorized
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotStarted          = errors.New("sale has not started")
	ErrEnded               = errors.New("sale has ended")
	ErrSoldOut             = errors.New("sold out")
	ErrInsufficientDeposit = errors.New("insufficient deposit")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrRemoteFailure       = errors.New("remote failure")
	ErrNotOwner            = errors.New("caller does not own the ticket")
	ErrInvalidKey          = errors.New("invalid key")
	ErrInvalidSupply       = errors.New("supply below sold count")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrRateLimited         = errors.New("rate limited")
	ErrInvalidAccount      = errors.New("invalid account id")
	ErrInvalidMetadata     = errors.New("invalid contract metadata")
	ErrInvalidAmount       = errors.New("amount out of range")
	ErrInvalidSaleWindow   = errors.New("sale must end after it starts")
)
