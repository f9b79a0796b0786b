// Package pricing converts organizer prices into minimal currency units.
package pricing

import (
	"fmt"
	"math"

	"github.com/kirinyoku/tix-factory/internal/domain"
)

// MaxDecimals bounds the currency scale so 10^decimals stays exact in a float64.
const MaxDecimals = 15

// maxAmount keeps amounts representable as a signed 64-bit column.
const maxAmount = math.MaxInt64

type Calculator struct {
	decimals int
	scale    float64
	fee      domain.Amount
}

// New returns a calculator for a currency with the given number of decimal
// places that adds fee to every price.
func New(decimals int, fee domain.Amount) (*Calculator, error) {
	const op = "pricing.New"

	if decimals < 0 || decimals > MaxDecimals {
		return nil, fmt.Errorf("%s: decimals must be in [0, %d], got %d", op, MaxDecimals, decimals)
	}

	return &Calculator{
		decimals: decimals,
		scale:    math.Pow10(decimals),
		fee:      fee,
	}, nil
}

func (c *Calculator) Fee() domain.Amount { return c.fee }

// PriceFor returns price scaled to minimal units, rounded half away from
// zero, plus the fixed fee.
func (c *Calculator) PriceFor(price float64) (domain.Amount, error) {
	return PriceFor(price, c.scale, c.fee)
}

// PriceFor is the calculator's pure form. scale is 10^decimals.
func PriceFor(price, scale float64, fee domain.Amount) (domain.Amount, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", domain.ErrInvalidPrice, price)
	}

	if price < 0 {
		return 0, fmt.Errorf("%w: %v is negative", domain.ErrInvalidPrice, price)
	}

	units := math.Round(price * scale)
	if math.IsInf(units, 0) || units >= maxAmount {
		return 0, fmt.Errorf("%w: %v overflows", domain.ErrInvalidPrice, price)
	}

	base := domain.Amount(units)
	if base > maxAmount-fee {
		return 0, fmt.Errorf("%w: %v plus fee overflows", domain.ErrInvalidPrice, price)
	}

	return base + fee, nil
}
