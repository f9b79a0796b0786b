package pricing

import (
	"math"
	"testing"

	"github.com/kirinyoku/tix-factory/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceFor(t *testing.T) {
	tests := []struct {
		name     string
		decimals int
		fee      domain.Amount
		price    float64
		want     domain.Amount
	}{
		{"whole unit", 9, 10_000_000, 1.00, 1_010_000_000},
		{"free ticket pays only fee", 9, 10_000_000, 0, 10_000_000},
		{"fraction", 2, 0, 12.34, 1234},
		{"half rounds up", 0, 0, 2.5, 3},
		{"half rounds away from zero on odd", 0, 0, 3.5, 4},
		{"below half rounds down", 0, 0, 2.49, 2},
		{"sub-unit with fee", 2, 5, 0.005, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.decimals, tt.fee)
			require.NoError(t, err)

			got, err := c.PriceFor(tt.price)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceForIsDeterministic(t *testing.T) {
	c, err := New(9, 10_000_000)
	require.NoError(t, err)

	first, err := c.PriceFor(3.14159)
	require.NoError(t, err)
	for n := 0; n < 100; n++ {
		again, err := c.PriceFor(3.14159)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPriceForRejectsInvalid(t *testing.T) {
	c, err := New(9, 1)
	require.NoError(t, err)

	for _, p := range []float64{-0.01, -1, math.NaN(), math.Inf(1), math.Inf(-1), 1e12} {
		_, err := c.PriceFor(p)
		assert.ErrorIs(t, err, domain.ErrInvalidPrice, "price %v", p)
	}
}

func TestPriceForFeeOverflow(t *testing.T) {
	_, err := PriceFor(1, 1, domain.Amount(math.MaxInt64))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestNewRejectsBadDecimals(t *testing.T) {
	_, err := New(-1, 0)
	assert.Error(t, err)
	_, err = New(MaxDecimals+1, 0)
	assert.Error(t, err)
}
