package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	price, err := ParsePrice(" 9.99 ")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("9.99").Equal(price))

	price, err = ParsePrice("0")
	require.NoError(t, err)
	assert.True(t, price.IsZero())

	price, err = ParsePrice("9999999999.99")
	require.NoError(t, err)
	assert.Equal(t, "9999999999.99", price.String())

	price, err = ParsePrice("2.500")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.5").Equal(price))

	for _, raw := range []string{"", "abc", "-1", "1,50", "1e400", "1e10", "0.001", "1e-400"} {
		_, err := ParsePrice(raw)
		assert.ErrorIs(t, err, ErrInvalidInput, raw)
	}
}

func TestCheckStockLevel(t *testing.T) {
	assert.NoError(t, CheckStockLevel(5, -5))
	assert.NoError(t, CheckStockLevel(MaxQuantity-1, 1))
	assert.ErrorIs(t, CheckStockLevel(5, -6), ErrInsufficientStock)
	assert.ErrorIs(t, CheckStockLevel(MaxQuantity, 1), ErrInvalidInput)
	assert.ErrorIs(t, CheckStockLevel(0, MaxQuantity+1), ErrInvalidInput)
}

func TestParseQuantities(t *testing.T) {
	n, err := ParseQuantity("12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = ParseQuantity("-1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseQuantity("2.5")
	assert.ErrorIs(t, err, ErrInvalidInput)

	n, err = ParseDelta("-3")
	require.NoError(t, err)
	assert.Equal(t, -3, n)
	for _, raw := range []string{"2147483648", "-2147483648", "99999999999999999999"} {
		_, err := ParseDelta(raw)
		assert.ErrorIs(t, err, ErrInvalidInput, raw)
	}

	n, err = ParseSaleQuantity("4")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	for _, raw := range []string{"0", "-1", "x", "1.0"} {
		_, err := ParseSaleQuantity(raw)
		assert.ErrorIs(t, err, ErrInvalidQuantity, raw)
	}
}
