package sales

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseName trims a product name and rejects empty values.
func ParseName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	return name, nil
}

// ParsePrice parses a non-negative unit price with at most two decimals,
// below MaxUnitPrice.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q is not a number", ErrInvalidInput, raw)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: price must be zero or positive", ErrInvalidInput)
	}
	if price.GreaterThanOrEqual(MaxUnitPrice) {
		return decimal.Zero, fmt.Errorf("%w: price must be below %s", ErrInvalidInput, MaxUnitPrice)
	}
	if !price.Equal(price.Truncate(MaxPriceScale)) {
		return decimal.Zero, fmt.Errorf("%w: price %q has more than %d decimals", ErrInvalidInput, raw, MaxPriceScale)
	}
	return price, nil
}

// ParseQuantity parses a non-negative stock quantity.
func ParseQuantity(raw string) (int, error) {
	qty, err := ParseDelta(raw)
	if err != nil {
		return 0, err
	}
	if qty < 0 {
		return 0, fmt.Errorf("%w: quantity must be zero or positive", ErrInvalidInput)
	}
	return qty, nil
}

// ParseDelta parses a signed stock adjustment no larger than MaxQuantity
// in magnitude.
func ParseDelta(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidInput, raw)
	}
	if n > MaxQuantity || n < -MaxQuantity {
		return 0, fmt.Errorf("%w: %d is out of range", ErrInvalidInput, n)
	}
	return n, nil
}

// CheckStockLevel reports whether current + delta is a valid stock level.
func CheckStockLevel(current, delta int) error {
	if delta > MaxQuantity || delta < -MaxQuantity {
		return fmt.Errorf("%w: adjustment %d is out of range", ErrInvalidInput, delta)
	}
	next := int64(current) + int64(delta)
	if next < 0 {
		return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientStock, current, -delta)
	}
	if next > MaxQuantity {
		return fmt.Errorf("%w: stock would exceed %d", ErrInvalidInput, MaxQuantity)
	}
	return nil
}

// ParseSaleQuantity parses the quantity of a sale request. Anything that is
// not a positive integer fails with ErrInvalidQuantity.
func ParseSaleQuantity(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: got %q", ErrInvalidQuantity, raw)
	}
	return n, nil
}
