package sales

import "errors"

var (
	// ErrInvalidInput is returned for malformed names, prices or quantities.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidQuantity is returned when a sale quantity is not a positive integer.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrProductNotFound is returned when a product with the given ID does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a sale or adjustment would drive stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrProductInUse is returned when deleting a product that sales still reference.
	ErrProductInUse = errors.New("product is referenced by sales")

	// ErrStorage wraps failures of the durable layer.
	ErrStorage = errors.New("storage failure")
)

// isDomainError reports whether err already carries one of the package sentinels.
func isDomainError(err error) bool {
	for _, target := range []error{
		ErrInvalidInput,
		ErrInvalidQuantity,
		ErrProductNotFound,
		ErrInsufficientStock,
		ErrProductInUse,
		ErrStorage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
