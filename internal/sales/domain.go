package sales

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Product is an inventory item with its current price and stock level.
type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	QuantityOnHand int             `json:"quantity_on_hand"`
}

// Sale represents one completed sale. Records are never updated once stored.
type Sale struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	SoldAt       time.Time       `json:"sale_timestamp"`
}

// SaleView is a sale joined with the name of the product it refers to.
type SaleView struct {
	Sale
	ProductName string `json:"product_name"`
}

// SalesMetadata summarizes a list of sales.
type SalesMetadata struct {
	Count       int             `json:"count"`
	UnitsSold   int             `json:"units_sold"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Limits on stored values. Quantities fit a 32-bit SQL INTEGER and prices
// fit NUMERIC(12,2).
const (
	MaxQuantity   = math.MaxInt32
	MaxPriceScale = 2
)

// MaxUnitPrice is the exclusive upper bound of a unit price.
var MaxUnitPrice = decimal.New(1, 10)

// DeletedProductName is shown for sales whose product row no longer exists
// and whose captured name is empty.
const DeletedProductName = "(deleted product)"
