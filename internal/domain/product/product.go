// Package product defines the catalog entity consumed by the commerce core.
// The core reads products when items enter a cart and writes only the derived
// rating summary; everything else about the catalog is owned elsewhere.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Rating is the derived review summary for a product. It is written solely by
// the review aggregator and never hand-edited.
type Rating struct {
	Average decimal.Decimal `json:"average"`
	Count   int             `json:"count"`
}

// Product represents a catalog item offered by a vendor.
type Product struct {
	ID       string
	VendorID string
	Name     string
	Price    decimal.Decimal
	Category string
	Rating   Rating
}

// Repository defines read operations for the product catalog.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
}

// RatingWriter persists a recomputed rating summary onto a product.
type RatingWriter interface {
	UpdateRating(ctx context.Context, productID string, rating Rating) error
}
