package product

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a shop catalog item. The cart only relies on ID and
// Price; the remaining attributes travel with the line item for display.
type Product struct {
	ID       int64
	Name     string
	Price    Price
	Category string
	Image    Image
}

// Image holds image URLs for a product.
type Image struct {
	Thumbnail string
	Desktop   string
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
}
