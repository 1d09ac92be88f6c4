package memory

import (
	"context"
	"slices"

	"github.com/xenking/pueblos-cart/internal/domain/product"
)

var _ product.Repository = (*Catalog)(nil)

// Catalog is a read-only product.Repository over a fixed product list.
type Catalog struct {
	products []product.Product
	byID     map[int64]int
}

// NewCatalog returns a Catalog listing products in ID order.
func NewCatalog(products []product.Product) *Catalog {
	sorted := slices.Clone(products)
	slices.SortFunc(sorted, func(a, b product.Product) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	byID := make(map[int64]int, len(sorted))
	for i, p := range sorted {
		byID[p.ID] = i
	}
	return &Catalog{products: sorted, byID: byID}
}

// List implements product.Repository.
func (c *Catalog) List(context.Context) ([]product.Product, error) {
	return slices.Clone(c.products), nil
}

// GetByID implements product.Repository.
func (c *Catalog) GetByID(_ context.Context, id int64) (*product.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := c.products[i]
	return &p, nil
}

// GetByIDs implements product.Repository. Unknown ids are skipped.
func (c *Catalog) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if i, ok := c.byID[id]; ok {
			out = append(out, c.products[i])
		}
	}
	return out, nil
}
