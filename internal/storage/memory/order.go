package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/pueblos-cart/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository appends orders to a slice.
type OrderRepository struct {
	mu     sync.Mutex
	orders []order.Order
}

// NewOrderRepository returns an empty OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

// Create implements order.Repository.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *o
	cp.Items = slices.Clone(o.Items)
	r.orders = append(r.orders, cp)
	return nil
}

// Orders returns a copy of the stored orders in creation order.
func (r *OrderRepository) Orders() []order.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.orders)
}
