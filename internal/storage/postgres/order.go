package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pueblos-cart/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository stores placed orders.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts o. The items are encoded by pgx into the JSONB column; an
// empty coupon code is stored as NULL.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	var coupon *string
	if o.CouponCode != "" {
		coupon = &o.CouponCode
	}
	if _, err := r.pool.Exec(ctx, `
INSERT INTO orders (id, items, subtotal, discounts, total, coupon_code, created_at)
VALUES ($1, $2::jsonb, $3, $4, $5, $6, $7)`,
		o.ID, o.Items, o.Subtotal, o.Discounts, o.Total, coupon, o.CreatedAt,
	); err != nil {
		return fmt.Errorf("inserting order %s: %w", o.ID, err)
	}
	return nil
}
