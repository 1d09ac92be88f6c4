// Package order turns a cart into a placed order.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a placed order with its pricing and discount details.
type Order struct {
	ID         string
	Items      []Item
	Subtotal   decimal.Decimal
	Total      decimal.Decimal
	Discounts  decimal.Decimal
	CouponCode string
	CreatedAt  time.Time
}

// Item is a single line of an order.
type Item struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}

// Publisher announces placed orders to other services.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, order *Order) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) PublishOrderPlaced(context.Context, *Order) error { return nil }
