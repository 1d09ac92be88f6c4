package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/pueblos-cart/internal/domain/cart"
	"github.com/xenking/pueblos-cart/internal/domain/coupon"
	"github.com/xenking/pueblos-cart/internal/domain/product"
)

// Sentinel errors for order validation.
var (
	ErrEmptyItems      = errors.New("items required")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d", e.ProductID)
}

func (e *InvalidQuantityError) Unwrap() error { return ErrInvalidQuantity }

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Items      []Item
	CouponCode string
}

// PlaceOrderResult holds the output of a successfully placed order.
type PlaceOrderResult struct {
	Order    *Order
	Products []product.Product
}

// Service encapsulates order placement business logic.
type Service struct {
	products  product.Repository
	coupons   coupon.Validator
	orders    Repository
	publisher Publisher
	now       func() time.Time
}

// NewService creates an order Service. A nil publisher disables events.
func NewService(
	products product.Repository,
	coupons coupon.Validator,
	orders Repository,
	publisher Publisher,
) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Service{
		products:  products,
		coupons:   coupons,
		orders:    orders,
		publisher: publisher,
		now:       time.Now,
	}
}

// PlaceOrder prices items against the catalog, applies the coupon, persists
// the order and announces it.
//
// Prices always come from the catalog, never from the caller.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]int64, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	byID := make(map[int64]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	products := make([]product.Product, 0, len(req.Items))
	couponItems := make([]coupon.Item, 0, len(req.Items))
	for _, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		products = append(products, p)
		couponItems = append(couponItems, coupon.Item{
			ProductID: item.ProductID,
			Price:     p.Price.Decimal(),
			Quantity:  item.Quantity,
		})
	}
	subtotal := coupon.Subtotal(couponItems)

	discount := decimal.Zero
	if req.CouponCode != "" {
		d, err := s.coupons.Validate(ctx, req.CouponCode, couponItems)
		if err != nil {
			return nil, errors.Wrap(err, "validate coupon")
		}
		discount = d.Amount
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	o := &Order{
		ID:         uuid.New().String(),
		Items:      req.Items,
		Subtotal:   subtotal.Round(2),
		Total:      total.Round(2),
		Discounts:  discount.Round(2),
		CouponCode: coupon.NormalizeCode(req.CouponCode),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		if req.CouponCode != "" {
			s.releaseCoupon(ctx, req.CouponCode)
		}
		return nil, errors.Wrap(err, "create order")
	}

	// The order is already stored, a lost event must not fail the request.
	if err := s.publisher.PublishOrderPlaced(ctx, o); err != nil {
		zctx.From(ctx).Warn("Order placed event not published",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}

	return &PlaceOrderResult{
		Order:    o,
		Products: products,
	}, nil
}

// releaseCoupon gives back the redemption of an order that was not stored.
func (s *Service) releaseCoupon(ctx context.Context, code string) {
	if err := s.coupons.Release(ctx, code); err != nil {
		zctx.From(ctx).Warn("Coupon redemption not released",
			zap.String("coupon", coupon.NormalizeCode(code)),
			zap.Error(err),
		)
	}
}

// Checkout places an order for the content of c and then removes the
// ordered quantities from the cart. Units added while the order was being
// placed stay in the cart. A failed checkout leaves the cart untouched.
func (s *Service) Checkout(ctx context.Context, c *cart.Store, couponCode string) (*PlaceOrderResult, error) {
	lines := c.Items()
	items := make([]Item, len(lines))
	for i, l := range lines {
		items[i] = Item{ProductID: l.Product.ID, Quantity: l.Quantity}
	}

	res, err := s.PlaceOrder(ctx, PlaceOrderRequest{Items: items, CouponCode: couponCode})
	if err != nil {
		return nil, err
	}
	c.Subtract(ctx, lines)
	return res, nil
}
