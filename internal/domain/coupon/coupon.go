package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed amount off, never more than the subtotal.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeLowest makes one unit of the cheapest product free.
	DiscountFreeLowest DiscountType = "free_lowest"
)

// Valid reports whether t is a supported discount type.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFixed, DiscountFreeLowest:
		return true
	}
	return false
}

var (
	// ErrInvalidCoupon is returned when a code is unknown or the cart does
	// not reach the coupon's minimum number of units.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponExpired is returned outside the coupon's validity window.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrCouponUsageLimitReached is returned once a coupon used up its redemptions.
	ErrCouponUsageLimitReached = errors.New("coupon usage limit reached")
)

// Rule defines a coupon's discount and its eligibility constraints.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinItems     int
	Description  string
	ValidFrom    *time.Time
	ValidUntil   *time.Time
	// MaxUses of zero means unlimited.
	MaxUses int
	Uses    int
	// MaxDiscount caps the discount when positive.
	MaxDiscount decimal.Decimal
}

// Discount is the computed reduction and a shopper-facing description.
type Discount struct {
	Amount      decimal.Decimal
	Description string
}

// Item is a cart line as seen by discount calculation.
type Item struct {
	ProductID int64
	Price     decimal.Decimal
	Quantity  int
}

// Repository provides lookup and redemption accounting of coupon rules.
// Lookups are case-insensitive.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
	IncrementUses(ctx context.Context, code string) error
	// DecrementUses gives back a redemption whose order was never stored.
	DecrementUses(ctx context.Context, code string) error
}

// CodeLister lists every active coupon code.
type CodeLister interface {
	ListCodes(ctx context.Context) ([]string, error)
}

// NormalizeCode returns the canonical form codes are stored and compared in.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
