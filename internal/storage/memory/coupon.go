package memory

import (
	"context"
	"sync"

	"github.com/xenking/pueblos-cart/internal/domain/coupon"
)

var (
	_ coupon.Repository = (*CouponRepository)(nil)
	_ coupon.CodeLister = (*CouponRepository)(nil)
)

// CouponRepository keeps coupon rules and their redemption counters in memory.
type CouponRepository struct {
	mu    sync.Mutex
	rules map[string]coupon.Rule
}

// NewCouponRepository returns a repository holding rules.
func NewCouponRepository(rules []coupon.Rule) *CouponRepository {
	m := make(map[string]coupon.Rule, len(rules))
	for _, r := range rules {
		r.Code = coupon.NormalizeCode(r.Code)
		m[r.Code] = r
	}
	return &CouponRepository{rules: m}
}

// FindByCode implements coupon.Repository.
func (r *CouponRepository) FindByCode(_ context.Context, code string) (*coupon.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[coupon.NormalizeCode(code)]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return &rule, nil
}

// IncrementUses implements coupon.Repository.
func (r *CouponRepository) IncrementUses(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code = coupon.NormalizeCode(code)
	rule, ok := r.rules[code]
	if !ok {
		return coupon.ErrInvalidCoupon
	}
	if rule.MaxUses > 0 && rule.Uses >= rule.MaxUses {
		return coupon.ErrCouponUsageLimitReached
	}
	rule.Uses++
	r.rules[code] = rule
	return nil
}

// DecrementUses implements coupon.Repository. The counter never drops
// below zero.
func (r *CouponRepository) DecrementUses(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code = coupon.NormalizeCode(code)
	rule, ok := r.rules[code]
	if !ok {
		return coupon.ErrInvalidCoupon
	}
	if rule.Uses > 0 {
		rule.Uses--
		r.rules[code] = rule
	}
	return nil
}

// ListCodes implements coupon.CodeLister.
func (r *CouponRepository) ListCodes(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes := make([]string, 0, len(r.rules))
	for code := range r.rules {
		codes = append(codes, code)
	}
	return codes, nil
}
