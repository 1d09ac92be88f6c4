package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator turns a shopper-entered code into a discount for items.
type Validator interface {
	Validate(ctx context.Context, code string, items []Item) (*Discount, error)
	// Release returns the redemption taken by a successful Validate of code
	// when the order it was for could not be stored.
	Release(ctx context.Context, code string) error
}

// RepoValidator redeems codes stored in a Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator returns a RepoValidator reading rules from repo.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// usable reports why rule cannot be redeemed at now, or nil.
func (r *Rule) usable(now time.Time) error {
	switch {
	case r.ValidFrom != nil && now.Before(*r.ValidFrom),
		r.ValidUntil != nil && now.After(*r.ValidUntil):
		return ErrCouponExpired
	case r.MaxUses > 0 && r.Uses >= r.MaxUses:
		return ErrCouponUsageLimitReached
	}
	return nil
}

// Validate redeems code against items. The redemption is only counted once
// the discount could be computed; losing a race for the last redemption
// returns ErrCouponUsageLimitReached.
func (v *RepoValidator) Validate(ctx context.Context, code string, items []Item) (*Discount, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCoupon
	}

	rule, err := v.repo.FindByCode(ctx, code)
	switch {
	case errors.Is(err, ErrInvalidCoupon):
		return nil, ErrInvalidCoupon
	case err != nil:
		return nil, errors.Wrap(err, "lookup coupon")
	}
	if err := rule.usable(v.now()); err != nil {
		return nil, err
	}

	d, err := Apply(rule, items)
	if err != nil {
		return nil, err
	}

	switch err := v.repo.IncrementUses(ctx, code); {
	case errors.Is(err, ErrCouponUsageLimitReached):
		return nil, ErrCouponUsageLimitReached
	case err != nil:
		return nil, errors.Wrap(err, "increment coupon uses")
	}
	return &d, nil
}

// Release implements Validator.
func (v *RepoValidator) Release(ctx context.Context, code string) error {
	code = NormalizeCode(code)
	if code == "" {
		return nil
	}
	if err := v.repo.DecrementUses(ctx, code); err != nil {
		return errors.Wrap(err, "decrement coupon uses")
	}
	return nil
}
