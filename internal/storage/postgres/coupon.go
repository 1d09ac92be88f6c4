package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pueblos-cart/internal/domain/coupon"
)

var (
	_ coupon.Repository = (*CouponRepository)(nil)
	_ coupon.CodeLister = (*CouponRepository)(nil)
)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon by its code, ignoring case.
// Returns coupon.ErrInvalidCoupon when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Rule, error) {
	var (
		rule         coupon.Rule
		discountType string
	)
	err := r.pool.QueryRow(ctx, `
SELECT code, discount_type, value, min_items, description,
       valid_from, valid_until, max_uses, uses, max_discount
FROM coupons
WHERE code = UPPER($1) AND active`, code).Scan(
		&rule.Code, &discountType, &rule.Value, &rule.MinItems, &rule.Description,
		&rule.ValidFrom, &rule.ValidUntil, &rule.MaxUses, &rule.Uses, &rule.MaxDiscount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	rule.DiscountType = coupon.DiscountType(discountType)
	return &rule, nil
}

// IncrementUses records one redemption. The usage limit is enforced in the
// same statement so concurrent checkouts cannot overshoot it.
func (r *CouponRepository) IncrementUses(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE coupons SET uses = uses + 1
WHERE code = UPPER($1) AND (max_uses = 0 OR uses < max_uses)`, code)
	if err != nil {
		return fmt.Errorf("incrementing coupon uses %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrCouponUsageLimitReached
	}
	return nil
}

// DecrementUses gives back one redemption, never going below zero.
func (r *CouponRepository) DecrementUses(ctx context.Context, code string) error {
	_, err := r.pool.Exec(ctx, `
UPDATE coupons SET uses = uses - 1
WHERE code = UPPER($1) AND uses > 0`, code)
	if err != nil {
		return fmt.Errorf("decrementing coupon uses %q: %w", code, err)
	}
	return nil
}

// ListCodes returns every active coupon code.
func (r *CouponRepository) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT code FROM coupons WHERE active`)
	if err != nil {
		return nil, fmt.Errorf("listing coupon codes: %w", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listing coupon codes: %w", err)
	}
	return codes, nil
}

// Upsert inserts or replaces coupon rules. Used by the seeder.
func (r *CouponRepository) Upsert(ctx context.Context, rules []coupon.Rule) error {
	batch := &pgx.Batch{}
	for _, c := range rules {
		batch.Queue(`
INSERT INTO coupons (code, discount_type, value, min_items, description,
                     valid_from, valid_until, max_uses, max_discount)
VALUES (UPPER($1), $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (code) DO UPDATE SET
    discount_type = EXCLUDED.discount_type,
    value = EXCLUDED.value,
    min_items = EXCLUDED.min_items,
    description = EXCLUDED.description,
    valid_from = EXCLUDED.valid_from,
    valid_until = EXCLUDED.valid_until,
    max_uses = EXCLUDED.max_uses,
    max_discount = EXCLUDED.max_discount`,
			c.Code, string(c.DiscountType), c.Value, c.MinItems, c.Description,
			c.ValidFrom, c.ValidUntil, c.MaxUses, c.MaxDiscount)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting coupons: %w", err)
	}
	return nil
}
