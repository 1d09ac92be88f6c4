// Package seed parses the JSON catalog and coupon files the shop is
// provisioned from.
package seed

import (
	"encoding/json"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pueblos-cart/internal/domain/coupon"
	"github.com/xenking/pueblos-cart/internal/domain/product"
)

type productJSON struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Price    product.Price `json:"price"`
	Category string        `json:"category"`
	Image    struct {
		Thumbnail string `json:"thumbnail"`
		Desktop   string `json:"desktop"`
	} `json:"image"`
}

type couponJSON struct {
	Code         string          `json:"code"`
	DiscountType string          `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
	MinItems     int             `json:"min_items"`
	Description  string          `json:"description"`
	ValidFrom    *time.Time      `json:"valid_from"`
	ValidUntil   *time.Time      `json:"valid_until"`
	MaxUses      int             `json:"max_uses"`
	MaxDiscount  decimal.Decimal `json:"max_discount"`
}

// ParseProducts decodes a JSON array of products.
func ParseProducts(data []byte) ([]product.Product, error) {
	var raw []productJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	seen := make(map[int64]struct{}, len(raw))
	products := make([]product.Product, 0, len(raw))
	for i, p := range raw {
		if p.ID <= 0 {
			return nil, errors.Errorf("product #%d: id must be greater than 0", i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, errors.Errorf("product %d: duplicate id", p.ID)
		}
		seen[p.ID] = struct{}{}

		products = append(products, product.Product{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Category: p.Category,
			Image: product.Image{
				Thumbnail: p.Image.Thumbnail,
				Desktop:   p.Image.Desktop,
			},
		})
	}
	return products, nil
}

// ParseCoupons decodes a JSON array of coupon rules. Codes are normalized.
func ParseCoupons(data []byte) ([]coupon.Rule, error) {
	var raw []couponJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse coupons JSON")
	}

	rules := make([]coupon.Rule, 0, len(raw))
	for _, c := range raw {
		code := coupon.NormalizeCode(c.Code)
		if code == "" {
			return nil, errors.New("coupon without code")
		}
		dt := coupon.DiscountType(c.DiscountType)
		if !dt.Valid() {
			return nil, errors.Errorf("coupon %s: unsupported discount type %q", code, c.DiscountType)
		}
		rules = append(rules, coupon.Rule{
			Code:         code,
			DiscountType: dt,
			Value:        c.Value,
			MinItems:     c.MinItems,
			Description:  c.Description,
			ValidFrom:    c.ValidFrom,
			ValidUntil:   c.ValidUntil,
			MaxUses:      c.MaxUses,
			MaxDiscount:  c.MaxDiscount,
		})
	}
	return rules, nil
}

// ReadProducts parses the products file at path.
func ReadProducts(path string) ([]product.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read products file")
	}
	return ParseProducts(data)
}

// ReadCoupons parses the coupons file at path.
func ReadCoupons(path string) ([]coupon.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read coupons file")
	}
	return ParseCoupons(data)
}
