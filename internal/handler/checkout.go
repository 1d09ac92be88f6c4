package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/pueblos-cart/internal/domain/coupon"
	"github.com/xenking/pueblos-cart/internal/domain/order"
)

type checkoutRequest struct {
	CouponCode string `json:"couponCode" validate:"omitempty,max=32,alphanum"`
}

type orderItemResponse struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	Items      []orderItemResponse `json:"items"`
	Products   []productResponse   `json:"products"`
	Subtotal   string              `json:"subtotal"`
	Discounts  string              `json:"discounts"`
	Total      string              `json:"total"`
	CouponCode string              `json:"couponCode,omitempty"`
}

// Checkout places an order for the session cart and empties it.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if r.ContentLength != 0 {
		if !h.decodeBody(w, r, &req) {
			return
		}
	}

	c, release, ok := h.openCart(w, r)
	if !ok {
		return
	}
	defer release()

	result, err := h.orders.Checkout(r.Context(), c, req.CouponCode)
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}

	o := result.Order
	resp := orderResponse{
		ID:         o.ID,
		Items:      make([]orderItemResponse, len(o.Items)),
		Products:   make([]productResponse, len(result.Products)),
		Subtotal:   money(o.Subtotal),
		Discounts:  money(o.Discounts),
		Total:      money(o.Total),
		CouponCode: o.CouponCode,
	}
	for i, it := range o.Items {
		resp.Items[i] = orderItemResponse{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	for i, p := range result.Products {
		resp.Products[i] = h.toProductResponse(p)
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// respondOrderError converts domain errors to API error responses.
func (h *Handler) respondOrderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, order.ErrEmptyItems) {
		respondError(w, r, http.StatusBadRequest, "cart is empty")
		return
	}

	var iqErr *order.InvalidQuantityError
	if errors.As(err, &iqErr) {
		respondError(w, r, http.StatusUnprocessableEntity, iqErr.Error())
		return
	}

	var pnfErr *order.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		respondError(w, r, http.StatusUnprocessableEntity, pnfErr.Error())
		return
	}

	switch {
	case errors.Is(err, coupon.ErrInvalidCoupon):
		respondError(w, r, http.StatusUnprocessableEntity, "invalid coupon code")
	case errors.Is(err, coupon.ErrCouponExpired):
		respondError(w, r, http.StatusUnprocessableEntity, "coupon expired")
	case errors.Is(err, coupon.ErrCouponUsageLimitReached):
		respondError(w, r, http.StatusUnprocessableEntity, "coupon usage limit reached")
	default:
		respondInternal(w, r, "Checkout", err)
	}
}
