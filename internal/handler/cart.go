package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pueblos-cart/internal/domain/cart"
	"github.com/xenking/pueblos-cart/internal/domain/product"
)

type addItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	// Quantity defaults to one unit when omitted.
	Quantity *int `json:"quantity" validate:"omitempty,lte=99"`
}

type setQuantityRequest struct {
	// Zero or less removes the line.
	Quantity *int `json:"quantity" validate:"required,lte=99"`
}

type lineResponse struct {
	Product   productResponse `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal string          `json:"lineTotal"`
}

type cartResponse struct {
	Items     []lineResponse `json:"items"`
	Total     string         `json:"total"`
	ItemCount int            `json:"itemCount"`
	Version   uint64         `json:"version"`
}

// GetCart returns the session cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, release, ok := h.openCart(w, r)
	if !ok {
		return
	}
	defer release()
	respondJSON(w, r, http.StatusOK, h.toCartResponse(c.Snapshot()))
}

// AddItem adds units of a catalog product to the session cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "product not found")
			return
		}
		respondInternal(w, r, "Get product", err)
		return
	}

	c, release, ok := h.openCart(w, r)
	if !ok {
		return
	}
	defer release()
	if err := c.Add(r.Context(), *p, qty); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondJSON(w, r, http.StatusOK, h.toCartResponse(c.Snapshot()))
}

// SetQuantity replaces the quantity of a product already in the cart.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}
	var req setQuantityRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	c, release, ok := h.openCart(w, r)
	if !ok {
		return
	}
	defer release()
	if !c.SetQuantity(r.Context(), id, *req.Quantity) {
		respondError(w, r, http.StatusNotFound, "product not in cart")
		return
	}
	respondJSON(w, r, http.StatusOK, h.toCartResponse(c.Snapshot()))
}

// RemoveItem drops a product from the cart. Removing an absent product
// succeeds and leaves the cart as is.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}
	c, release, ok := h.openCart(w, r)
	if !ok {
		return
	}
	defer release()
	c.Remove(r.Context(), id)
	respondJSON(w, r, http.StatusOK, h.toCartResponse(c.Snapshot()))
}

// ClearCart empties the session cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, release, ok := h.openCart(w, r)
	if !ok {
		return
	}
	defer release()
	c.Clear(r.Context())
	respondJSON(w, r, http.StatusOK, h.toCartResponse(c.Snapshot()))
}

// openCart pins the session cart in memory until release is called.
func (h *Handler) openCart(w http.ResponseWriter, r *http.Request) (*cart.Store, func(), bool) {
	c, release, err := h.carts.Acquire(r.Context(), SessionFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, cart.ErrEmptySession) {
			respondError(w, r, http.StatusBadRequest, "missing cart session")
			return nil, nil, false
		}
		respondInternal(w, r, "Open cart", err)
		return nil, nil, false
	}
	return c, release, true
}

// toCartResponse renders a snapshot. Totals are computed from the snapshot
// itself so they always match the listed lines.
func (h *Handler) toCartResponse(snap cart.Snapshot) cartResponse {
	resp := cartResponse{
		Items:   make([]lineResponse, len(snap.Items)),
		Version: snap.Version,
	}
	total := decimal.Zero
	for i, it := range snap.Items {
		lt := it.Total()
		total = total.Add(lt)
		resp.ItemCount += it.Quantity
		resp.Items[i] = lineResponse{
			Product:   h.toProductResponse(it.Product),
			Quantity:  it.Quantity,
			LineTotal: money(lt),
		}
	}
	resp.Total = money(total)
	return resp
}

// money formats an amount with two decimals.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
