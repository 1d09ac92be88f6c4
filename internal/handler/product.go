package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/pueblos-cart/internal/domain/product"
)

type imageResponse struct {
	Thumbnail string `json:"thumbnail"`
	Desktop   string `json:"desktop"`
}

type productResponse struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Price    string        `json:"price"`
	Category string        `json:"category,omitempty"`
	Image    imageResponse `json:"image"`
}

// ListProducts returns every product in the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondInternal(w, r, "List products", err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = h.toProductResponse(p)
	}
	respondJSON(w, r, http.StatusOK, out)
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r)
	if !ok {
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "product not found")
			return
		}
		respondInternal(w, r, "Get product", err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.toProductResponse(*p))
}

// toProductResponse converts a domain product into its response form.
// Relative image paths are prefixed with the configured imageBaseURL.
func (h *Handler) toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		Name:     p.Name,
		Price:    money(p.Price.Decimal()),
		Category: p.Category,
		Image: imageResponse{
			Thumbnail: h.imageURL(p.Image.Thumbnail),
			Desktop:   h.imageURL(p.Image.Desktop),
		},
	}
}

func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
