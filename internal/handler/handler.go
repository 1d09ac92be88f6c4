// Package handler serves the shop's HTTP API: the product catalog, the
// session cart and checkout.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/pueblos-cart/internal/domain/cart"
	"github.com/xenking/pueblos-cart/internal/domain/order"
	"github.com/xenking/pueblos-cart/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
	// Session configures the cart session cookie.
	Session SessionConfig
}

// Handler serves the API, delegating to the catalog, the cart manager and
// the order service.
type Handler struct {
	products     product.Repository
	carts        *cart.Manager
	orders       *order.Service
	validate     *validator.Validate
	imageBaseURL string
	session      SessionConfig
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products product.Repository,
	carts *cart.Manager,
	orders *order.Service,
) *Handler {
	return &Handler{
		products:     products,
		carts:        carts,
		orders:       orders,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		imageBaseURL: cfg.ImageBaseURL,
		session:      cfg.Session.withDefaults(),
	}
}

// Routes registers the API routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/product", h.ListProducts)
		r.Get("/product/{productId}", h.GetProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Use(Session(h.session))

			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Put("/items/{productId}", h.SetQuantity)
			r.Delete("/items/{productId}", h.RemoveItem)
			r.Post("/checkout", h.Checkout)
		})
	})
}

// Router returns a chi router serving only the API routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	h.Routes(r)
	return r
}
