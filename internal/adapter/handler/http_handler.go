package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

// CartStore is the cart surface the handlers drive.
type CartStore interface {
	Cart() domain.Cart
	AddProduct(ctx context.Context, productID int64) (domain.Cart, error)
	RemoveProduct(ctx context.Context, productID int64) (domain.Cart, error)
	UpdateProductAmount(ctx context.Context, productID int64, amount int) (domain.Cart, error)
}

type HTTPHandler struct {
	cart     CartStore
	validate *validator.Validate
	logger   *slog.Logger
}

type UpdateAmountRequest struct {
	Amount *int `json:"amount" validate:"required"`
}

func NewHTTPHandler(cart CartStore, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{
		cart:     cart,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// Router builds the chi router with the request middleware stack.
func (h *HTTPHandler) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(StructuredLogger(h.logger))
	r.Use(Recoverer(h.logger))
	h.RegisterRoutes(r)
	return r
}

func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Route("/items/{id}", func(r chi.Router) {
			r.Post("/", h.AddProduct)
			r.Put("/", h.UpdateProductAmount)
			r.Delete("/", h.RemoveProduct)
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, newCartResponse(h.cart.Cart()))
}

func (h *HTTPHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	cart, err := h.cart.AddProduct(r.Context(), id)
	h.respondCart(w, r, cart, err)
}

func (h *HTTPHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	cart, err := h.cart.RemoveProduct(r.Context(), id)
	h.respondCart(w, r, cart, err)
}

func (h *HTTPHandler) UpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req UpdateAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			respondError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("field %s is %s", vErrs[0].Field(), vErrs[0].Tag()))
			return
		}
		respondError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.cart.UpdateProductAmount(r.Context(), id, *req.Amount)
	h.respondCart(w, r, cart, err)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Invalid product ID: %s", raw))
		return 0, false
	}
	return id, true
}

func (h *HTTPHandler) respondCart(w http.ResponseWriter, r *http.Request, cart domain.Cart, err error) {
	if err != nil {
		status, message := failure(err)
		if status >= http.StatusInternalServerError {
			h.logger.WarnContext(r.Context(), "Cart operation failed", "error", err)
		}
		respondError(w, h.logger, status, message)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, newCartResponse(cart))
}
