// Package http exposes the cart engine over a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lilwayne470/gocommerce-js/internal/commerce"
	"github.com/lilwayne470/gocommerce-js/internal/domain"
	"github.com/lilwayne470/gocommerce-js/internal/pricing"
	"github.com/lilwayne470/gocommerce-js/internal/service"
)

// Engine is the slice of the cart engine the handlers consume.
type Engine interface {
	Cart(ctx context.Context) (*domain.Cart, error)
	AddToCart(ctx context.Context, params service.AddParams) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, sku string, quantity int) (*domain.Cart, error)
	ClearCart(ctx context.Context) (*domain.Cart, error)
	SetVatNumber(ctx context.Context, number string) (bool, error)
	Order(ctx context.Context, params service.OrderParams) (*commerce.Order, error)
	Payment(ctx context.Context, params service.PaymentParams) (*commerce.Transaction, error)
	PaypalPayment(ctx context.Context, paymentID string) (*commerce.Transaction, error)
	ClaimOrders(ctx context.Context) error
	OrderHistory(ctx context.Context) ([]commerce.Order, error)
}

type CartHandler struct {
	engine  Engine
	timeout time.Duration
}

func NewCartHandler(engine Engine, timeout time.Duration) *CartHandler {
	return &CartHandler{engine: engine, timeout: timeout}
}

type AddItemRequestDTO struct {
	Path     string                 `json:"path"`
	Quantity int                    `json:"quantity"`
	Meta     map[string]interface{} `json:"meta,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type VatNumberRequestDTO struct {
	VATNumber string `json:"vatnumber"`
}

type VatNumberResponseDTO struct {
	VATNumber string `json:"vatnumber"`
	Valid     bool   `json:"valid"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.engine.Cart(ctx)
	if err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.engine.AddToCart(ctx, service.AddParams{
		Path:     req.Path,
		Quantity: req.Quantity,
		Meta:     req.Meta,
	})
	if err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cart)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sku := chi.URLParam(r, "sku")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.engine.UpdateQuantity(ctx, sku, req.Quantity)
	if err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.engine.ClearCart(ctx)
	if err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) SetVatNumber(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req VatNumberRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	valid, err := h.engine.SetVatNumber(ctx, req.VATNumber)
	if err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, VatNumberResponseDTO{VATNumber: req.VATNumber, Valid: valid})
}

// handleEngineError maps engine errors to HTTP statuses: validation faults
// are 400, missing items 404, unpriceable carts 422, and upstream API
// failures keep their original status.
func handleEngineError(w http.ResponseWriter, err error) {
	var apiErr *commerce.APIError
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, pricing.ErrNoPrice):
		respondError(w, http.StatusUnprocessableEntity, "no_price", err.Error())
	case errors.Is(err, service.ErrNoPath),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrNoEmail),
		errors.Is(err, service.ErrNoShippingAddress),
		errors.Is(err, service.ErrNoOrderID),
		errors.Is(err, service.ErrNoAmount),
		errors.Is(err, service.ErrNoPaymentID),
		errors.Is(err, service.ErrNoPaymentProvider):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.As(err, &apiErr):
		respondError(w, apiErr.Status, "commerce_api_error", apiErr.Message)
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
