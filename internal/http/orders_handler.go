package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lilwayne470/gocommerce-js/internal/commerce"
	"github.com/lilwayne470/gocommerce-js/internal/service"
)

type OrdersHandler struct {
	engine  Engine
	timeout time.Duration
}

func NewOrdersHandler(engine Engine, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{engine: engine, timeout: timeout}
}

type OrderRequestDTO struct {
	Email             string                 `json:"email"`
	ShippingAddress   *commerce.Address      `json:"shipping_address,omitempty"`
	ShippingAddressID string                 `json:"shipping_address_id,omitempty"`
	BillingAddress    *commerce.Address      `json:"billing_address,omitempty"`
	BillingAddressID  string                 `json:"billing_address_id,omitempty"`
	Data              map[string]interface{} `json:"data,omitempty"`
}

type PaymentRequestDTO struct {
	Amount          int64  `json:"amount"`
	StripeToken     string `json:"stripe_token,omitempty"`
	PaypalPaymentID string `json:"paypal_payment_id,omitempty"`
	PaypalUserID    string `json:"paypal_user_id,omitempty"`
}

func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req OrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.engine.Order(ctx, service.OrderParams{
		Email:             req.Email,
		ShippingAddress:   req.ShippingAddress,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddress:    req.BillingAddress,
		BillingAddressID:  req.BillingAddressID,
		Data:              req.Data,
	})
	if err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")

	var req PaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	tx, err := h.engine.Payment(ctx, service.PaymentParams{
		OrderID:         orderID,
		Amount:          req.Amount,
		StripeToken:     req.StripeToken,
		PaypalPaymentID: req.PaypalPaymentID,
		PaypalUserID:    req.PaypalUserID,
	})
	if err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tx)
}

func (h *OrdersHandler) PaypalPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tx, err := h.engine.PaypalPayment(ctx, chi.URLParam(r, "payment_id"))
	if err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (h *OrdersHandler) ClaimOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.engine.ClaimOrders(ctx); err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *OrdersHandler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.engine.OrderHistory(ctx)
	if err != nil {
		handleEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}
