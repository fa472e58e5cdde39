package service

import (
	"context"
	"log"

	"github.com/lilwayne470/gocommerce-js/internal/commerce"
	"github.com/lilwayne470/gocommerce-js/internal/domain"
	"github.com/lilwayne470/gocommerce-js/internal/metrics"
)

// OrderParams collects the checkout details. Email falls back to the
// logged-in user's email; billing defaults to shipping when absent.
type OrderParams struct {
	Email             string
	ShippingAddress   *commerce.Address
	ShippingAddressID string
	BillingAddress    *commerce.Address
	BillingAddressID  string
	Data              map[string]interface{}
}

// Order validates the details, submits the order and clears the cart on
// success. Validation failures return before any network call.
func (e *Engine) Order(ctx context.Context, params OrderParams) (*commerce.Order, error) {
	e.mu.Lock()
	email := params.Email
	if email == "" && e.user != nil {
		email = e.user.Email
	}
	vatNumber := e.vatNumber
	lineItems := make([]domain.LineItem, 0, len(e.items))
	for _, item := range e.items {
		lineItems = append(lineItems, *item)
	}
	e.mu.Unlock()

	if email == "" {
		return nil, ErrNoEmail
	}
	if params.ShippingAddress == nil && params.ShippingAddressID == "" {
		return nil, ErrNoShippingAddress
	}
	if params.BillingAddress == nil && params.BillingAddressID == "" {
		params.BillingAddress = params.ShippingAddress
		params.BillingAddressID = params.ShippingAddressID
	}

	order, err := e.api.CreateOrder(ctx, &commerce.OrderRequest{
		Email:             email,
		ShippingAddress:   params.ShippingAddress,
		ShippingAddressID: params.ShippingAddressID,
		BillingAddress:    params.BillingAddress,
		BillingAddressID:  params.BillingAddressID,
		VATNumber:         vatNumber,
		Currency:          e.currency,
		Data:              params.Data,
		LineItems:         lineItems,
	})
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.OrdersTotal.WithLabelValues("ok").Inc()

	// The order owns the items now; an empty cart is what the UI should
	// re-render with.
	if _, clearErr := e.ClearCart(ctx); clearErr != nil {
		log.Printf("order %s confirmed but clearing the cart failed: %v", order.ID, clearErr)
	}
	return order, nil
}

// PaymentParams identify the order and the payment provider. Amount is in
// cents and must match what the API expects for the order.
type PaymentParams struct {
	OrderID         string
	Amount          int64
	StripeToken     string
	PaypalPaymentID string
	PaypalUserID    string
}

func (p PaymentParams) provider() string {
	if p.StripeToken != "" {
		return "stripe"
	}
	return "paypal"
}

// Payment validates the details and submits the payment; no network call is
// made on validation failure.
func (e *Engine) Payment(ctx context.Context, params PaymentParams) (*commerce.Transaction, error) {
	if params.OrderID == "" {
		return nil, ErrNoOrderID
	}
	if params.Amount <= 0 {
		return nil, ErrNoAmount
	}
	hasStripe := params.StripeToken != ""
	hasPaypal := params.PaypalPaymentID != "" && params.PaypalUserID != ""
	if hasStripe == hasPaypal {
		return nil, ErrNoPaymentProvider
	}

	tx, err := e.api.CreatePayment(ctx, params.OrderID, &commerce.PaymentRequest{
		Amount:          params.Amount,
		OrderID:         params.OrderID,
		Currency:        e.currency,
		StripeToken:     params.StripeToken,
		PaypalPaymentID: params.PaypalPaymentID,
		PaypalUserID:    params.PaypalUserID,
	})
	if err != nil {
		metrics.PaymentsTotal.WithLabelValues(params.provider(), "error").Inc()
		return nil, err
	}
	metrics.PaymentsTotal.WithLabelValues(params.provider(), "ok").Inc()
	return tx, nil
}

// PaypalPayment fetches the state of a PayPal payment from the API.
func (e *Engine) PaypalPayment(ctx context.Context, paymentID string) (*commerce.Transaction, error) {
	if paymentID == "" {
		return nil, ErrNoPaymentID
	}
	return e.api.PaypalPayment(ctx, paymentID)
}

// ClaimOrders binds anonymous orders to the logged-in user.
func (e *Engine) ClaimOrders(ctx context.Context) error {
	return e.api.ClaimOrders(ctx)
}

// OrderHistory lists the logged-in user's past orders.
func (e *Engine) OrderHistory(ctx context.Context) ([]commerce.Order, error) {
	return e.api.OrderHistory(ctx)
}
