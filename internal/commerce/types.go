package commerce

import "github.com/lilwayne470/gocommerce-js/internal/domain"

// Address is passed through to the API as-is; the API owns field
// validation.
type Address struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Country   string `json:"country,omitempty"`
	Zip       string `json:"zip,omitempty"`
}

// OrderRequest is the POST /orders body. Either the address or its saved id
// is sent for shipping and billing.
type OrderRequest struct {
	Email             string                 `json:"email"`
	ShippingAddress   *Address               `json:"shipping_address,omitempty"`
	ShippingAddressID string                 `json:"shipping_address_id,omitempty"`
	BillingAddress    *Address               `json:"billing_address,omitempty"`
	BillingAddressID  string                 `json:"billing_address_id,omitempty"`
	VATNumber         string                 `json:"vatnumber,omitempty"`
	Currency          string                 `json:"currency"`
	Data              map[string]interface{} `json:"data,omitempty"`
	LineItems         []domain.LineItem      `json:"line_items"`
}

// Order is the API's order representation; only the fields the engine
// reads are decoded.
type Order struct {
	ID               string            `json:"id"`
	Email            string            `json:"email"`
	Currency         string            `json:"currency"`
	VATNumber        string            `json:"vatnumber,omitempty"`
	SubtotalPrice    int64             `json:"subtotal_price"`
	Taxes            int64             `json:"taxes"`
	TotalPrice       int64             `json:"total_price"`
	PaymentState     string            `json:"payment_state,omitempty"`
	FulfillmentState string            `json:"fulfillment_state,omitempty"`
	LineItems        []domain.LineItem `json:"line_items,omitempty"`
	CreatedAt        string            `json:"created_at,omitempty"`
}

// PaymentRequest is the POST /orders/{id}/payments body. Amount is in
// cents.
type PaymentRequest struct {
	Amount          int64  `json:"amount"`
	OrderID         string `json:"order_id"`
	Currency        string `json:"currency"`
	StripeToken     string `json:"stripe_token,omitempty"`
	PaypalPaymentID string `json:"paypal_payment_id,omitempty"`
	PaypalUserID    string `json:"paypal_user_id,omitempty"`
}

// Transaction is the API's payment representation.
type Transaction struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}
