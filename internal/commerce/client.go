// Package commerce is the HTTP client for the remote commerce API: orders,
// payments, VAT number validation and order claiming.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrNoAPIURL = errors.New("commerce API URL is required")

// TokenProvider supplies a Bearer token for authenticated endpoints. It is
// the boundary to the user/session collaborator; implementations may hit
// the network.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// APIError is a non-2xx response from the commerce API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("commerce API error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("commerce API error (%d)", e.Status)
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
}

// NewClient builds a client for the API at baseURL. Plain HTTP is allowed
// but warned about; tokens may be nil when no authenticated endpoint is
// used.
func NewClient(baseURL string, tokens TokenProvider) (*Client, error) {
	if baseURL == "" {
		return nil, ErrNoAPIURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid commerce API URL: %w", err)
	}
	if u.Scheme != "https" {
		log.Printf("WARNING: commerce API URL %q is not HTTPS - credentials and order data will travel in the clear", baseURL)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
		tokens: tokens,
	}, nil
}

// VatNumberValid checks a VAT number against the API.
func (c *Client) VatNumberValid(ctx context.Context, number string) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	err := c.do(ctx, http.MethodGet, "/vatnumbers/"+url.PathEscape(number), nil, false, &resp)
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// CreateOrder submits the order. Anonymous checkout is allowed, so no
// token is attached.
func (c *Client) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, false, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreatePayment submits a payment against an existing order.
func (c *Client) CreatePayment(ctx context.Context, orderID string, req *PaymentRequest) (*Transaction, error) {
	var tx Transaction
	path := "/orders/" + url.PathEscape(orderID) + "/payments"
	if err := c.do(ctx, http.MethodPost, path, req, false, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// PaypalPayment fetches the state of a PayPal payment.
func (c *Client) PaypalPayment(ctx context.Context, paymentID string) (*Transaction, error) {
	var tx Transaction
	if err := c.do(ctx, http.MethodGet, "/paypal/"+url.PathEscape(paymentID), nil, false, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// ClaimOrders binds orders placed anonymously with the user's email to the
// now logged-in user.
func (c *Client) ClaimOrders(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/claim", nil, true, nil)
}

// OrderHistory lists the logged-in user's orders.
func (c *Client) OrderHistory(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, true, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// do issues one request, exactly once, and decodes a JSON response into out
// when out is non-nil. Authenticated calls fetch a token first; there is no
// retry on any failure.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, authed bool, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	if authed {
		if c.tokens == nil {
			return errors.New("endpoint requires authentication but no token provider is configured")
		}
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("token fetch failed: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}
	return nil
}

// errorMessage extracts the API's {"msg": ...} body when present.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Msg != "" {
		return payload.Msg
	}
	return strings.TrimSpace(string(data))
}
