// Package service implements the cart engine: the line-item store, cart
// aggregation, and order/payment orchestration against the commerce API.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/lilwayne470/gocommerce-js/internal/commerce"
	"github.com/lilwayne470/gocommerce-js/internal/domain"
	"github.com/lilwayne470/gocommerce-js/internal/metrics"
	"github.com/lilwayne470/gocommerce-js/internal/pricing"
	"github.com/lilwayne470/gocommerce-js/internal/repository"
)

// Config mirrors the original client's construction options. The settings
// refresh period lives on the settings cache, not here.
type Config struct {
	Currency string // default "USD"
	Country  string // billing country for rule-based taxes
}

// CommerceAPI is the slice of the commerce client the engine needs.
type CommerceAPI interface {
	CreateOrder(ctx context.Context, req *commerce.OrderRequest) (*commerce.Order, error)
	CreatePayment(ctx context.Context, orderID string, req *commerce.PaymentRequest) (*commerce.Transaction, error)
	PaypalPayment(ctx context.Context, paymentID string) (*commerce.Transaction, error)
	ClaimOrders(ctx context.Context) error
	OrderHistory(ctx context.Context) ([]commerce.Order, error)
}

// ProductSource resolves a site path to the product it describes.
type ProductSource interface {
	Get(ctx context.Context, path string) (*domain.LineItem, error)
}

// SettingsSource is the TTL'd settings cache.
type SettingsSource interface {
	Current() *domain.Settings
	Restore(*domain.Settings)
	EnsureFresh(ctx context.Context) *domain.Settings
}

// VatVerifier validates VAT numbers, memoizing results.
type VatVerifier interface {
	Verify(ctx context.Context, number string) (bool, error)
}

// Engine owns the line-item store and composes pricing, settings, VAT
// validation and persistence into the cart operations.
type Engine struct {
	currency string
	country  string

	repo     repository.CartRepository
	api      CommerceAPI
	products ProductSource
	settings SettingsSource
	vat      VatVerifier

	mu        sync.Mutex
	items     map[string]*domain.LineItem
	user      *domain.User
	vatNumber string
	vatValid  bool
}

// New builds an engine and eagerly loads any persisted cart, restoring the
// settings snapshot into the settings cache.
func New(ctx context.Context, cfg Config, repo repository.CartRepository, api CommerceAPI, products ProductSource, settings SettingsSource, vat VatVerifier) (*Engine, error) {
	if cfg.Currency == "" {
		cfg.Currency = pricing.DefaultCurrency
	}

	e := &Engine{
		currency: cfg.Currency,
		country:  cfg.Country,
		repo:     repo,
		api:      api,
		products: products,
		settings: settings,
		vat:      vat,
		items:    make(map[string]*domain.LineItem),
	}

	persisted, err := repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrCartNotFound) {
			return nil, fmt.Errorf("failed to load persisted cart: %w", err)
		}
		return e, nil
	}

	if persisted.LineItems != nil {
		e.items = persisted.LineItems
	}
	if persisted.Settings != nil {
		e.settings.Restore(persisted.Settings)
	}
	return e, nil
}

// SetUser attaches or clears the logged-in user. Pricing and authenticated
// endpoints react to it on the next call.
func (e *Engine) SetUser(u *domain.User) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.user = u
}

// Cart recomputes and returns the cart, refreshing stale settings first.
func (e *Engine) Cart(ctx context.Context) (*domain.Cart, error) {
	settings := e.settings.EnsureFresh(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.computeLocked(settings)
}

// computeLocked builds the cart projection. Callers hold e.mu.
func (e *Engine) computeLocked(settings *domain.Settings) (*domain.Cart, error) {
	cart, err := pricing.BuildCart(pricing.CartInput{
		Items:          e.items,
		Settings:       settings,
		Currency:       e.currency,
		Country:        e.country,
		User:           e.user,
		VATNumberValid: e.vatValid,
	})
	if err != nil {
		metrics.CartComputations.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.CartComputations.WithLabelValues("ok").Inc()
	return cart, nil
}

// AddParams identify the product page to add and how many units.
type AddParams struct {
	Path     string
	Quantity int
	Meta     map[string]interface{}
}

// AddToCart fetches the product at params.Path and merges it into the cart;
// an existing SKU has its quantity incremented. Returns the recomputed cart.
func (e *Engine) AddToCart(ctx context.Context, params AddParams) (*domain.Cart, error) {
	if params.Path == "" {
		return nil, ErrNoPath
	}
	quantity := params.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	item, err := e.products.Get(ctx, params.Path)
	if err != nil {
		return nil, err
	}

	settings := e.settings.EnsureFresh(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.items[item.SKU]; ok {
		existing.Quantity += quantity
	} else {
		item.Quantity = quantity
		item.Meta = params.Meta
		e.items[item.SKU] = item
	}

	if err := e.persistLocked(ctx); err != nil {
		return nil, err
	}
	return e.computeLocked(settings)
}

// UpdateQuantity sets the quantity for sku; zero or negative removes the
// item. Updating an absent SKU is ErrItemNotFound. Returns the recomputed
// cart.
func (e *Engine) UpdateQuantity(ctx context.Context, sku string, quantity int) (*domain.Cart, error) {
	settings := e.settings.EnsureFresh(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.items[sku]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, sku)
	}
	if quantity <= 0 {
		delete(e.items, sku)
	} else {
		e.items[sku].Quantity = quantity
	}

	if err := e.persistLocked(ctx); err != nil {
		return nil, err
	}
	return e.computeLocked(settings)
}

// ClearCart drops every line item and persists the empty cart.
func (e *Engine) ClearCart(ctx context.Context) (*domain.Cart, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = make(map[string]*domain.LineItem)
	if err := e.persistLocked(ctx); err != nil {
		return nil, err
	}
	return e.computeLocked(e.settings.Current())
}

// SetVatNumber verifies the number and records it for order submission and
// the aggregator's exemption rule. An empty number clears the exemption.
func (e *Engine) SetVatNumber(ctx context.Context, number string) (bool, error) {
	valid, err := e.vat.Verify(ctx, number)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.vatNumber = number
	e.vatValid = valid
	return valid, nil
}

// persistLocked writes the line items and settings snapshot as one blob.
// Callers hold e.mu.
func (e *Engine) persistLocked(ctx context.Context) error {
	err := e.repo.Save(ctx, &domain.PersistedCart{
		Version:   domain.SchemaVersion,
		LineItems: e.items,
		Settings:  e.settings.Current(),
	})
	if err != nil {
		log.Printf("cart persist failed: %v", err)
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}
