package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilwayne470/gocommerce-js/internal/commerce"
	"github.com/lilwayne470/gocommerce-js/internal/domain"
	"github.com/lilwayne470/gocommerce-js/internal/repository"
)

type mockAPI struct {
	mu           sync.Mutex
	orderReq     *commerce.OrderRequest
	paymentReq   *commerce.PaymentRequest
	order        *commerce.Order
	tx           *commerce.Transaction
	history      []commerce.Order
	err          error
	orderCalls   int
	paymentCalls int
}

func (m *mockAPI) CreateOrder(_ context.Context, req *commerce.OrderRequest) (*commerce.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderCalls++
	m.orderReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockAPI) CreatePayment(_ context.Context, _ string, req *commerce.PaymentRequest) (*commerce.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentCalls++
	m.paymentReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.tx, nil
}

func (m *mockAPI) PaypalPayment(context.Context, string) (*commerce.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tx, nil
}

func (m *mockAPI) ClaimOrders(context.Context) error { return m.err }

func (m *mockAPI) OrderHistory(context.Context) ([]commerce.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.history, nil
}

type mockProducts struct {
	items map[string]*domain.LineItem
	err   error
	calls int
}

func (m *mockProducts) Get(_ context.Context, path string) (*domain.LineItem, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	item, ok := m.items[path]
	if !ok {
		return nil, fmt.Errorf("product fetch for %q returned status 404", path)
	}
	cp := *item
	return &cp, nil
}

type mockSettings struct {
	mu      sync.Mutex
	current *domain.Settings
}

func (m *mockSettings) Current() *domain.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *mockSettings) Restore(s *domain.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
}

func (m *mockSettings) EnsureFresh(context.Context) *domain.Settings { return m.Current() }

type mockVat struct {
	valid bool
	err   error
}

func (m *mockVat) Verify(_ context.Context, number string) (bool, error) {
	if number == "" {
		return false, nil
	}
	return m.valid, m.err
}

func bookItem(sku string) *domain.LineItem {
	return &domain.LineItem{
		SKU:    sku,
		Title:  "Book " + sku,
		Type:   "book",
		Prices: []domain.Price{{Currency: "USD", Amount: "10.00"}},
	}
}

func newTestEngine(t *testing.T, repo repository.CartRepository, api *mockAPI, products *mockProducts) *Engine {
	t.Helper()
	if repo == nil {
		repo = repository.NewMemoryRepository()
	}
	if api == nil {
		api = &mockAPI{}
	}
	if products == nil {
		products = &mockProducts{items: map[string]*domain.LineItem{"/products/a": bookItem("A")}}
	}
	e, err := New(context.Background(), Config{Currency: "USD", Country: "US"}, repo, api, products, &mockSettings{}, &mockVat{valid: true})
	require.NoError(t, err)
	return e
}

func TestAddToCart_NewItem(t *testing.T) {
	sut := newTestEngine(t, nil, nil, nil)

	cart, err := sut.AddToCart(context.Background(), AddParams{Path: "/products/a", Quantity: 2})
	require.NoError(t, err)
	require.Contains(t, cart.Items, "A")
	assert.Equal(t, 2, cart.Items["A"].Quantity)
	assert.Equal(t, int64(2000), cart.Subtotal.Cents)
}

func TestAddToCart_SameSKUIncrementsQuantity(t *testing.T) {
	sut := newTestEngine(t, nil, nil, nil)

	_, err := sut.AddToCart(context.Background(), AddParams{Path: "/products/a", Quantity: 2})
	require.NoError(t, err)

	cart, err := sut.AddToCart(context.Background(), AddParams{Path: "/products/a", Quantity: 3})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items["A"].Quantity)
}

func TestAddToCart_DefaultQuantityIsOne(t *testing.T) {
	sut := newTestEngine(t, nil, nil, nil)

	cart, err := sut.AddToCart(context.Background(), AddParams{Path: "/products/a"})
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items["A"].Quantity)
}

func TestAddToCart_Validation(t *testing.T) {
	products := &mockProducts{items: map[string]*domain.LineItem{"/products/a": bookItem("A")}}
	sut := newTestEngine(t, nil, nil, products)

	_, err := sut.AddToCart(context.Background(), AddParams{})
	require.ErrorIs(t, err, ErrNoPath)

	_, err = sut.AddToCart(context.Background(), AddParams{Path: "/products/a", Quantity: -1})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	// Neither validation failure reached the product source.
	assert.Equal(t, 0, products.calls)
}

func TestUpdateQuantity_ZeroRemovesItem(t *testing.T) {
	sut := newTestEngine(t, nil, nil, nil)
	_, err := sut.AddToCart(context.Background(), AddParams{Path: "/products/a", Quantity: 2})
	require.NoError(t, err)

	cart, err := sut.UpdateQuantity(context.Background(), "A", 0)
	require.NoError(t, err)
	assert.NotContains(t, cart.Items, "A")
	assert.Equal(t, int64(0), cart.Total.Cents)
}

func TestUpdateQuantity_NegativeAlsoRemoves(t *testing.T) {
	sut := newTestEngine(t, nil, nil, nil)
	_, err := sut.AddToCart(context.Background(), AddParams{Path: "/products/a"})
	require.NoError(t, err)

	cart, err := sut.UpdateQuantity(context.Background(), "A", -3)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestUpdateQuantity_AbsentSKU(t *testing.T) {
	sut := newTestEngine(t, nil, nil, nil)

	_, err := sut.UpdateQuantity(context.Background(), "ghost", 2)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestCart_PersistsAndReloads(t *testing.T) {
	repo := repository.NewMemoryRepository()
	products := &mockProducts{items: map[string]*domain.LineItem{
		"/products/a": bookItem("A"),
		"/products/b": bookItem("B"),
	}}

	first := newTestEngine(t, repo, nil, products)
	_, err := first.AddToCart(context.Background(), AddParams{Path: "/products/a", Quantity: 2})
	require.NoError(t, err)
	_, err = first.AddToCart(context.Background(), AddParams{Path: "/products/b", Quantity: 1})
	require.NoError(t, err)

	// A new engine over the same repository sees the identical mapping.
	second := newTestEngine(t, repo, nil, products)
	cart, err := second.Cart(context.Background())
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 2, cart.Items["A"].Quantity)
	assert.Equal(t, 1, cart.Items["B"].Quantity)
}

func TestSetVatNumber_ZeroesTaxes(t *testing.T) {
	products := &mockProducts{items: map[string]*domain.LineItem{"/products/a": bookItem("A")}}
	products.items["/products/a"].VAT = "20"
	sut := newTestEngine(t, nil, nil, products)

	_, err := sut.AddToCart(context.Background(), AddParams{Path: "/products/a", Quantity: 2})
	require.NoError(t, err)

	cart, err := sut.Cart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(400), cart.Taxes.Cents)

	valid, err := sut.SetVatNumber(context.Background(), "DE123456789")
	require.NoError(t, err)
	assert.True(t, valid)

	cart, err = sut.Cart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), cart.Taxes.Cents)
	assert.Equal(t, "0.00", cart.Taxes.Amount)
	assert.Equal(t, cart.Subtotal.Cents, cart.Total.Cents)
}

func TestSetVatNumber_MockVatRespectsValidity(t *testing.T) {
	repo := repository.NewMemoryRepository()
	products := &mockProducts{items: map[string]*domain.LineItem{"/products/a": bookItem("A")}}
	e, err := New(context.Background(), Config{Currency: "USD"}, repo, &mockAPI{}, products, &mockSettings{}, &mockVat{valid: false})
	require.NoError(t, err)

	valid, err := e.SetVatNumber(context.Background(), "XX000")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestNew_RestoresPersistedSettings(t *testing.T) {
	repo := repository.NewMemoryRepository()
	saved := &domain.PersistedCart{
		Version:   domain.SchemaVersion,
		LineItems: map[string]*domain.LineItem{"A": bookItem("A")},
		Settings: &domain.Settings{Taxes: []domain.TaxRule{
			{ProductTypes: []string{"book"}, Countries: []string{"US"}, Percentage: 10},
		}},
	}
	saved.LineItems["A"].Quantity = 1
	require.NoError(t, repo.Save(context.Background(), saved))

	settings := &mockSettings{}
	e, err := New(context.Background(), Config{Currency: "USD", Country: "US"}, repo, &mockAPI{}, &mockProducts{}, settings, &mockVat{})
	require.NoError(t, err)

	require.NotNil(t, settings.Current())
	cart, err := e.Cart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), cart.Taxes.Cents)
}

func TestClearCart(t *testing.T) {
	sut := newTestEngine(t, nil, nil, nil)
	_, err := sut.AddToCart(context.Background(), AddParams{Path: "/products/a", Quantity: 2})
	require.NoError(t, err)

	cart, err := sut.ClearCart(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, int64(0), cart.Total.Cents)
}
