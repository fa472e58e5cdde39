package repository

import (
	"context"
	"testing"

	"github.com/lilwayne470/gocommerce-js/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_LoadBeforeSave(t *testing.T) {
	sut := NewMemoryRepository()

	cart, err := sut.Load(context.Background())
	require.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, cart)
}

func TestMemoryRepository_RoundTrip(t *testing.T) {
	sut := NewMemoryRepository()
	saved := &domain.PersistedCart{
		Version: domain.SchemaVersion,
		LineItems: map[string]*domain.LineItem{
			"A": {SKU: "A", Title: "Item A", Quantity: 2, Prices: []domain.Price{{Currency: "USD", Amount: "10.00"}}},
			"B": {SKU: "B", Title: "Item B", Quantity: 1, Prices: []domain.Price{{Currency: "USD", Amount: "5.00"}}},
		},
		Settings: &domain.Settings{Taxes: []domain.TaxRule{
			{ProductTypes: []string{"book"}, Countries: []string{"US"}, Percentage: 10},
		}},
	}

	require.NoError(t, sut.Save(context.Background(), saved))

	loaded, err := sut.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved.Version, loaded.Version)
	assert.Equal(t, saved.LineItems, loaded.LineItems)
	require.NotNil(t, loaded.Settings)
	assert.Equal(t, saved.Settings.Taxes, loaded.Settings.Taxes)
}

func TestMemoryRepository_Delete(t *testing.T) {
	sut := NewMemoryRepository()
	require.NoError(t, sut.Save(context.Background(), &domain.PersistedCart{Version: domain.SchemaVersion}))
	require.NoError(t, sut.Delete(context.Background()))

	_, err := sut.Load(context.Background())
	require.ErrorIs(t, err, ErrCartNotFound)
}
