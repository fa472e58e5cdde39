package repository

import (
	"context"
	"errors"

	"github.com/lilwayne470/gocommerce-js/internal/domain"
)

// StorageKey is the fixed key the cart blob lives under, kept identical to
// the original client so existing carts survive.
const StorageKey = "gocommerce.shopping-cart"

var ErrCartNotFound = errors.New("cart not found")

// CartRepository persists the whole cart as one JSON blob under one key.
// Load returns ErrCartNotFound when nothing was ever saved; a blob that
// fails to decode is an error, not an empty cart.
type CartRepository interface {
	Load(ctx context.Context) (*domain.PersistedCart, error)
	Save(ctx context.Context, cart *domain.PersistedCart) error
	Delete(ctx context.Context) error
}
