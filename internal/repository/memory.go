package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lilwayne470/gocommerce-js/internal/domain"
)

// MemoryRepository keeps the serialized cart in memory. Storing the
// marshaled bytes rather than the struct keeps load/save semantics
// identical to the remote backends.
type MemoryRepository struct {
	mu   sync.RWMutex
	blob []byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Load(_ context.Context) (*domain.PersistedCart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.blob == nil {
		return nil, ErrCartNotFound
	}
	var cart domain.PersistedCart
	if err := json.Unmarshal(m.blob, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func (m *MemoryRepository) Save(_ context.Context, cart *domain.PersistedCart) error {
	blob, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = blob
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = nil
	return nil
}
