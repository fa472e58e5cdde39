package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lilwayne470/gocommerce-js/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisRepository stores the cart blob under a single Redis key with no
// TTL; the cart lives until deleted.
type RedisRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRepository creates a Redis-backed repository. An empty key falls
// back to StorageKey; multi-tenant callers pass a per-user key instead.
func NewRedisRepository(client *redis.Client, key string) *RedisRepository {
	if key == "" {
		key = StorageKey
	}
	return &RedisRepository{client: client, key: key}
}

func (r *RedisRepository) Load(ctx context.Context) (*domain.PersistedCart, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.PersistedCart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}
	return &cart, nil
}

func (r *RedisRepository) Save(ctx context.Context, cart *domain.PersistedCart) error {
	blob, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if ret := r.client.Set(ctx, r.key, blob, 0); ret.Err() != nil {
		return fmt.Errorf("redis set failed: %w", ret.Err())
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
