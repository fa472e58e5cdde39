// Package vat validates VAT numbers against the commerce API, memoizing
// results for the lifetime of the cache.
package vat

import (
	"context"
	"sync"

	"github.com/lilwayne470/gocommerce-js/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Lookup is the remote check, implemented by the commerce client.
type Lookup interface {
	VatNumberValid(ctx context.Context, number string) (bool, error)
}

// Cache memoizes validation results. Entries never expire or refresh;
// construct a fresh cache per session if that matters. The cache is an
// explicit object so several engine instances can share (or not share) one.
type Cache struct {
	mu    sync.RWMutex
	valid map[string]bool
}

func NewCache() *Cache {
	return &Cache{valid: make(map[string]bool)}
}

func (c *Cache) get(number string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.valid[number]
	return v, ok
}

func (c *Cache) set(number string, valid bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid[number] = valid
}

type Validator struct {
	cache  *Cache
	lookup Lookup
	sfg    singleflight.Group
}

func NewValidator(cache *Cache, lookup Lookup) *Validator {
	if cache == nil {
		cache = NewCache()
	}
	return &Validator{cache: cache, lookup: lookup}
}

// Verify reports whether the VAT number is valid. Empty numbers are invalid
// without a remote call; cached numbers return the memoized answer. A
// failed lookup returns the error and caches nothing.
func (v *Validator) Verify(ctx context.Context, number string) (bool, error) {
	if number == "" {
		return false, nil
	}
	if valid, ok := v.cache.get(number); ok {
		metrics.VatLookupsTotal.WithLabelValues("cached").Inc()
		return valid, nil
	}

	result, err, _ := v.sfg.Do(number, func() (interface{}, error) {
		valid, err := v.lookup.VatNumberValid(ctx, number)
		if err != nil {
			metrics.VatLookupsTotal.WithLabelValues("error").Inc()
			return false, err
		}
		if valid {
			metrics.VatLookupsTotal.WithLabelValues("valid").Inc()
		} else {
			metrics.VatLookupsTotal.WithLabelValues("invalid").Inc()
		}
		v.cache.set(number, valid)
		return valid, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}
