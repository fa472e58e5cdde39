// Package settings fetches and caches the site's business settings (tax
// rules) with TTL-based staleness. Refresh is best effort: a failed fetch
// keeps whatever settings were loaded before.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/lilwayne470/gocommerce-js/internal/domain"
	"github.com/lilwayne470/gocommerce-js/internal/metrics"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshPeriod matches the original client's 600000ms.
const DefaultRefreshPeriod = 10 * time.Minute

// DefaultPath is where GoCommerce sites publish their settings document.
const DefaultPath = "/gocommerce/settings.json"

type Cache struct {
	url     string
	period  time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.Settings]
	sfg     singleflight.Group

	mu      sync.RWMutex
	current *domain.Settings
}

// New builds a cache fetching from url. A zero period means the settings
// never expire once loaded. A nil client falls back to http.DefaultClient.
func New(url string, period time.Duration, client *http.Client) *Cache {
	if client == nil {
		client = http.DefaultClient
	}
	return &Cache{
		url:    url,
		period: period,
		client: client,
		breaker: gobreaker.NewCircuitBreaker[*domain.Settings](gobreaker.Settings{
			Name:    "settings-fetch",
			Timeout: 30 * time.Second,
		}),
	}
}

// Current returns the settings as they stand, possibly nil or stale.
func (c *Cache) Current() *domain.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Restore seeds the cache from a persisted snapshot. The snapshot keeps its
// original fetch timestamp, so stale persisted settings refresh on the next
// EnsureFresh.
func (c *Cache) Restore(s *domain.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = s
}

// EnsureFresh returns settings that are loaded or confirmed fresh. On
// staleness it issues a single fetch (concurrent callers share it); fetch
// failures are swallowed and the previous settings stay in use.
func (c *Cache) EnsureFresh(ctx context.Context) *domain.Settings {
	if c.fresh() {
		return c.Current()
	}

	_, _, _ = c.sfg.Do("settings", func() (interface{}, error) {
		fetched, err := c.breaker.Execute(func() (*domain.Settings, error) {
			return c.fetch(ctx)
		})
		if err != nil {
			// Stale tax rules beat a blocked cart.
			log.Printf("settings refresh failed, keeping previous settings: %v", err)
			metrics.SettingsRefreshTotal.WithLabelValues("error").Inc()
			return nil, nil
		}
		metrics.SettingsRefreshTotal.WithLabelValues("ok").Inc()
		c.mu.Lock()
		c.current = fetched
		c.mu.Unlock()
		return nil, nil
	})

	return c.Current()
}

func (c *Cache) fresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return false
	}
	if c.period <= 0 {
		return true
	}
	return time.Since(c.current.FetchedAt) < c.period
}

func (c *Cache) fetch(ctx context.Context) (*domain.Settings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build settings request failed: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("settings fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("settings fetch returned status %d", resp.StatusCode)
	}

	var settings domain.Settings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return nil, fmt.Errorf("decode settings failed: %w", err)
	}
	settings.FetchedAt = time.Now()
	return &settings, nil
}
