// Package pricing implements the pure cart computations: price resolution,
// tax calculation and cart aggregation.
package pricing

import (
	"strconv"
	"strings"

	"github.com/lilwayne470/gocommerce-js/internal/domain"
)

// DefaultCurrency is assumed for price entries that carry no currency code.
const DefaultCurrency = "USD"

// ResolvePrice picks the applicable price entry for the target currency:
// the cheapest entry in that currency the user may see. Role-restricted
// entries are skipped unless the user holds any role. Returns nil when no
// entry matches; callers must treat that as an unpriceable item, not a
// zero price.
func ResolvePrice(prices []domain.Price, currency string, user *domain.User) *domain.Price {
	var found *domain.Price
	var foundAmount float64

	for i := range prices {
		p := &prices[i]

		code := p.Currency
		if code == "" {
			code = DefaultCurrency
		}
		if !strings.EqualFold(code, currency) {
			continue
		}
		if p.Role != "" && !user.HasAnyRole() {
			continue
		}

		amount, err := strconv.ParseFloat(p.Amount, 64)
		if err != nil {
			continue
		}
		// Strictly-less keeps the earliest entry on ties.
		if found == nil || amount < foundAmount {
			found = p
			foundAmount = amount
		}
	}

	return found
}
