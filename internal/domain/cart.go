// Package domain defines the core types shared across the cart engine.
package domain

import (
	"fmt"
	"math"
	"time"
)

// Price is a single price entry on a product, as published in the product
// descriptor. Role-restricted entries only apply to logged-in users.
type Price struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Money is a computed currency amount, carried both as a 2-decimal display
// string and as integer cents. Never hand-construct one except through
// FromCents.
type Money struct {
	Amount   string `json:"amount"`
	Cents    int64  `json:"cents"`
	Currency string `json:"currency"`
}

// FromCents builds a Money from a possibly fractional cents figure. The
// figure is rounded to whole cents once, half-cent ties away from zero, and
// both representations are derived from that rounded value.
func FromCents(cents float64, currency string) Money {
	rounded := math.Round(cents)
	return Money{
		Amount:   fmt.Sprintf("%.2f", rounded/100),
		Cents:    int64(rounded),
		Currency: currency,
	}
}

// LineItem is a product/quantity pairing in the cart, keyed by SKU.
type LineItem struct {
	SKU         string                 `json:"sku"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Prices      []Price                `json:"prices"`
	Quantity    int                    `json:"quantity"`
	Type        string                 `json:"type,omitempty"`
	VAT         string                 `json:"vat,omitempty"`
	Path        string                 `json:"path,omitempty"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
}

// TaxRule maps product types sold into given countries to a tax percentage.
// Rules are scanned in order; the first match wins.
type TaxRule struct {
	ProductTypes []string `json:"product_types"`
	Countries    []string `json:"countries"`
	Percentage   float64  `json:"percentage"`
}

// AppliesTo reports whether the rule covers the given product type and
// billing country.
func (r TaxRule) AppliesTo(productType, country string) bool {
	return contains(r.ProductTypes, productType) && contains(r.Countries, country)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Settings is the site's business settings document, replaced wholesale on
// every refresh. FetchedAt drives the staleness check.
type Settings struct {
	Taxes     []TaxRule `json:"taxes"`
	FetchedAt time.Time `json:"fetched_at"`
}

// CartItem is a line item resolved against the current currency and tax
// rules: the chosen price entry plus its computed tax.
type CartItem struct {
	LineItem
	Price Price `json:"price"`
	Tax   Money `json:"tax"`
}

// Cart is a pure projection of the line items, settings, currency, country,
// VAT validity and user. It is recomputed on every read, never mutated.
type Cart struct {
	Subtotal Money               `json:"subtotal"`
	Taxes    Money               `json:"taxes"`
	Total    Money               `json:"total"`
	Items    map[string]CartItem `json:"items"`
}

// PersistedCart is the single JSON blob written to storage. Version 0 is the
// legacy untagged schema and is accepted on load.
type PersistedCart struct {
	Version   int                  `json:"version"`
	LineItems map[string]*LineItem `json:"line_items"`
	Settings  *Settings            `json:"settings"`
}

// SchemaVersion is the version tag written on every save.
const SchemaVersion = 1

// User is the logged-in customer, as far as pricing cares: role-restricted
// prices apply when the user holds any role at all.
type User struct {
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
}

// HasAnyRole reports whether the user is present and holds at least one
// role. It deliberately does not check which role a price requires.
func (u *User) HasAnyRole() bool {
	return u != nil && len(u.Roles) > 0
}
