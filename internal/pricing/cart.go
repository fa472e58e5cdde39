package pricing

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lilwayne470/gocommerce-js/internal/domain"
)

// ErrNoPrice marks a line item that has no price entry for the cart's
// currency and user. Distinct from a zero-amount price.
var ErrNoPrice = errors.New("no price for item")

// CartInput is everything BuildCart projects from.
type CartInput struct {
	Items          map[string]*domain.LineItem
	Settings       *domain.Settings
	Currency       string
	Country        string
	User           *domain.User
	VATNumberValid bool
}

// BuildCart folds the line items into a fully recomputed Cart. It is a pure
// function of its inputs; callers persist or refresh settings beforehand.
//
// Subtotal cents accumulate as floats with no intermediate rounding. Tax
// cents re-parse each item's already-rounded 2-decimal tax amount rather
// than the raw figure; this loses sub-cent precision and is kept for
// compatibility with the original client. A valid VAT number on file zeroes
// the taxes entirely (reverse charge).
func BuildCart(in CartInput) (*domain.Cart, error) {
	var rules []domain.TaxRule
	if in.Settings != nil {
		rules = in.Settings.Taxes
	}

	var subtotalCents, taxCents float64
	items := make(map[string]domain.CartItem, len(in.Items))

	for sku, item := range in.Items {
		price := ResolvePrice(item.Prices, in.Currency, in.User)
		if price == nil {
			return nil, fmt.Errorf("%w: sku %q has no %s price", ErrNoPrice, sku, in.Currency)
		}
		tax := ComputeTax(item, price, rules, in.Country, in.Currency)

		amount, err := strconv.ParseFloat(price.Amount, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: sku %q amount %q", ErrNoPrice, sku, price.Amount)
		}
		subtotalCents += amount * float64(item.Quantity) * 100

		parsedTax, _ := strconv.ParseFloat(tax.Amount, 64)
		taxCents += parsedTax * 100

		items[sku] = domain.CartItem{LineItem: *item, Price: *price, Tax: tax}
	}

	subtotal := domain.FromCents(subtotalCents, in.Currency)
	taxes := domain.FromCents(taxCents, in.Currency)
	if in.VATNumberValid {
		taxes = domain.FromCents(0, in.Currency)
	}
	total := domain.FromCents(float64(subtotal.Cents+taxes.Cents), in.Currency)

	return &domain.Cart{
		Subtotal: subtotal,
		Taxes:    taxes,
		Total:    total,
		Items:    items,
	}, nil
}
