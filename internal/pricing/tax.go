package pricing

import (
	"strconv"

	"github.com/lilwayne470/gocommerce-js/internal/domain"
)

// ComputeTax calculates the tax Money for one line item at its resolved
// price. An explicit VAT percentage on the item wins over the rule table;
// otherwise the first rule matching the item's type and the billing country
// applies; otherwise the tax is zero.
//
// The pre-tax cent total truncates toward zero (not rounds); the resulting
// tax cents may be fractional and are rounded to the nearest cent only when
// formatted.
func ComputeTax(item *domain.LineItem, price *domain.Price, rules []domain.TaxRule, country, currency string) domain.Money {
	percentage, ok := taxPercentage(item, rules, country)
	if !ok {
		return domain.FromCents(0, currency)
	}

	amount, err := strconv.ParseFloat(price.Amount, 64)
	if err != nil {
		return domain.FromCents(0, currency)
	}
	cents := int64(amount * float64(item.Quantity) * 100)

	return domain.FromCents(float64(cents)*percentage/100, currency)
}

func taxPercentage(item *domain.LineItem, rules []domain.TaxRule, country string) (float64, bool) {
	if item.VAT != "" {
		pct, err := strconv.ParseFloat(item.VAT, 64)
		if err != nil {
			return 0, false
		}
		return pct, true
	}

	if len(rules) == 0 || country == "" || item.Type == "" {
		return 0, false
	}
	for _, rule := range rules {
		if rule.AppliesTo(item.Type, country) {
			return rule.Percentage, true
		}
	}
	return 0, false
}
