package models

import (
	"github.com/shopspring/decimal"
)

// CreditPackage describes one purchasable bundle. During the free launch
// period only the zero-priced launch special is offered, the catalog shape is
// kept so the storefront does not change when payments go live.
type CreditPackage struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Credits      int64           `json:"credits"`
	PriceCents   int64           `json:"price_cents"`
	PriceDisplay string          `json:"price_display"`
	PerCredit    decimal.Decimal `json:"per_credit"`
	Badge        string          `json:"badge,omitempty"`
	Color        string          `json:"color,omitempty"`
}

// PerCreditPrice is the dollar price of a single credit within the package.
func PerCreditPrice(priceCents int64, credits int64) decimal.Decimal {
	if credits == 0 {
		return decimal.Zero
	}
	cents := decimal.NewFromInt(priceCents)
	return cents.Div(decimal.NewFromInt(credits)).Div(decimal.NewFromInt(100)).Round(4)
}
