// Package billing computes checkout quotes with GST applied.
package billing

import (
	"math"

	"github.com/shariastocks-in/backend/internal/models"
)

// TaxRate is the GST rate applied to every paid plan.
const TaxRate = 0.18

// Quote breaks a checkout amount into base price, tax, and total.
type Quote struct {
	BasePrice   float64
	TaxAmount   float64
	TotalAmount float64
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// QuoteFor computes the checkout quote for a plan and billing cycle.
func QuoteFor(plan *models.Plan, cycle models.BillingCycle) Quote {
	base := plan.PriceFor(cycle)
	return QuoteForPrice(base)
}

// QuoteForPrice computes the checkout quote for a raw base price.
func QuoteForPrice(base float64) Quote {
	return Quote{
		BasePrice:   Round2(base),
		TaxAmount:   Round2(base * TaxRate),
		TotalAmount: Round2(base * (1 + TaxRate)),
	}
}
