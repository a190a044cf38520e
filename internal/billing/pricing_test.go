package billing

import (
	"testing"

	"github.com/shariastocks-in/backend/internal/models"
)

func TestQuoteFor_AllPlanCyclePairs(t *testing.T) {
	basic := &models.Plan{PlanID: models.PlanBasic, MonthPrice: 299, AnnualPrice: 3048}
	premium := &models.Plan{PlanID: models.PlanPremium, MonthPrice: 599, AnnualPrice: 6110}

	cases := []struct {
		name      string
		plan      *models.Plan
		cycle     models.BillingCycle
		wantBase  float64
		wantTax   float64
		wantTotal float64
	}{
		{"basic monthly", basic, models.BillingCycleMonthly, 299, 53.82, 352.82},
		{"basic annual", basic, models.BillingCycleAnnual, 3048, 548.64, 3596.64},
		{"premium monthly", premium, models.BillingCycleMonthly, 599, 107.82, 706.82},
		{"premium annual", premium, models.BillingCycleAnnual, 6110, 1099.8, 7209.8},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := QuoteFor(tc.plan, tc.cycle)
			if q.BasePrice != tc.wantBase {
				t.Fatalf("expected base %.2f, got %.2f", tc.wantBase, q.BasePrice)
			}
			if q.TaxAmount != tc.wantTax {
				t.Fatalf("expected tax %.2f, got %.2f", tc.wantTax, q.TaxAmount)
			}
			if q.TotalAmount != tc.wantTotal {
				t.Fatalf("expected total %.2f, got %.2f", tc.wantTotal, q.TotalAmount)
			}
			if got := Round2(q.BasePrice * (1 + TaxRate)); got != q.TotalAmount {
				t.Fatalf("total %.2f does not equal rounded base*1.18 %.2f", q.TotalAmount, got)
			}
		})
	}
}

func TestQuoteForPrice_FreePlan(t *testing.T) {
	q := QuoteForPrice(0)
	if q.BasePrice != 0 || q.TaxAmount != 0 || q.TotalAmount != 0 {
		t.Fatalf("expected zero quote, got %+v", q)
	}
}
