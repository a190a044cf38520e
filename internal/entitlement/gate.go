// Package entitlement decides what a plan tier may see.
package entitlement

import "github.com/shariastocks-in/backend/internal/models"

// FreeVisibleRows is how many listing rows the free tier sees unblurred.
const FreeVisibleRows = 2

// Visibility classifies a listing row for the requesting user.
type Visibility string

// Visibility constants for listing rows.
const (
	// VisibilityVisible means the row is fully readable.
	VisibilityVisible Visibility = "visible"
	// VisibilityBlurred means the row is present but obscured.
	VisibilityBlurred Visibility = "blurred"
)

// Paid reports whether the plan is a paid tier.
func Paid(plan models.PlanID) bool {
	return plan == models.PlanBasic || plan == models.PlanPremium
}

// RowVisibility returns the visibility of the row at the given position.
// Positions are zero-based and ordered as the listing is served.
func RowVisibility(plan models.PlanID, index int) Visibility {
	if Paid(plan) {
		return VisibilityVisible
	}
	if index < FreeVisibleRows {
		return VisibilityVisible
	}
	return VisibilityBlurred
}

// CanAccessWatchlist reports whether the plan may use the watchlist.
func CanAccessWatchlist(plan models.PlanID) bool {
	return Paid(plan)
}
