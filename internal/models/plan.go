package models

import (
	"time"

	"gorm.io/datatypes"
)

// Plan represents a subscription plan configuration.
type Plan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PlanID      PlanID `gorm:"type:varchar(16);not null;uniqueIndex"` // Stable plan identifier.
	Name        string `gorm:"type:varchar(255);not null"`            // Display name.
	Description string `gorm:"type:text"`                             // Plan description.

	MonthPrice  float64 `gorm:"type:decimal(10,2);not null;default:0"` // Monthly price in INR.
	AnnualPrice float64 `gorm:"type:decimal(10,2);not null;default:0"` // Annual price in INR.

	Features datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"` // Feature description list.

	WatchlistLimit     int `gorm:"not null;default:0"` // Max watchlist entries, 0 means none.
	MonthlySearchLimit int `gorm:"not null;default:0"` // Max searches per month, 0 means unlimited.
	HistoryMonths      int `gorm:"not null;default:0"` // Months of price history available.

	SortOrder int `gorm:"not null;default:0"` // Display ordering weight.

	IsEnabled bool `gorm:"not null;default:true"` // Whether the plan is purchasable.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// PriceFor returns the plan price for the billing cycle.
func (p *Plan) PriceFor(cycle BillingCycle) float64 {
	if cycle == BillingCycleAnnual {
		return p.AnnualPrice
	}
	return p.MonthPrice
}
