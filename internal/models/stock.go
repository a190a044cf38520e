package models

import "time"

// ComplianceStatus classifies a stock under the screening rules.
type ComplianceStatus string

// ComplianceStatus constants define screening outcomes.
const (
	// ComplianceHalal marks a stock that passes screening.
	ComplianceHalal ComplianceStatus = "halal"
	// ComplianceDoubtful marks a stock with mixed screening signals.
	ComplianceDoubtful ComplianceStatus = "doubtful"
	// ComplianceHaram marks a stock that fails screening.
	ComplianceHaram ComplianceStatus = "haram"
)

// Stock represents a screened equity record.
type Stock struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Symbol      string `gorm:"type:varchar(32);not null;uniqueIndex"` // Exchange ticker symbol.
	CompanyName string `gorm:"type:varchar(255);not null"`            // Registered company name.
	Sector      string `gorm:"type:varchar(128)"`                     // Industry sector.

	ComplianceStatus ComplianceStatus `gorm:"type:varchar(16);not null;index"`       // Screening outcome.
	ComplianceScore  float64          `gorm:"type:decimal(5,2);not null;default:0"`  // Screening score out of 100.

	TrendingRank int `gorm:"not null;default:0;index"` // Position on the trending list, 0 when absent.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
