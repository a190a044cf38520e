package models

import "time"

// TransactionStatus represents the lifecycle state of a checkout transaction.
type TransactionStatus string

// TransactionStatus constants define transaction lifecycle states.
const (
	// TransactionStatusPending marks a negotiated transaction awaiting payment.
	TransactionStatusPending TransactionStatus = "pending"
	// TransactionStatusCompleted marks a paid transaction.
	TransactionStatusCompleted TransactionStatus = "completed"
	// TransactionStatusFailed marks a transaction whose charge was declined.
	TransactionStatusFailed TransactionStatus = "failed"
	// TransactionStatusCancelled marks a voided transaction.
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// PaymentMethod constants define accepted payment instruments.
const (
	// PaymentMethodCard pays by debit or credit card.
	PaymentMethodCard = "card"
	// PaymentMethodUPI pays by UPI handle.
	PaymentMethodUPI = "upi"
)

// Transaction records one checkout attempt from negotiation through payment.
type Transaction struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	TransactionID string `gorm:"type:varchar(64);not null;uniqueIndex"` // Public transaction identifier.

	UserID uint64 `gorm:"not null;index"`    // Owning user ID.
	User   User   `gorm:"foreignKey:UserID"` // Owning user record.

	Plan         PlanID       `gorm:"type:varchar(16);not null"` // Purchased plan tier.
	BillingCycle BillingCycle `gorm:"type:varchar(16);not null"` // Purchased billing cycle.

	BaseAmount  float64 `gorm:"type:decimal(10,2);not null;default:0"` // Plan price before tax.
	TaxAmount   float64 `gorm:"type:decimal(10,2);not null;default:0"` // GST amount.
	TotalAmount float64 `gorm:"type:decimal(10,2);not null;default:0"` // Charged amount.
	Currency    string  `gorm:"type:varchar(8);not null;default:'INR'"` // Currency code.

	Status TransactionStatus `gorm:"type:varchar(16);not null;default:'pending'"` // Current transaction status.

	IsUpgrade    bool   `gorm:"not null;default:false"` // Whether this replaces an active subscription.
	PreviousPlan PlanID `gorm:"type:varchar(16)"`       // Plan held before an upgrade.

	PaymentMethod string `gorm:"type:varchar(16)"` // Instrument used to pay.
	CardBrand     string `gorm:"type:varchar(32)"` // Card brand, card payments only.
	CardLast4     string `gorm:"type:varchar(4)"`  // Last four card digits.
	UPIID         string `gorm:"type:varchar(255)"` // UPI handle, UPI payments only.

	PaymentID   string `gorm:"type:varchar(64)"` // Gateway payment identifier.
	Description string `gorm:"type:text"`        // Human-readable purchase summary.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
