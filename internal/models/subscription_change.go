package models

import "time"

// Subscription change reasons.
const (
	// ChangeReasonPayment records a first purchase or renewal.
	ChangeReasonPayment = "payment"
	// ChangeReasonUpgrade records a plan or cycle switch.
	ChangeReasonUpgrade = "upgrade"
	// ChangeReasonCancel records a cancellation request.
	ChangeReasonCancel = "cancel"
	// ChangeReasonExpiry records an automatic downgrade at period end.
	ChangeReasonExpiry = "expiry"
)

// SubscriptionChangeLog records one subscription state transition.
type SubscriptionChangeLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Affected user ID.
	User   User   `gorm:"foreignKey:UserID"` // Affected user record.

	FromPlan  PlanID       `gorm:"type:varchar(16)"` // Plan before the change.
	ToPlan    PlanID       `gorm:"type:varchar(16)"` // Plan after the change.
	FromCycle BillingCycle `gorm:"type:varchar(16)"` // Cycle before the change.
	ToCycle   BillingCycle `gorm:"type:varchar(16)"` // Cycle after the change.

	Reason        string `gorm:"type:varchar(32);not null"` // Change trigger.
	TransactionID string `gorm:"type:varchar(64)"`          // Related transaction, when payment-driven.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
