package models

import "time"

// PlanID identifies a subscription tier.
type PlanID string

// PlanID constants define the available tiers.
const (
	// PlanFree is the default tier with limited listings and no watchlist.
	PlanFree PlanID = "free"
	// PlanBasic is the entry paid tier.
	PlanBasic PlanID = "basic"
	// PlanPremium is the full-access paid tier.
	PlanPremium PlanID = "premium"
)

// ValidPlanID reports whether the plan identifier is known.
func ValidPlanID(p PlanID) bool {
	switch p {
	case PlanFree, PlanBasic, PlanPremium:
		return true
	default:
		return false
	}
}

// BillingCycle represents the subscription billing period.
type BillingCycle string

// BillingCycle constants define billing periods.
const (
	// BillingCycleMonthly renews every month.
	BillingCycleMonthly BillingCycle = "monthly"
	// BillingCycleAnnual renews every year.
	BillingCycleAnnual BillingCycle = "annual"
)

// ValidBillingCycle reports whether the billing cycle is known.
func ValidBillingCycle(c BillingCycle) bool {
	return c == BillingCycleMonthly || c == BillingCycleAnnual
}

// SubscriptionStatus represents the lifecycle state of a subscription.
type SubscriptionStatus string

// SubscriptionStatus constants define subscription lifecycle states.
const (
	// SubscriptionStatusInactive marks a user without a paid subscription.
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	// SubscriptionStatusActive marks a paid subscription inside its period.
	SubscriptionStatusActive SubscriptionStatus = "active"
	// SubscriptionStatusCancelling marks a cancelled subscription running out its period.
	SubscriptionStatusCancelling SubscriptionStatus = "cancelling"
	// SubscriptionStatusExpired marks a subscription past its period end.
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

// Subscription holds the per-user subscription state embedded in User.
type Subscription struct {
	Plan         PlanID             `gorm:"type:varchar(16);not null;default:'free'"`     // Current plan tier.
	BillingCycle BillingCycle       `gorm:"type:varchar(16)"`                             // Billing period, empty on free.
	Status       SubscriptionStatus `gorm:"type:varchar(16);not null;default:'inactive'"` // Lifecycle state.

	StartDate *time.Time // Current period start.
	EndDate   *time.Time // Current period end.

	AutoRenew bool `gorm:"not null;default:false"` // Whether the subscription renews automatically.

	FirstReminderSent  bool `gorm:"not null;default:false"` // 7-day renewal reminder sent.
	SecondReminderSent bool `gorm:"not null;default:false"` // 3-day renewal reminder sent.
	FinalReminderSent  bool `gorm:"not null;default:false"` // 1-day renewal reminder sent.

	CancellationReason   string     `gorm:"type:text"` // Reason selected on cancellation.
	CancellationFeedback string     `gorm:"type:text"` // Free-form cancellation feedback.
	CancelledAt          *time.Time // Cancellation request time.

	LastPaymentID string     `gorm:"type:varchar(64)"` // Payment ID of the latest charge.
	LastPaymentAt *time.Time // Time of the latest charge.
}

// ActiveAt reports whether the subscription grants paid access at the given time.
func (s Subscription) ActiveAt(now time.Time) bool {
	if s.Plan == PlanFree || s.Plan == "" {
		return false
	}
	if s.Status != SubscriptionStatusActive && s.Status != SubscriptionStatusCancelling {
		return false
	}
	return s.EndDate != nil && s.EndDate.After(now)
}

// EffectivePlan returns the plan whose entitlements currently apply. Lapsed
// and inactive subscriptions fall back to the free tier.
func (u *User) EffectivePlan() PlanID {
	if u.Subscription.ActiveAt(time.Now().UTC()) {
		return u.Subscription.Plan
	}
	return PlanFree
}

// User represents an end-user account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null"`             // Display name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	Verified bool `gorm:"not null;default:false"` // Email verification flag.

	Subscription Subscription `gorm:"embedded;embeddedPrefix:subscription_"` // Embedded subscription state.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
