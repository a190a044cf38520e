package models

import "time"

// Notification type constants.
const (
	// NotificationTypePayment confirms a successful payment.
	NotificationTypePayment = "payment"
	// NotificationTypeRenewal reminds about an upcoming renewal.
	NotificationTypeRenewal = "renewal"
	// NotificationTypeSubscription reports subscription state changes.
	NotificationTypeSubscription = "subscription"
)

// Notification represents an in-app message for a user.
type Notification struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Recipient user ID.
	User   User   `gorm:"foreignKey:UserID"` // Recipient user record.

	Type    string `gorm:"type:varchar(32);not null"`  // Notification category.
	Title   string `gorm:"type:varchar(255);not null"` // Short headline.
	Message string `gorm:"type:text"`                  // Full message body.

	Read bool `gorm:"not null;default:false"` // Whether the user has read it.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
