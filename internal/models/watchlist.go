package models

import (
	"time"

	"gorm.io/datatypes"
)

// WatchlistEntry represents one tracked symbol on a user's watchlist.
type WatchlistEntry struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex:idx_watchlist_user_symbol"` // Owning user ID.
	User   User   `gorm:"foreignKey:UserID"`                              // Owning user record.

	Symbol      string `gorm:"type:varchar(32);not null;uniqueIndex:idx_watchlist_user_symbol"` // Tracked ticker symbol.
	CompanyName string `gorm:"type:varchar(255)"`                                               // Company name snapshot.

	StockData datatypes.JSON `gorm:"type:jsonb"` // Snapshot of stock details at add time.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
