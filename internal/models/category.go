package models

import "time"

// Category is a user's synced category, keyed by the client-assigned id.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_category_user_client"`
	ClientID  string `gorm:"size:64;not null;uniqueIndex:idx_category_user_client"`
	Name      string `gorm:"size:64;not null"`
	Icon      string `gorm:"size:64"`
	Color     string `gorm:"size:16"`
	Type      string `gorm:"size:16;not null"` // expense / earning
	ChangedAt int64  `gorm:"index;not null"`   // server millis of last write
	CreatedAt time.Time
	UpdatedAt time.Time
}
