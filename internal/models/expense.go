package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a synced non-transfer transaction. (UserID, ClientID) is the
// upsert key; the last processed write wins.
type Expense struct {
	ID         uint            `gorm:"primaryKey"`
	UserID     uint            `gorm:"not null;uniqueIndex:idx_expense_user_client;index:idx_expense_user_changed,priority:1"`
	ClientID   string          `gorm:"size:64;not null;uniqueIndex:idx_expense_user_client"`
	Type       string          `gorm:"size:16;not null"` // expense / earning
	Amount     decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	CategoryID string          `gorm:"size:64"`
	AccountID  string          `gorm:"size:64"`
	Note       string          `gorm:"size:512"`
	Source     string          `gorm:"size:16"` // MANUAL / SMS / UPI
	Recurring  bool
	SpentAt    int64 `gorm:"not null"` // client millis when the transaction happened

	ClientUpdatedAt int64 `gorm:"not null"`                                           // timestamp of the event that wrote this row
	ChangedAt       int64 `gorm:"not null;index:idx_expense_user_changed,priority:2"` // server millis of last write

	CreatedAt time.Time
	UpdatedAt time.Time
}
