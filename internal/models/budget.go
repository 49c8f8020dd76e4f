package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a monthly limit, one per (user, category).
type Budget struct {
	ID         uint            `gorm:"primaryKey"`
	UserID     uint            `gorm:"not null;uniqueIndex:idx_budget_user_category"`
	CategoryID string          `gorm:"size:64;not null;uniqueIndex:idx_budget_user_category"`
	Amount     decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Period     string          `gorm:"size:16;not null;default:monthly"`
	ChangedAt  int64           `gorm:"index;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
