package models

import "time"

// SyncLog records one sync request for auditing.
type SyncLog struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;not null"`
	Received    int    `gorm:"not null"`
	Applied     int    `gorm:"not null"`
	Failed      int    `gorm:"not null"`
	Returned    int    `gorm:"not null"`
	Watermark   int64  `gorm:"not null"`
	IP          string `gorm:"size:64"`
	FailuresEnc string `gorm:"size:4096"` // per-event errors, AES+base64 when a key is set
	CreatedAt   time.Time
}
