package database

import (
	"fmt"

	"github.com/KumarDhananjaya/Spendly/internal/models"

	"gorm.io/gorm"
)

// userOwned lists every synced table keyed by user_id, children first.
func userOwned() []any {
	return []any{
		&models.SyncLog{},
		&models.Budget{},
		&models.Expense{},
		&models.Category{},
	}
}

// AutoMigrate creates or updates the users table and every user-owned table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(append([]any{&models.User{}}, userOwned()...)...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// PurgeUser hard-deletes userID and all rows it owns. Run it inside a
// transaction; the first failure aborts.
func PurgeUser(tx *gorm.DB, userID uint) error {
	for _, m := range userOwned() {
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(m).Error; err != nil {
			return fmt.Errorf("purge %T: %w", m, err)
		}
	}
	if err := tx.Unscoped().Delete(&models.User{}, userID).Error; err != nil {
		return fmt.Errorf("purge user: %w", err)
	}
	return nil
}
