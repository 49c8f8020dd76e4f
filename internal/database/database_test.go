package database

import (
	"path/filepath"
	"testing"

	"github.com/KumarDhananjaya/Spendly/internal/config"
	"github.com/KumarDhananjaya/Spendly/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestInit_SQLiteAndMigrate(t *testing.T) {
	db, err := Init(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "sub", "test.db")})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close(db)

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, m := range []any{&models.User{}, &models.Expense{}, &models.Category{}, &models.Budget{}, &models.SyncLog{}} {
		if !db.Migrator().HasTable(m) {
			t.Errorf("table for %T missing", m)
		}
	}
	if !db.Migrator().HasIndex(&models.Expense{}, "idx_expense_user_client") {
		t.Error("expense upsert index missing")
	}
}

func TestInit_UnsupportedDriver(t *testing.T) {
	if _, err := Init(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Error("unsupported driver accepted")
	}
	if _, err := Init(config.DatabaseConfig{Driver: "postgres"}); err == nil {
		t.Error("postgres without dsn accepted")
	}
}

func TestPurgeUser(t *testing.T) {
	db, err := Init(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "purge.db")})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close(db)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	users := []models.User{{Email: "gone@example.com", PasswordHash: "x"}, {Email: "kept@example.com", PasswordHash: "x"}}
	if err := db.Create(&users).Error; err != nil {
		t.Fatal(err)
	}
	for _, u := range users {
		rows := []any{
			&models.Expense{UserID: u.ID, ClientID: "tx-1", Type: "expense", Amount: decimal.NewFromInt(5), SpentAt: 1, ClientUpdatedAt: 1, ChangedAt: 1},
			&models.Category{UserID: u.ID, ClientID: "c1", Name: "Pets", Type: "expense", ChangedAt: 1},
			&models.Budget{UserID: u.ID, CategoryID: "c1", Amount: decimal.NewFromInt(100), Period: "monthly", ChangedAt: 1},
			&models.SyncLog{UserID: u.ID, Received: 1},
		}
		for _, r := range rows {
			if err := db.Create(r).Error; err != nil {
				t.Fatalf("create %T: %v", r, err)
			}
		}
	}

	if err := db.Transaction(func(tx *gorm.DB) error { return PurgeUser(tx, users[0].ID) }); err != nil {
		t.Fatalf("PurgeUser: %v", err)
	}

	for _, m := range []any{&models.Expense{}, &models.Category{}, &models.Budget{}, &models.SyncLog{}} {
		var gone, kept int64
		db.Model(m).Where("user_id = ?", users[0].ID).Count(&gone)
		db.Model(m).Where("user_id = ?", users[1].ID).Count(&kept)
		if gone != 0 || kept != 1 {
			t.Errorf("%T: purged user has %d rows, other user %d", m, gone, kept)
		}
	}
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Errorf("users left = %d, want 1", count)
	}
}
