// Package dbtest opens throwaway sqlite databases with the full schema for
// usecase tests that want real repositories.
package dbtest

import (
	"testing"

	repo "btc-lending-backend/internal/adapter/repository/mysql"
	"btc-lending-backend/internal/domain/account"
	"btc-lending-backend/internal/domain/uow"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns an in-memory sqlite DB. One connection keeps ":memory:"
// shared across goroutines and serializes writers like a row lock would.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(repo.Models()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func Repos(db *gorm.DB) uow.Repos { return repo.Repos(db) }

// SeedAccount stores a user with a wallet named after it.
func SeedAccount(t testing.TB, db *gorm.DB, userID string) *account.Account {
	t.Helper()
	a := &account.Account{
		UserID:        userID,
		WalletName:    "w-" + userID[:8],
		WalletAddress: "bcrt1q" + userID[:20],
		Role:          account.RoleUser,
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}
