package mysql

import (
	"context"

	"btc-lending-backend/internal/domain/account"
	"btc-lending-backend/internal/domain/application"
	"btc-lending-backend/internal/domain/collateral"
	"btc-lending-backend/internal/domain/loan"
	"btc-lending-backend/internal/domain/transaction"

	"gorm.io/gorm"
)

// Models lists every table owned by this service.
func Models() []any {
	return []any{
		&account.Account{},
		&collateral.Collateral{},
		&application.Application{},
		&loan.Loan{},
		&transaction.Transaction{},
	}
}

// Migrate creates or updates all tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(Models()...)
}
