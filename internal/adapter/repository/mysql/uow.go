package mysql

import (
	"context"

	"btc-lending-backend/internal/domain/loan"
	"btc-lending-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

// Repos binds every repository to db outside of a transaction.
func Repos(db *gorm.DB) uow.Repos { return reposFor(db) }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Collaterals:  &CollateralRepository{db: tx},
		Applications: &ApplicationRepository{db: tx},
		Loans:        &LoanRepository{db: tx},
		Transactions: &TransactionRepository{db: tx},
		Accounts:     &AccountRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}

