package uow

import (
	"context"

	"btc-lending-backend/internal/domain/account"
	"btc-lending-backend/internal/domain/application"
	"btc-lending-backend/internal/domain/collateral"
	"btc-lending-backend/internal/domain/loan"
	"btc-lending-backend/internal/domain/transaction"
)

// Repos are bound to a single database transaction.
type Repos struct {
	Collaterals  collateral.Repository
	Applications application.Repository
	Loans        loan.Repository
	Transactions transaction.Repository
	Accounts     account.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
