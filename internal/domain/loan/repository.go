package loan

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetByChainLoanID(ctx context.Context, chainLoanID uint64) (*Loan, error)
	// Row-locking read for use inside a unit of work.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	ListByBorrower(ctx context.Context, borrowerID string) ([]Loan, error)
	ListByLender(ctx context.Context, lenderID string) ([]Loan, error)

	// Active loans whose next due date is strictly before cutoff.
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]Loan, error)

	CompareAndSetStatus(ctx context.Context, loanID string, from, to Status) (bool, error)
	// AdvanceDueDate moves next_due_date only if it still equals from.
	AdvanceDueDate(ctx context.Context, loanID string, from, to time.Time) (bool, error)
}
