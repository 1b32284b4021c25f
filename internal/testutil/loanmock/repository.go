package loanmock

import (
	"context"
	"time"

	domain "btc-lending-backend/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset functions delegate to Base when it is non-nil, otherwise they return
// context.Canceled.
type Repo struct {
	Base domain.Repository

	CreateFn               func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByChainLoanIDFn     func(ctx context.Context, chainLoanID uint64) (*domain.Loan, error)
	GetByLoanIDForUpdateFn func(ctx context.Context, loanID string) (*domain.Loan, error)
	ListByBorrowerFn       func(ctx context.Context, borrowerID string) ([]domain.Loan, error)
	ListByLenderFn         func(ctx context.Context, lenderID string) ([]domain.Loan, error)
	ListOverdueFn          func(ctx context.Context, cutoff time.Time, limit int) ([]domain.Loan, error)
	CompareAndSetStatusFn  func(ctx context.Context, loanID string, from, to domain.Status) (bool, error)
	AdvanceDueDateFn       func(ctx context.Context, loanID string, from, to time.Time) (bool, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	if m.Base != nil {
		return m.Base.Create(ctx, l)
	}
	return context.Canceled
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	if m.Base != nil {
		return m.Base.GetByLoanID(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByChainLoanID(ctx context.Context, chainLoanID uint64) (*domain.Loan, error) {
	if m.GetByChainLoanIDFn != nil {
		return m.GetByChainLoanIDFn(ctx, chainLoanID)
	}
	if m.Base != nil {
		return m.Base.GetByChainLoanID(ctx, chainLoanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	if m.Base != nil {
		return m.Base.GetByLoanIDForUpdate(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByBorrower(ctx context.Context, borrowerID string) ([]domain.Loan, error) {
	if m.ListByBorrowerFn != nil {
		return m.ListByBorrowerFn(ctx, borrowerID)
	}
	if m.Base != nil {
		return m.Base.ListByBorrower(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByLender(ctx context.Context, lenderID string) ([]domain.Loan, error) {
	if m.ListByLenderFn != nil {
		return m.ListByLenderFn(ctx, lenderID)
	}
	if m.Base != nil {
		return m.Base.ListByLender(ctx, lenderID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]domain.Loan, error) {
	if m.ListOverdueFn != nil {
		return m.ListOverdueFn(ctx, cutoff, limit)
	}
	if m.Base != nil {
		return m.Base.ListOverdue(ctx, cutoff, limit)
	}
	return nil, context.Canceled
}

func (m *Repo) CompareAndSetStatus(ctx context.Context, loanID string, from, to domain.Status) (bool, error) {
	if m.CompareAndSetStatusFn != nil {
		return m.CompareAndSetStatusFn(ctx, loanID, from, to)
	}
	if m.Base != nil {
		return m.Base.CompareAndSetStatus(ctx, loanID, from, to)
	}
	return false, context.Canceled
}

func (m *Repo) AdvanceDueDate(ctx context.Context, loanID string, from, to time.Time) (bool, error) {
	if m.AdvanceDueDateFn != nil {
		return m.AdvanceDueDateFn(ctx, loanID, from, to)
	}
	if m.Base != nil {
		return m.Base.AdvanceDueDate(ctx, loanID, from, to)
	}
	return false, context.Canceled
}
