package txmock

import (
	"context"

	domain "btc-lending-backend/internal/domain/transaction"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed domain.Repository; unset functions delegate to
// Base, or return context.Canceled without one.
type Repo struct {
	Base domain.Repository

	CreateFn             func(ctx context.Context, t *domain.Transaction) error
	GetByTxIDFn          func(ctx context.Context, txID string) (*domain.Transaction, error)
	ListByLoanFn         func(ctx context.Context, loanID string) ([]domain.Transaction, error)
	SettleFn             func(ctx context.Context, txID string, s domain.Settlement) (bool, error)
	RaiseConfirmationsFn func(ctx context.Context, txID string, n uint32) (bool, error)
}

func (m *Repo) Create(ctx context.Context, t *domain.Transaction) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, t)
	}
	if m.Base != nil {
		return m.Base.Create(ctx, t)
	}
	return context.Canceled
}

func (m *Repo) GetByTxID(ctx context.Context, txID string) (*domain.Transaction, error) {
	if m.GetByTxIDFn != nil {
		return m.GetByTxIDFn(ctx, txID)
	}
	if m.Base != nil {
		return m.Base.GetByTxID(ctx, txID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByLoan(ctx context.Context, loanID string) ([]domain.Transaction, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID)
	}
	if m.Base != nil {
		return m.Base.ListByLoan(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) Settle(ctx context.Context, txID string, s domain.Settlement) (bool, error) {
	if m.SettleFn != nil {
		return m.SettleFn(ctx, txID, s)
	}
	if m.Base != nil {
		return m.Base.Settle(ctx, txID, s)
	}
	return false, context.Canceled
}

func (m *Repo) RaiseConfirmations(ctx context.Context, txID string, n uint32) (bool, error) {
	if m.RaiseConfirmationsFn != nil {
		return m.RaiseConfirmationsFn(ctx, txID, n)
	}
	if m.Base != nil {
		return m.Base.RaiseConfirmations(ctx, txID, n)
	}
	return false, context.Canceled
}
