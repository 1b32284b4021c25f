package applicationmock

import (
	"context"

	domain "btc-lending-backend/internal/domain/application"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed domain.Repository; unset functions delegate to
// Base, or return context.Canceled without one.
type Repo struct {
	Base domain.Repository

	CreateFn                func(ctx context.Context, a *domain.Application) error
	GetByApplicationIDFn    func(ctx context.Context, applicationID string) (*domain.Application, error)
	ListPendingByBorrowerFn func(ctx context.Context, borrowerID string) ([]domain.Application, error)
	ListPendingExcludingFn  func(ctx context.Context, borrowerID string) ([]domain.Application, error)
	CompareAndSetStatusFn   func(ctx context.Context, applicationID string, from, to domain.Status) (bool, error)
}

func (m *Repo) Create(ctx context.Context, a *domain.Application) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	if m.Base != nil {
		return m.Base.Create(ctx, a)
	}
	return context.Canceled
}

func (m *Repo) GetByApplicationID(ctx context.Context, applicationID string) (*domain.Application, error) {
	if m.GetByApplicationIDFn != nil {
		return m.GetByApplicationIDFn(ctx, applicationID)
	}
	if m.Base != nil {
		return m.Base.GetByApplicationID(ctx, applicationID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListPendingByBorrower(ctx context.Context, borrowerID string) ([]domain.Application, error) {
	if m.ListPendingByBorrowerFn != nil {
		return m.ListPendingByBorrowerFn(ctx, borrowerID)
	}
	if m.Base != nil {
		return m.Base.ListPendingByBorrower(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListPendingExcluding(ctx context.Context, borrowerID string) ([]domain.Application, error) {
	if m.ListPendingExcludingFn != nil {
		return m.ListPendingExcludingFn(ctx, borrowerID)
	}
	if m.Base != nil {
		return m.Base.ListPendingExcluding(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) CompareAndSetStatus(ctx context.Context, applicationID string, from, to domain.Status) (bool, error) {
	if m.CompareAndSetStatusFn != nil {
		return m.CompareAndSetStatusFn(ctx, applicationID, from, to)
	}
	if m.Base != nil {
		return m.Base.CompareAndSetStatus(ctx, applicationID, from, to)
	}
	return false, context.Canceled
}
