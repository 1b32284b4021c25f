package collateralmock

import (
	"context"

	domain "btc-lending-backend/internal/domain/collateral"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed domain.Repository; unset functions delegate to
// Base, or return context.Canceled without one.
type Repo struct {
	Base domain.Repository

	CreateFn            func(ctx context.Context, c *domain.Collateral) error
	GetByCollateralIDFn func(ctx context.Context, collateralID string) (*domain.Collateral, error)
	ListByOwnerFn       func(ctx context.Context, ownerID string) ([]domain.Collateral, error)
	CompareAndSetFn     func(ctx context.Context, collateralID string, t domain.Transition) (bool, error)
}

func (m *Repo) Create(ctx context.Context, c *domain.Collateral) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	if m.Base != nil {
		return m.Base.Create(ctx, c)
	}
	return context.Canceled
}

func (m *Repo) GetByCollateralID(ctx context.Context, collateralID string) (*domain.Collateral, error) {
	if m.GetByCollateralIDFn != nil {
		return m.GetByCollateralIDFn(ctx, collateralID)
	}
	if m.Base != nil {
		return m.Base.GetByCollateralID(ctx, collateralID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Collateral, error) {
	if m.ListByOwnerFn != nil {
		return m.ListByOwnerFn(ctx, ownerID)
	}
	if m.Base != nil {
		return m.Base.ListByOwner(ctx, ownerID)
	}
	return nil, context.Canceled
}

func (m *Repo) CompareAndSet(ctx context.Context, collateralID string, t domain.Transition) (bool, error) {
	if m.CompareAndSetFn != nil {
		return m.CompareAndSetFn(ctx, collateralID, t)
	}
	if m.Base != nil {
		return m.Base.CompareAndSet(ctx, collateralID, t)
	}
	return false, context.Canceled
}
