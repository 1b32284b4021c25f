package collateral

import "context"

type Repository interface {
	Create(ctx context.Context, c *Collateral) error
	GetByCollateralID(ctx context.Context, collateralID string) (*Collateral, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Collateral, error)

	// CompareAndSet applies t atomically to the row and reports whether it
	// matched. false with a nil error means the row was not in t.From.
	CompareAndSet(ctx context.Context, collateralID string, t Transition) (bool, error)
}
