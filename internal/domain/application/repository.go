package application

import "context"

type Repository interface {
	Create(ctx context.Context, a *Application) error
	GetByApplicationID(ctx context.Context, applicationID string) (*Application, error)

	// Pending applications owned by borrowerID.
	ListPendingByBorrower(ctx context.Context, borrowerID string) ([]Application, error)
	// Pending applications from everyone except borrowerID (marketplace view).
	ListPendingExcluding(ctx context.Context, borrowerID string) ([]Application, error)

	// CompareAndSetStatus moves from -> to; false when the row was not in from.
	CompareAndSetStatus(ctx context.Context, applicationID string, from, to Status) (bool, error)
}
