package account

import "context"

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByUserID(ctx context.Context, userID string) (*Account, error)
}
