package mysql

import (
	"context"

	accountDomain "btc-lending-backend/internal/domain/account"

	"gorm.io/gorm"
)

type AccountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) *AccountRepository { return &AccountRepository{db: db} }

func (r *AccountRepository) Create(ctx context.Context, a *accountDomain.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*accountDomain.Account, error) {
	var out accountDomain.Account
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&out).Error; err != nil {
		return nil, notFound(err, "account", userID)
	}
	return &out, nil
}
