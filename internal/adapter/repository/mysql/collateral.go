package mysql

import (
	"context"
	"time"

	collateralDomain "btc-lending-backend/internal/domain/collateral"

	"gorm.io/gorm"
)

type CollateralRepository struct{ db *gorm.DB }

func NewCollateralRepository(db *gorm.DB) *CollateralRepository {
	return &CollateralRepository{db: db}
}

func (r *CollateralRepository) Create(ctx context.Context, c *collateralDomain.Collateral) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CollateralRepository) GetByCollateralID(ctx context.Context, collateralID string) (*collateralDomain.Collateral, error) {
	var out collateralDomain.Collateral
	if err := r.db.WithContext(ctx).Where("collateral_id = ?", collateralID).First(&out).Error; err != nil {
		return nil, notFound(err, "collateral", collateralID)
	}
	return &out, nil
}

func (r *CollateralRepository) ListByOwner(ctx context.Context, ownerID string) ([]collateralDomain.Collateral, error) {
	var out []collateralDomain.Collateral
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// CompareAndSet is a single conditional UPDATE: the WHERE clause carries the
// expected status (and association), RowsAffected tells whether we won.
// Rows for other collaterals are never touched, so unrelated ids proceed in
// parallel.
func (r *CollateralRepository) CompareAndSet(ctx context.Context, collateralID string, t collateralDomain.Transition) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&collateralDomain.Collateral{}).
		Where("collateral_id = ? AND status IN ?", collateralID, t.From)
	if t.FromAssociation != nil {
		q = q.Where("association_id = ?", *t.FromAssociation)
	}

	assoc := any(gorm.Expr("NULL"))
	if t.Association != nil {
		assoc = *t.Association
	}
	res := q.Updates(map[string]any{
		"status":            t.To,
		"association_id":    assoc,
		"association_kind":  t.Kind,
		"status_updated_at": time.Now().UTC(),
	})
	return res.RowsAffected == 1, res.Error
}
