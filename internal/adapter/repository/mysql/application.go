package mysql

import (
	"context"
	"time"

	applicationDomain "btc-lending-backend/internal/domain/application"

	"gorm.io/gorm"
)

type ApplicationRepository struct{ db *gorm.DB }

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *applicationDomain.Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ApplicationRepository) GetByApplicationID(ctx context.Context, applicationID string) (*applicationDomain.Application, error) {
	var out applicationDomain.Application
	if err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&out).Error; err != nil {
		return nil, notFound(err, "application", applicationID)
	}
	return &out, nil
}

func (r *ApplicationRepository) ListPendingByBorrower(ctx context.Context, borrowerID string) ([]applicationDomain.Application, error) {
	var out []applicationDomain.Application
	err := r.db.WithContext(ctx).
		Where("borrower_id = ? AND status = ?", borrowerID, applicationDomain.StatusPending).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *ApplicationRepository) ListPendingExcluding(ctx context.Context, borrowerID string) ([]applicationDomain.Application, error) {
	var out []applicationDomain.Application
	err := r.db.WithContext(ctx).
		Where("borrower_id <> ? AND status = ?", borrowerID, applicationDomain.StatusPending).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *ApplicationRepository) CompareAndSetStatus(ctx context.Context, applicationID string, from, to applicationDomain.Status) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&applicationDomain.Application{}).
		Where("application_id = ? AND status = ?", applicationID, from).
		Updates(map[string]any{"status": to, "status_updated_at": time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}
