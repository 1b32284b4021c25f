package mysql

import (
	"context"

	txDomain "btc-lending-backend/internal/domain/transaction"

	"gorm.io/gorm"
)

type TransactionRepository struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *txDomain.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepository) GetByTxID(ctx context.Context, txID string) (*txDomain.Transaction, error) {
	var out txDomain.Transaction
	if err := r.db.WithContext(ctx).Where("tx_id = ?", txID).First(&out).Error; err != nil {
		return nil, notFound(err, "transaction", txID)
	}
	return &out, nil
}

func (r *TransactionRepository) ListByLoan(ctx context.Context, loanID string) ([]txDomain.Transaction, error) {
	var out []txDomain.Transaction
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *TransactionRepository) Settle(ctx context.Context, txID string, s txDomain.Settlement) (bool, error) {
	updates := map[string]any{"status": s.Status}
	if s.ExternalTxID != nil {
		updates["external_tx_id"] = *s.ExternalTxID
	}
	if s.FailureReason != "" {
		updates["failure_reason"] = s.FailureReason
	}
	res := r.db.WithContext(ctx).
		Model(&txDomain.Transaction{}).
		Where("tx_id = ? AND status = ?", txID, txDomain.StatusPending).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func (r *TransactionRepository) RaiseConfirmations(ctx context.Context, txID string, n uint32) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&txDomain.Transaction{}).
		Where("tx_id = ? AND confirmations < ?", txID, n).
		Update("confirmations", n)
	return res.RowsAffected == 1, res.Error
}
