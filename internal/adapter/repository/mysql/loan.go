package mysql

import (
	"context"
	"time"

	loanDomain "btc-lending-backend/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out).Error; err != nil {
		return nil, notFound(err, "loan", loanID)
	}
	return &out, nil
}

func (r *LoanRepository) GetByChainLoanID(ctx context.Context, chainLoanID uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := r.db.WithContext(ctx).Where("chain_loan_id = ?", chainLoanID).First(&out).Error; err != nil {
		return nil, notFound(err, "chain loan", "")
	}
	return &out, nil
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out).Error
	if err != nil {
		return nil, notFound(err, "loan", loanID)
	}
	return &out, nil
}

func (r *LoanRepository) ListByBorrower(ctx context.Context, borrowerID string) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("borrower_id = ?", borrowerID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListByLender(ctx context.Context, lenderID string) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("lender_id = ?", lenderID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *LoanRepository) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	q := r.db.WithContext(ctx).
		Where("status = ? AND next_due_date < ?", loanDomain.StatusActive, cutoff).
		Order("next_due_date ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *LoanRepository) CompareAndSetStatus(ctx context.Context, loanID string, from, to loanDomain.Status) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("loan_id = ? AND status = ?", loanID, from).
		Updates(map[string]any{"status": to, "status_updated_at": time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}

func (r *LoanRepository) AdvanceDueDate(ctx context.Context, loanID string, from, to time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("loan_id = ? AND next_due_date = ?", loanID, from).
		Update("next_due_date", to)
	return res.RowsAffected == 1, res.Error
}
