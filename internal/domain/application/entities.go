package application

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusRejected  Status = "rejected"
)

// Table: loan_applications
type Application struct {
	ID              uint64    `gorm:"primaryKey;column:id" json:"-"`
	ApplicationID   string    `gorm:"size:32;uniqueIndex:ux_applications_application_id" json:"application_id"`
	BorrowerID      string    `gorm:"size:32;index:idx_applications_borrower_status" json:"borrower_id"`
	AmountUSD       float64   `gorm:"type:decimal(18,2)" json:"amount_usd"`
	InterestRate    float64   `gorm:"type:decimal(6,2)" json:"interest_rate"` // annual %
	RiskFactor      float64   `gorm:"type:decimal(6,2)" json:"risk_factor"`   // annual %
	TermMonths      int       `json:"term_months"`
	CollateralID    string    `gorm:"size:32;index:idx_applications_collateral" json:"collateral_id"`
	Status          Status    `gorm:"type:varchar(16);not null;default:'pending';index:idx_applications_borrower_status" json:"status"`
	StatusUpdatedAt time.Time `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Application) TableName() string { return "loan_applications" }

// IssueLockKey names the lease held while an application is being funded.
// Anything that moves the application out of pending takes the same key.
func IssueLockKey(applicationID string) string { return "issue:" + applicationID }
