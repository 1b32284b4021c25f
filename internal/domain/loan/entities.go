package loan

import (
	"time"

	"github.com/btcsuite/btcutil"
)

type Status string

// Canonical vocabulary. "open" maps to active; "closed" maps to completed
// (explicit close) or defaulted (collateral liquidated).
const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDefaulted Status = "defaulted"
)

// Open reports whether the loan still accepts repayments.
func (s Status) Open() bool { return s == StatusActive }

// LoanTypeFixedEmi is the ledger loan type code for BTC-fixed installments.
const LoanTypeFixedEmi = 0

type Loan struct {
	ID                 uint64         `gorm:"primaryKey;column:id" json:"-"`
	LoanID             string         `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	ChainLoanID        uint64         `gorm:"uniqueIndex:ux_loans_chain_loan_id;not null" json:"chain_loan_id"`
	ApplicationID      string         `gorm:"size:32;uniqueIndex:ux_loans_application_id" json:"application_id"`
	LenderID           string         `gorm:"size:32;index:idx_loans_lender" json:"lender_id"`
	BorrowerID         string         `gorm:"size:32;index:idx_loans_borrower" json:"borrower_id"`
	PrincipalSats      btcutil.Amount `gorm:"type:bigint;not null" json:"principal_sats"`
	InterestRate       float64        `gorm:"type:decimal(6,2)" json:"interest_rate"`
	RiskFactor         float64        `gorm:"type:decimal(6,2)" json:"risk_factor"`
	TermMonths         int            `json:"term_months"`
	PriceAtLoanTime    float64        `gorm:"type:decimal(18,2)" json:"price_at_loan_time"`
	CollateralTypeCode int            `json:"collateral_type_code"`
	CollateralValueUSD float64        `gorm:"type:decimal(18,2)" json:"collateral_value_usd"`
	CollateralID       string         `gorm:"size:32;index:idx_loans_collateral" json:"collateral_id"`
	FixedEmiSats       btcutil.Amount `gorm:"type:bigint" json:"fixed_emi_sats"`
	IssuedAt           time.Time      `json:"issued_at"`
	MaturityAt         time.Time      `json:"maturity_at"`
	NextDueDate        time.Time      `gorm:"index:idx_loans_status_due" json:"next_due_date"`
	Status             Status         `gorm:"type:varchar(16);not null;default:'active';index:idx_loans_status_due" json:"status"`
	StatusUpdatedAt    time.Time      `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// PrincipalBTC is the principal as a float, for presentation and EMI input only.
func (l *Loan) PrincipalBTC() float64 { return l.PrincipalSats.ToBTC() }
