package loan

import (
	"time"

	"btc-lending-backend/internal/domain/loan"
)

type LoanDTO struct {
	LoanID             string    `json:"loan_id"`
	ChainLoanID        uint64    `json:"chain_loan_id"`
	ApplicationID      string    `json:"application_id"`
	LenderID           string    `json:"lender_id"`
	BorrowerID         string    `json:"borrower_id"`
	PrincipalSats      int64     `json:"principal_sats"`
	PrincipalBTC       float64   `json:"principal_btc"`
	InterestRate       float64   `json:"interest_rate"`
	RiskFactor         float64   `json:"risk_factor"`
	TermMonths         int       `json:"term_months"`
	PriceAtLoanTime    float64   `json:"price_at_loan_time"`
	CollateralID       string    `json:"collateral_id"`
	CollateralValueUSD float64   `json:"collateral_value_usd"`
	FixedEmiSats       int64     `json:"fixed_emi_sats"`
	IssuedAt           time.Time `json:"issued_at"`
	MaturityAt         time.Time `json:"maturity_at"`
	NextDueDate        time.Time `json:"next_due_date"`
	State              string    `json:"state"`
	CreatedAt          time.Time `json:"created_at"`
}

func ToDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:             l.LoanID,
		ChainLoanID:        l.ChainLoanID,
		ApplicationID:      l.ApplicationID,
		LenderID:           l.LenderID,
		BorrowerID:         l.BorrowerID,
		PrincipalSats:      int64(l.PrincipalSats),
		PrincipalBTC:       l.PrincipalBTC(),
		InterestRate:       l.InterestRate,
		RiskFactor:         l.RiskFactor,
		TermMonths:         l.TermMonths,
		PriceAtLoanTime:    l.PriceAtLoanTime,
		CollateralID:       l.CollateralID,
		CollateralValueUSD: l.CollateralValueUSD,
		FixedEmiSats:       int64(l.FixedEmiSats),
		IssuedAt:           l.IssuedAt,
		MaturityAt:         l.MaturityAt,
		NextDueDate:        l.NextDueDate,
		State:              string(l.Status),
		CreatedAt:          l.CreatedAt,
	}
}
