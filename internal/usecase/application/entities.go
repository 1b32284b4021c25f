package application

import (
	"time"

	"btc-lending-backend/internal/domain/application"
)

type ApplyInput struct {
	AmountUSD    float64 `json:"amount_usd" validate:"required,gt=0"`
	InterestRate float64 `json:"interest_rate" validate:"gte=0,lte=100"`
	RiskFactor   float64 `json:"risk_factor" validate:"gte=0,lte=100"`
	TermMonths   int     `json:"term_months" validate:"required,gte=1,lte=360"`
	CollateralID string  `json:"collateral_id" validate:"required,len=32"`
}

type ApplicationDTO struct {
	ApplicationID string    `json:"application_id"`
	BorrowerID    string    `json:"borrower_id"`
	AmountUSD     float64   `json:"amount_usd"`
	InterestRate  float64   `json:"interest_rate"`
	RiskFactor    float64   `json:"risk_factor"`
	TermMonths    int       `json:"term_months"`
	CollateralID  string    `json:"collateral_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func toDTO(a *application.Application) *ApplicationDTO {
	return &ApplicationDTO{
		ApplicationID: a.ApplicationID,
		BorrowerID:    a.BorrowerID,
		AmountUSD:     a.AmountUSD,
		InterestRate:  a.InterestRate,
		RiskFactor:    a.RiskFactor,
		TermMonths:    a.TermMonths,
		CollateralID:  a.CollateralID,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
	}
}

func toDTOs(rows []application.Application) []ApplicationDTO {
	out := make([]ApplicationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out
}
