package repayment

import (
	"time"

	"btc-lending-backend/internal/domain/emi"
)

type RepayInput struct {
	AmountSats int64 `json:"amount_sats" validate:"required,gt=0"`
}

type RepayResult struct {
	TxID         string    `json:"tx_id"`
	ExternalTxID string    `json:"external_tx_id"`
	AmountSats   int64     `json:"amount_sats"`
	PriceUSD     float64   `json:"price_usd"`
	LateFeeSats  int64     `json:"late_fee_sats"` // informational, at the time of payment
	NextDueDate  time.Time `json:"next_due_date"`
}

type ScheduleView struct {
	LoanID       string       `json:"loan_id"`
	CurrentPrice float64      `json:"current_price"`
	NextDueDate  time.Time    `json:"next_due_date"`
	LateFeeSats  int64        `json:"late_fee_sats"`
	Schedule     emi.Schedule `json:"schedule"`
}
