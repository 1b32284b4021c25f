package transaction

import (
	"time"
)

type Type string

const (
	TypeDisbursement Type = "disbursement"
	TypeRepayment    Type = "repayment"
	TypeInvestment   Type = "investment"
	TypeWithdrawal   Type = "withdrawal"
	TypeLiquidation  Type = "liquidation"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool { return s != StatusPending }

const (
	CurrencyBTC = "BTC"
	CurrencyUSD = "USD"
)

// Table: transactions. Type and Amount are written once on insert; Status
// only leaves pending once; Confirmations only grow.
type Transaction struct {
	ID            uint64    `gorm:"primaryKey;column:id" json:"-"`
	TxID          string    `gorm:"size:32;uniqueIndex:ux_transactions_tx_id" json:"tx_id"`
	Type          Type      `gorm:"type:varchar(16);not null;<-:create" json:"type"`
	Amount        int64     `gorm:"not null;<-:create" json:"amount"` // minor units: satoshi for BTC, cents for USD
	Currency      string    `gorm:"size:8;not null;default:'BTC'" json:"currency"`
	Status        Status    `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	SenderID      string    `gorm:"size:32" json:"sender_id"`
	RecipientID   string    `gorm:"size:32" json:"recipient_id"`
	LoanID        *string   `gorm:"size:32;index:idx_transactions_loan" json:"loan_id,omitempty"`
	ExternalTxID  *string   `gorm:"size:128" json:"external_tx_id,omitempty"`
	FailureReason string    `gorm:"type:text" json:"failure_reason,omitempty"`
	Confirmations uint32    `gorm:"not null;default:0" json:"confirmations"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string { return "transactions" }

// Settlement is the terminal outcome applied to a pending transaction.
type Settlement struct {
	Status        Status
	ExternalTxID  *string
	FailureReason string
}
