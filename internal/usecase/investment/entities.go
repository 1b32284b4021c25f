package investment

import (
	"time"

	"btc-lending-backend/internal/domain/transaction"
)

type RegisterWalletInput struct {
	WalletName    string `json:"wallet_name" validate:"required,max=64"`
	WalletAddress string `json:"wallet_address" validate:"required,btcaddr"`
}

type InvestInput struct {
	AmountSats int64 `json:"amount_sats" validate:"required,gt=0"`
}

type ConfirmInput struct {
	Confirmations uint32 `json:"confirmations" validate:"required"`
}

type TxDTO struct {
	TxID          string    `json:"tx_id"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	ExternalTxID  string    `json:"external_tx_id,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	Confirmations uint32    `json:"confirmations"`
	CreatedAt     time.Time `json:"created_at"`
}

type BalanceDTO struct {
	UserID       string  `json:"user_id"`
	OnChainSats  int64   `json:"on_chain_sats"`
	OffChainSats int64   `json:"off_chain_sats"`
	OnChainBTC   float64 `json:"on_chain_btc"`
	OffChainBTC  float64 `json:"off_chain_btc"`
}

func toTxDTO(t *transaction.Transaction) *TxDTO {
	dto := &TxDTO{
		TxID:          t.TxID,
		Type:          string(t.Type),
		Amount:        t.Amount,
		Currency:      t.Currency,
		Status:        string(t.Status),
		FailureReason: t.FailureReason,
		Confirmations: t.Confirmations,
		CreatedAt:     t.CreatedAt,
	}
	if t.ExternalTxID != nil {
		dto.ExternalTxID = *t.ExternalTxID
	}
	return dto
}
