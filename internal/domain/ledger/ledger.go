// Package ledger declares the boundary to the external ledger that custodies
// wallets and records on-chain loan state. Adapters normalize whatever the
// ledger returns into these types or a *Error; nothing past this boundary
// inspects raw ledger payloads.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil"

	"btc-lending-backend/internal/domain"
)

// LoanRequest carries the arguments of the ledger's loan operation.
type LoanRequest struct {
	BorrowerAddress    string
	Principal          btcutil.Amount
	InterestRatePct    float64
	LoanTypeCode       int
	PriceAtLoanTimeUSD float64
	TermMonths         int
	RiskPct            float64
	CollateralTypeCode int
	CollateralValueUSD float64
	CollateralID       string
}

type LoanReceipt struct {
	ChainLoanID uint64
	TxID        string
}

type TxReceipt struct {
	TxID string
}

// Ack is returned by close/open. Success=false is an error flag carried in
// an otherwise successful response.
type Ack struct {
	Success bool
	Message string
}

type Balance struct {
	OnChain  btcutil.Amount
	OffChain btcutil.Amount
}

type LoanSnapshot struct {
	ChainLoanID     uint64
	Borrower        string
	Principal       btcutil.Amount
	Repaid          btcutil.Amount
	PriceAtLoanTime float64
	TermMonths      int
	Open            bool
}

type Service interface {
	Deposit(ctx context.Context, wallet, address string, amount btcutil.Amount) (TxReceipt, error)
	Loan(ctx context.Context, req LoanRequest) (LoanReceipt, error)
	Repay(ctx context.Context, chainLoanID uint64, currentPriceUSD float64, amount btcutil.Amount) (TxReceipt, error)
	CloseLoan(ctx context.Context, chainLoanID uint64) (Ack, error)
	OpenLoan(ctx context.Context, chainLoanID uint64) (Ack, error)
	GetBalance(ctx context.Context, address string) (Balance, error)
	ReadLoanByID(ctx context.Context, chainLoanID uint64) (LoanSnapshot, error)
}

// Error is the normalized failure of a ledger call.
type Error struct {
	Op      string
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger %s: %s: %s", e.Op, e.Code, e.Message)
}

// Is lets errors.Is(err, domain.ErrExternalService) match any ledger error.
func (e *Error) Is(target error) bool { return target == domain.ErrExternalService }

// Codes used by adapters when the ledger itself did not provide one.
const (
	CodeTransport = "transport"
	CodeTimeout   = "timeout"
	CodeMalformed = "malformed_response"
)

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var le *Error
	ok := errors.As(err, &le)
	return le, ok
}
