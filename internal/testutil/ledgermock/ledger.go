package ledgermock

import (
	"context"
	"errors"

	"github.com/btcsuite/btcutil"

	"btc-lending-backend/internal/domain/ledger"
)

var _ ledger.Service = (*Service)(nil)

var errUnimplemented = errors.New("ledgermock: method not implemented")

// Service is a function-backed ledger.Service. Unfilled methods fail.
type Service struct {
	DepositFn      func(ctx context.Context, wallet, address string, amount btcutil.Amount) (ledger.TxReceipt, error)
	LoanFn         func(ctx context.Context, req ledger.LoanRequest) (ledger.LoanReceipt, error)
	RepayFn        func(ctx context.Context, chainLoanID uint64, price float64, amount btcutil.Amount) (ledger.TxReceipt, error)
	CloseLoanFn    func(ctx context.Context, chainLoanID uint64) (ledger.Ack, error)
	OpenLoanFn     func(ctx context.Context, chainLoanID uint64) (ledger.Ack, error)
	GetBalanceFn   func(ctx context.Context, address string) (ledger.Balance, error)
	ReadLoanByIDFn func(ctx context.Context, chainLoanID uint64) (ledger.LoanSnapshot, error)
}

func (m *Service) Deposit(ctx context.Context, wallet, address string, amount btcutil.Amount) (ledger.TxReceipt, error) {
	if m.DepositFn != nil {
		return m.DepositFn(ctx, wallet, address, amount)
	}
	return ledger.TxReceipt{}, errUnimplemented
}

func (m *Service) Loan(ctx context.Context, req ledger.LoanRequest) (ledger.LoanReceipt, error) {
	if m.LoanFn != nil {
		return m.LoanFn(ctx, req)
	}
	return ledger.LoanReceipt{}, errUnimplemented
}

func (m *Service) Repay(ctx context.Context, chainLoanID uint64, price float64, amount btcutil.Amount) (ledger.TxReceipt, error) {
	if m.RepayFn != nil {
		return m.RepayFn(ctx, chainLoanID, price, amount)
	}
	return ledger.TxReceipt{}, errUnimplemented
}

func (m *Service) CloseLoan(ctx context.Context, chainLoanID uint64) (ledger.Ack, error) {
	if m.CloseLoanFn != nil {
		return m.CloseLoanFn(ctx, chainLoanID)
	}
	return ledger.Ack{}, errUnimplemented
}

func (m *Service) OpenLoan(ctx context.Context, chainLoanID uint64) (ledger.Ack, error) {
	if m.OpenLoanFn != nil {
		return m.OpenLoanFn(ctx, chainLoanID)
	}
	return ledger.Ack{}, errUnimplemented
}

func (m *Service) GetBalance(ctx context.Context, address string) (ledger.Balance, error) {
	if m.GetBalanceFn != nil {
		return m.GetBalanceFn(ctx, address)
	}
	return ledger.Balance{}, errUnimplemented
}

func (m *Service) ReadLoanByID(ctx context.Context, chainLoanID uint64) (ledger.LoanSnapshot, error) {
	if m.ReadLoanByIDFn != nil {
		return m.ReadLoanByIDFn(ctx, chainLoanID)
	}
	return ledger.LoanSnapshot{}, errUnimplemented
}
