package transaction

import "context"

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByTxID(ctx context.Context, txID string) (*Transaction, error)
	ListByLoan(ctx context.Context, loanID string) ([]Transaction, error)

	// Settle moves a pending transaction to a terminal status. false when the
	// transaction was already terminal.
	Settle(ctx context.Context, txID string, s Settlement) (bool, error)
	// RaiseConfirmations stores n only when it is greater than the current value.
	RaiseConfirmations(ctx context.Context, txID string, n uint32) (bool, error)
}
