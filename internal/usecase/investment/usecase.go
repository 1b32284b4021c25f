package investment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/btcsuite/btcutil"

	"btc-lending-backend/internal/domain"
	"btc-lending-backend/internal/domain/account"
	"btc-lending-backend/internal/domain/ledger"
	"btc-lending-backend/internal/domain/transaction"
	"btc-lending-backend/pkg/id"
)

type Usecase struct {
	accounts account.Repository
	txs      transaction.Repository
	ledger   ledger.Service
	timeout  time.Duration
}

func NewUsecase(accounts account.Repository, txs transaction.Repository, l ledger.Service, timeout time.Duration) *Usecase {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Usecase{accounts: accounts, txs: txs, ledger: l, timeout: timeout}
}

// RegisterWallet links the actor to the ledger wallet used for deposits and
// disbursements.
func (u *Usecase) RegisterWallet(ctx context.Context, actor domain.Actor, in RegisterWalletInput) (*account.Account, error) {
	if actor.ID == "" || strings.TrimSpace(in.WalletName) == "" || strings.TrimSpace(in.WalletAddress) == "" {
		return nil, fmt.Errorf("%w: wallet name and address required", domain.ErrValidation)
	}
	a := &account.Account{
		UserID:        actor.ID,
		WalletName:    strings.TrimSpace(in.WalletName),
		WalletAddress: strings.TrimSpace(in.WalletAddress),
		Role:          account.RoleUser,
	}
	if actor.Admin {
		a.Role = account.RoleAdmin
	}
	if err := u.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Invest deposits amount into the actor's ledger wallet.
func (u *Usecase) Invest(ctx context.Context, actor domain.Actor, amount btcutil.Amount) (*TxDTO, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	acc, err := u.accounts.GetByUserID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	tx := &transaction.Transaction{
		TxID:        id.New(),
		Type:        transaction.TypeInvestment,
		Amount:      int64(amount),
		Currency:    transaction.CurrencyBTC,
		Status:      transaction.StatusPending,
		SenderID:    actor.ID,
		RecipientID: actor.ID,
	}
	if err := u.txs.Create(ctx, tx); err != nil {
		return nil, err
	}

	lctx, cancel := context.WithTimeout(ctx, u.timeout)
	receipt, err := u.ledger.Deposit(lctx, acc.WalletName, acc.WalletAddress, amount)
	cancel()

	bg := context.WithoutCancel(ctx)
	if err != nil {
		if _, serr := u.txs.Settle(bg, tx.TxID, transaction.Settlement{Status: transaction.StatusFailed, FailureReason: err.Error()}); serr != nil {
			slog.Error("investment settle failed", "tx_id", tx.TxID, "error", serr)
		}
		if !errors.Is(err, domain.ErrExternalService) {
			err = fmt.Errorf("%w: %v", domain.ErrExternalService, err)
		}
		return nil, fmt.Errorf("deposit: %w", err)
	}

	ext := receipt.TxID
	if _, err := u.txs.Settle(bg, tx.TxID, transaction.Settlement{Status: transaction.StatusCompleted, ExternalTxID: &ext}); err != nil {
		slog.Error("deposit accepted by ledger but not recorded locally", "tx_id", tx.TxID, "ledger_tx", ext, "error", err)
		return nil, &domain.GapError{Op: "deposit", LedgerTxID: ext, Err: err}
	}
	stored, err := u.txs.GetByTxID(bg, tx.TxID)
	if err != nil {
		return nil, err
	}
	slog.Info("investment deposited", "user_id", actor.ID, "tx_id", tx.TxID, "amount_sats", int64(amount))
	return toTxDTO(stored), nil
}

// Balance always asks the ledger; local records can lag behind it.
func (u *Usecase) Balance(ctx context.Context, actor domain.Actor, userID string) (*BalanceDTO, error) {
	if userID == "" {
		userID = actor.ID
	}
	if !actor.CanActFor(userID) {
		return nil, domain.ErrUnauthorized
	}
	acc, err := u.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	lctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	b, err := u.ledger.GetBalance(lctx, acc.WalletAddress)
	if err != nil {
		if !errors.Is(err, domain.ErrExternalService) {
			err = fmt.Errorf("%w: %v", domain.ErrExternalService, err)
		}
		return nil, err
	}
	return &BalanceDTO{
		UserID:       userID,
		OnChainSats:  int64(b.OnChain),
		OffChainSats: int64(b.OffChain),
		OnChainBTC:   b.OnChain.ToBTC(),
		OffChainBTC:  b.OffChain.ToBTC(),
	}, nil
}

// Confirm records a new confirmation count. Lower counts are ignored.
func (u *Usecase) Confirm(ctx context.Context, actor domain.Actor, txID string, confirmations uint32) (*TxDTO, error) {
	if !actor.Admin {
		return nil, domain.ErrUnauthorized
	}
	if _, err := u.txs.RaiseConfirmations(ctx, txID, confirmations); err != nil {
		return nil, err
	}
	t, err := u.txs.GetByTxID(ctx, txID)
	if err != nil {
		return nil, err
	}
	return toTxDTO(t), nil
}
