package repayment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/btcsuite/btcutil"

	"btc-lending-backend/internal/domain"
	"btc-lending-backend/internal/domain/collateral"
	"btc-lending-backend/internal/domain/emi"
	"btc-lending-backend/internal/domain/ledger"
	"btc-lending-backend/internal/domain/loan"
	"btc-lending-backend/internal/domain/transaction"
	"btc-lending-backend/internal/domain/uow"
	"btc-lending-backend/internal/domain/valuation"
	"btc-lending-backend/internal/infrastructure/metrics"
	loanUC "btc-lending-backend/internal/usecase/loan"
	"btc-lending-backend/pkg/id"
)

type Usecase struct {
	uow       uow.UnitOfWork
	loans     loan.Repository
	txs       transaction.Repository
	ledger    ledger.Service
	val       valuation.Service
	timeout   time.Duration
	strictAck bool
	now       func() time.Time
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

// WithStrictAck makes a ledger Ack{Success:false} abort close/open instead
// of being logged and ignored.
func WithStrictAck(strict bool) Option { return func(u *Usecase) { u.strictAck = strict } }

func NewUsecase(u uow.UnitOfWork, loans loan.Repository, txs transaction.Repository, l ledger.Service, v valuation.Service, timeout time.Duration, opts ...Option) *Usecase {
	uc := &Usecase{uow: u, loans: loans, txs: txs, ledger: l, val: v, timeout: timeout, now: time.Now}
	if uc.timeout <= 0 {
		uc.timeout = 15 * time.Second
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

func externalErr(err error) error {
	if errors.Is(err, domain.ErrExternalService) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrExternalService, err)
}

func (u *Usecase) price(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	p, err := u.val.LatestBtcUsd(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: btc price: %v", domain.ErrValuation, err)
	}
	if !(p > 0) {
		return 0, fmt.Errorf("%w: btc price %v", domain.ErrValuation, p)
	}
	return p, nil
}

// Repay sends amount to the ledger against the loan. The transaction row is
// written before the ledger call so every attempt leaves a trace; it ends
// completed or failed. Principal is never touched and the loan is not
// closed implicitly.
func (u *Usecase) Repay(ctx context.Context, actor domain.Actor, loanID string, amount btcutil.Amount) (*RepayResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(l.BorrowerID) {
		return nil, domain.ErrUnauthorized
	}
	if !l.Status.Open() {
		return nil, fmt.Errorf("loan %s is %s: %w", loanID, l.Status, domain.ErrInvalidState)
	}
	price, err := u.price(ctx)
	if err != nil {
		return nil, err
	}

	now := u.now().UTC()
	lateFee := emi.LateFee(l.FixedEmiSats, l.NextDueDate, now)
	lid := l.LoanID
	tx := &transaction.Transaction{
		TxID:        id.New(),
		Type:        transaction.TypeRepayment,
		Amount:      int64(amount),
		Currency:    transaction.CurrencyBTC,
		Status:      transaction.StatusPending,
		SenderID:    l.BorrowerID,
		RecipientID: l.LenderID,
		LoanID:      &lid,
	}
	if err := u.txs.Create(ctx, tx); err != nil {
		return nil, err
	}

	lctx, cancel := context.WithTimeout(ctx, u.timeout)
	receipt, err := u.ledger.Repay(lctx, l.ChainLoanID, price, amount)
	cancel()

	// outcome is recorded even if the caller went away
	bg := context.WithoutCancel(ctx)
	if err != nil {
		if _, serr := u.txs.Settle(bg, tx.TxID, transaction.Settlement{Status: transaction.StatusFailed, FailureReason: err.Error()}); serr != nil {
			slog.Error("repayment settle failed", "tx_id", tx.TxID, "error", serr)
		}
		slog.Warn("ledger repay failed", "loan_id", loanID, "tx_id", tx.TxID, "error", err)
		return nil, fmt.Errorf("repay %s: %w", loanID, externalErr(err))
	}

	var next time.Time
	err = u.uow.WithinLoanTx(bg, loanID, func(r uow.Repos, locked *loan.Loan) error {
		ext := receipt.TxID
		ok, err := r.Transactions.Settle(bg, tx.TxID, transaction.Settlement{Status: transaction.StatusCompleted, ExternalTxID: &ext})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("transaction %s already settled: %w", tx.TxID, domain.ErrInvalidState)
		}
		next = locked.NextDueDate
		if !locked.Status.Open() {
			return nil
		}
		advanced := emi.AdvanceDueDate(locked.NextDueDate, locked.MaturityAt)
		if advanced.Equal(locked.NextDueDate) {
			return nil
		}
		if _, err := r.Loans.AdvanceDueDate(bg, loanID, locked.NextDueDate, advanced); err != nil {
			return err
		}
		next = advanced
		return nil
	})
	if err != nil {
		metrics.ReconciliationGaps.WithLabelValues("repay").Inc()
		slog.Error("repayment accepted by ledger but not recorded locally",
			"loan_id", loanID, "tx_id", tx.TxID, "ledger_tx", receipt.TxID, "error", err)
		return nil, &domain.GapError{Op: "repay", ChainLoanID: l.ChainLoanID, LedgerTxID: receipt.TxID, Err: err}
	}

	slog.Info("repayment recorded", "loan_id", loanID, "tx_id", tx.TxID, "amount_sats", int64(amount), "late_fee_sats", int64(lateFee))
	return &RepayResult{
		TxID:         tx.TxID,
		ExternalTxID: receipt.TxID,
		AmountSats:   int64(amount),
		PriceUSD:     price,
		LateFeeSats:  int64(lateFee),
		NextDueDate:  next,
	}, nil
}

// CloseLoan marks an active loan completed once the ledger closed it.
func (u *Usecase) CloseLoan(ctx context.Context, actor domain.Actor, loanID string) (*loanUC.LoanDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(l.BorrowerID) {
		return nil, domain.ErrUnauthorized
	}
	return u.flip(ctx, l, loan.StatusActive, loan.StatusCompleted, u.ledger.CloseLoan)
}

// OpenLoan reopens a completed loan. Admin only. The owner may have taken
// the collateral back after close; such a loan stays completed.
func (u *Usecase) OpenLoan(ctx context.Context, actor domain.Actor, loanID string) (*loanUC.LoanDTO, error) {
	if !actor.Admin {
		return nil, domain.ErrUnauthorized
	}
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		c, err := r.Collaterals.GetByCollateralID(ctx, l.CollateralID)
		if err != nil {
			return err
		}
		if c.Status != collateral.StatusLocked || !c.Associated() || *c.AssociationID != l.LoanID {
			return fmt.Errorf("collateral %s is %s: %w", c.CollateralID, c.Status, domain.ErrCollateralUnavailable)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reopen %s: %w", loanID, err)
	}
	return u.flip(ctx, l, loan.StatusCompleted, loan.StatusActive, u.ledger.OpenLoan)
}

func (u *Usecase) flip(ctx context.Context, l *loan.Loan, from, to loan.Status, call func(context.Context, uint64) (ledger.Ack, error)) (*loanUC.LoanDTO, error) {
	if l.Status != from {
		return nil, fmt.Errorf("loan %s is %s: %w", l.LoanID, l.Status, domain.ErrInvalidState)
	}

	lctx, cancel := context.WithTimeout(ctx, u.timeout)
	ack, err := call(lctx, l.ChainLoanID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("loan %s %s->%s: %w", l.LoanID, from, to, externalErr(err))
	}
	if !ack.Success {
		if u.strictAck {
			return nil, fmt.Errorf("%w: ledger refused %s->%s for loan %s: %s", domain.ErrExternalService, from, to, l.LoanID, ack.Message)
		}
		slog.Warn("ledger ack reported failure, applying local status anyway",
			"loan_id", l.LoanID, "from", from, "to", to, "message", ack.Message)
	}

	ok, err := u.loans.CompareAndSetStatus(context.WithoutCancel(ctx), l.LoanID, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("loan %s changed concurrently: %w", l.LoanID, domain.ErrInvalidState)
	}
	l.Status = to
	slog.Info("loan status changed", "loan_id", l.LoanID, "from", from, "to", to)
	return loanUC.ToDTO(l), nil
}

// Schedule renders the installment plan at the current BTC/USD price.
func (u *Usecase) Schedule(ctx context.Context, actor domain.Actor, loanID string) (*ScheduleView, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(l.BorrowerID) && !actor.CanActFor(l.LenderID) {
		return nil, domain.ErrUnauthorized
	}
	price, err := u.price(ctx)
	if err != nil {
		return nil, err
	}
	s, err := emi.Compute(emi.Input{
		PrincipalBTC:    l.PrincipalBTC(),
		PriceAtLoanTime: l.PriceAtLoanTime,
		AnnualRatePct:   l.InterestRate,
		RiskPct:         l.RiskFactor,
		TermMonths:      l.TermMonths,
		CurrentPrice:    price,
	})
	if err != nil {
		return nil, err
	}
	return &ScheduleView{
		LoanID:       l.LoanID,
		CurrentPrice: price,
		NextDueDate:  l.NextDueDate,
		LateFeeSats:  int64(emi.LateFee(l.FixedEmiSats, l.NextDueDate, u.now().UTC())),
		Schedule:     s,
	}, nil
}
