package issuance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/btcsuite/btcutil"

	"btc-lending-backend/internal/domain"
	"btc-lending-backend/internal/domain/application"
	"btc-lending-backend/internal/domain/collateral"
	"btc-lending-backend/internal/domain/emi"
	"btc-lending-backend/internal/domain/ledger"
	"btc-lending-backend/internal/domain/loan"
	"btc-lending-backend/internal/domain/transaction"
	"btc-lending-backend/internal/domain/uow"
	"btc-lending-backend/internal/domain/valuation"
	"btc-lending-backend/internal/infrastructure/lock"
	"btc-lending-backend/internal/infrastructure/metrics"
	collateralUC "btc-lending-backend/internal/usecase/collateral"
	loanUC "btc-lending-backend/internal/usecase/loan"
	"btc-lending-backend/pkg/id"
)

type Usecase struct {
	uow     uow.UnitOfWork
	repos   uow.Repos // reads outside the persistence transaction
	ledger  ledger.Service
	val     valuation.Service
	locker  lock.Locker
	timeout time.Duration
	lockTTL time.Duration
	now     func() time.Time
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func WithLockTTL(d time.Duration) Option { return func(u *Usecase) { u.lockTTL = d } }

func NewUsecase(u uow.UnitOfWork, repos uow.Repos, l ledger.Service, v valuation.Service, locker lock.Locker, timeout time.Duration, opts ...Option) *Usecase {
	uc := &Usecase{
		uow:     u,
		repos:   repos,
		ledger:  l,
		val:     v,
		locker:  locker,
		timeout: timeout,
		lockTTL: 2 * time.Minute,
		now:     time.Now,
	}
	if uc.timeout <= 0 {
		uc.timeout = 15 * time.Second
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// Issue funds a pending application: ledger first, then one local
// transaction. A ledger failure leaves nothing behind locally. A local
// failure after the ledger accepted the loan is a reconciliation gap.
func (u *Usecase) Issue(ctx context.Context, lender domain.Actor, applicationID string) (*loanUC.LoanDTO, error) {
	lease, err := u.locker.Acquire(ctx, application.IssueLockKey(applicationID), u.lockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, fmt.Errorf("application %s: %w", applicationID, domain.ErrIssuanceInProgress)
	}
	if err != nil {
		return nil, fmt.Errorf("issue lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("issue lock release failed", "application_id", applicationID, "error", err)
		}
	}()

	app, coll, req, err := u.prepare(ctx, lender, applicationID)
	if err != nil {
		return nil, err
	}

	lctx, cancel := context.WithTimeout(ctx, u.timeout)
	receipt, err := u.ledger.Loan(lctx, req)
	cancel()
	if err != nil {
		if !errors.Is(err, domain.ErrExternalService) {
			err = fmt.Errorf("%w: %v", domain.ErrExternalService, err)
		}
		slog.Warn("ledger loan failed", "application_id", applicationID, "error", err)
		return nil, fmt.Errorf("issue %s: %w", applicationID, err)
	}

	l := u.newLoan(lender, app, coll, req, receipt)
	if err := u.persist(ctx, l, app, receipt); err != nil {
		metrics.ReconciliationGaps.WithLabelValues("issue").Inc()
		slog.Error("loan issued on ledger but not recorded locally",
			"application_id", applicationID, "chain_loan_id", receipt.ChainLoanID, "ledger_tx", receipt.TxID, "error", err)
		return nil, &domain.GapError{Op: "issue", ChainLoanID: receipt.ChainLoanID, LedgerTxID: receipt.TxID, Err: err}
	}

	slog.Info("loan issued", "loan_id", l.LoanID, "chain_loan_id", l.ChainLoanID, "application_id", applicationID,
		"lender_id", lender.ID, "principal_sats", int64(l.PrincipalSats))
	return loanUC.ToDTO(l), nil
}

func (u *Usecase) prepare(ctx context.Context, lender domain.Actor, applicationID string) (*application.Application, *collateral.Collateral, ledger.LoanRequest, error) {
	var req ledger.LoanRequest

	app, err := u.repos.Applications.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, nil, req, err
	}
	if app.Status != application.StatusPending {
		return nil, nil, req, fmt.Errorf("application %s is %s: %w", applicationID, app.Status, domain.ErrInvalidState)
	}
	if lender.ID == "" || lender.ID == app.BorrowerID {
		return nil, nil, req, fmt.Errorf("lender cannot fund own application: %w", domain.ErrUnauthorized)
	}

	coll, err := u.repos.Collaterals.GetByCollateralID(ctx, app.CollateralID)
	if err != nil {
		return nil, nil, req, err
	}
	if coll.Status != collateral.StatusLocked || !coll.Associated() || *coll.AssociationID != applicationID {
		return nil, nil, req, fmt.Errorf("collateral %s not pledged to %s: %w", coll.CollateralID, applicationID, domain.ErrCollateralUnavailable)
	}

	borrower, err := u.repos.Accounts.GetByUserID(ctx, app.BorrowerID)
	if err != nil {
		return nil, nil, req, fmt.Errorf("borrower account: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, u.timeout)
	price, err := u.val.LatestBtcUsd(vctx)
	cancel()
	if err != nil {
		return nil, nil, req, fmt.Errorf("%w: btc price: %v", domain.ErrValuation, err)
	}
	if !(price > 0) || math.IsInf(price, 0) {
		return nil, nil, req, fmt.Errorf("%w: btc price %v", domain.ErrValuation, price)
	}

	principal, err := btcutil.NewAmount(app.AmountUSD / price)
	if err != nil || principal <= 0 {
		return nil, nil, req, fmt.Errorf("%w: principal for %.2f USD at %.2f", domain.ErrValidation, app.AmountUSD, price)
	}

	req = ledger.LoanRequest{
		BorrowerAddress:    borrower.WalletAddress,
		Principal:          principal,
		InterestRatePct:    app.InterestRate,
		LoanTypeCode:       loan.LoanTypeFixedEmi,
		PriceAtLoanTimeUSD: price,
		TermMonths:         app.TermMonths,
		RiskPct:            app.RiskFactor,
		CollateralTypeCode: coll.Type.LedgerCode(),
		CollateralValueUSD: coll.ValueUSD,
		CollateralID:       coll.CollateralID,
	}
	return app, coll, req, nil
}

func (u *Usecase) newLoan(lender domain.Actor, app *application.Application, coll *collateral.Collateral, req ledger.LoanRequest, receipt ledger.LoanReceipt) *loan.Loan {
	issued := u.now().UTC()
	maturity := emi.Maturity(issued, app.TermMonths)
	due := emi.NextDueDate(issued)
	if due.After(maturity) {
		due = maturity
	}
	return &loan.Loan{
		LoanID:             id.New(),
		ChainLoanID:        receipt.ChainLoanID,
		ApplicationID:      app.ApplicationID,
		LenderID:           lender.ID,
		BorrowerID:         app.BorrowerID,
		PrincipalSats:      req.Principal,
		InterestRate:       app.InterestRate,
		RiskFactor:         app.RiskFactor,
		TermMonths:         app.TermMonths,
		PriceAtLoanTime:    req.PriceAtLoanTimeUSD,
		CollateralTypeCode: req.CollateralTypeCode,
		CollateralValueUSD: coll.ValueUSD,
		CollateralID:       coll.CollateralID,
		FixedEmiSats:       emi.ToSats(emi.FixedEmiBTC(req.Principal.ToBTC(), app.InterestRate, app.RiskFactor, app.TermMonths)),
		IssuedAt:           issued,
		MaturityAt:         maturity,
		NextDueDate:        due,
		Status:             loan.StatusActive,
		StatusUpdatedAt:    issued,
	}
}

func (u *Usecase) persist(ctx context.Context, l *loan.Loan, app *application.Application, receipt ledger.LoanReceipt) error {
	// the ledger already moved funds; a cancelled request must not stop the write
	ctx = context.WithoutCancel(ctx)
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		ok, err := r.Applications.CompareAndSetStatus(ctx, app.ApplicationID, application.StatusPending, application.StatusFulfilled)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("application %s no longer pending: %w", app.ApplicationID, domain.ErrInvalidState)
		}
		if err := collateralUC.Reassociate(ctx, r.Collaterals, l.CollateralID, app.ApplicationID, l.LoanID, collateral.AssocLoan); err != nil {
			return err
		}
		loanID := l.LoanID
		var ext *string
		if receipt.TxID != "" {
			ext = &receipt.TxID
		}
		return r.Transactions.Create(ctx, &transaction.Transaction{
			TxID:         id.New(),
			Type:         transaction.TypeDisbursement,
			Amount:       int64(l.PrincipalSats),
			Currency:     transaction.CurrencyBTC,
			Status:       transaction.StatusCompleted,
			SenderID:     l.LenderID,
			RecipientID:  l.BorrowerID,
			LoanID:       &loanID,
			ExternalTxID: ext,
		})
	})
}
