// Package reconcile compares the ledger's view of a loan with the local
// record. It never writes; operators act on the report.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"btc-lending-backend/internal/domain"
	"btc-lending-backend/internal/domain/ledger"
	"btc-lending-backend/internal/domain/loan"
)

type Report struct {
	ChainLoanID     uint64 `json:"chain_loan_id"`
	LoanID          string `json:"loan_id,omitempty"`
	LocalMissing    bool   `json:"local_missing"`
	StatusDrift     bool   `json:"status_drift"`
	PrincipalDrift  bool   `json:"principal_drift"`
	LocalStatus     string `json:"local_status,omitempty"`
	LedgerOpen      bool   `json:"ledger_open"`
	LocalPrincipal  int64  `json:"local_principal_sats"`
	LedgerPrincipal int64  `json:"ledger_principal_sats"`
	LedgerRepaid    int64  `json:"ledger_repaid_sats"`
}

func (r Report) Consistent() bool { return !r.LocalMissing && !r.StatusDrift && !r.PrincipalDrift }

type Usecase struct {
	loans   loan.Repository
	ledger  ledger.Service
	timeout time.Duration
}

func NewUsecase(loans loan.Repository, l ledger.Service, timeout time.Duration) *Usecase {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Usecase{loans: loans, ledger: l, timeout: timeout}
}

func (u *Usecase) Check(ctx context.Context, chainLoanID uint64) (*Report, error) {
	lctx, cancel := context.WithTimeout(ctx, u.timeout)
	snap, err := u.ledger.ReadLoanByID(lctx, chainLoanID)
	cancel()
	if err != nil {
		if !errors.Is(err, domain.ErrExternalService) {
			err = fmt.Errorf("%w: %v", domain.ErrExternalService, err)
		}
		return nil, fmt.Errorf("read ledger loan %d: %w", chainLoanID, err)
	}

	rep := &Report{
		ChainLoanID:     chainLoanID,
		LedgerOpen:      snap.Open,
		LedgerPrincipal: int64(snap.Principal),
		LedgerRepaid:    int64(snap.Repaid),
	}

	local, err := u.loans.GetByChainLoanID(ctx, chainLoanID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		rep.LocalMissing = true
	case err != nil:
		return nil, err
	default:
		rep.LoanID = local.LoanID
		rep.LocalStatus = string(local.Status)
		rep.LocalPrincipal = int64(local.PrincipalSats)
		rep.StatusDrift = local.Status.Open() != snap.Open
		rep.PrincipalDrift = local.PrincipalSats != snap.Principal
	}

	if !rep.Consistent() {
		slog.Warn("ledger and local loan disagree", "chain_loan_id", chainLoanID, "loan_id", rep.LoanID,
			"local_missing", rep.LocalMissing, "status_drift", rep.StatusDrift, "principal_drift", rep.PrincipalDrift)
	}
	return rep, nil
}
