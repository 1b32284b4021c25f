package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every usecase. Callers wrap them with context via
// fmt.Errorf("...: %w", ErrX) and match with errors.Is.
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("not authorized")
	ErrInvalidState          = errors.New("invalid state transition")
	ErrCollateralUnavailable = errors.New("collateral unavailable")
	ErrValuation             = errors.New("valuation failed")
	ErrExternalService       = errors.New("external service error")

	// ErrReconciliationGap means the ledger accepted an operation but the
	// local store failed to record it. Needs out-of-band reconciliation.
	ErrReconciliationGap = errors.New("reconciliation gap: ledger succeeded, local persistence failed")

	ErrIssuanceInProgress = errors.New("issuance already in progress for application")
	ErrTickInProgress     = errors.New("liquidation sweep already running")
)

// Actor is the already-authenticated caller of an operation.
type Actor struct {
	ID    string
	Admin bool
}

// System is used by background jobs; it bypasses ownership checks.
var System = Actor{ID: "system", Admin: true}

// CanActFor reports whether the actor may mutate resources owned by ownerID.
func (a Actor) CanActFor(ownerID string) bool {
	return a.Admin || (a.ID != "" && a.ID == ownerID)
}

// GapError is returned when the ledger applied an operation that could not
// be recorded locally. errors.Is matches both ErrReconciliationGap and Err.
type GapError struct {
	Op          string
	ChainLoanID uint64
	LedgerTxID  string
	Err         error
}

func (e *GapError) Error() string {
	return fmt.Sprintf("%s: %s chain_loan_id=%d ledger_tx=%s: %v", ErrReconciliationGap, e.Op, e.ChainLoanID, e.LedgerTxID, e.Err)
}

func (e *GapError) Unwrap() []error { return []error{ErrReconciliationGap, e.Err} }
