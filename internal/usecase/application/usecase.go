package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"btc-lending-backend/internal/domain"
	"btc-lending-backend/internal/domain/application"
	"btc-lending-backend/internal/domain/collateral"
	"btc-lending-backend/internal/domain/uow"
	"btc-lending-backend/internal/infrastructure/lock"
	collateralUC "btc-lending-backend/internal/usecase/collateral"
	"btc-lending-backend/pkg/id"
)

// rejectLockTTL bounds how long a crashed Reject can block issuance.
const rejectLockTTL = 30 * time.Second

type Usecase struct {
	uow          uow.UnitOfWork
	applications application.Repository
	locker       lock.Locker
}

func NewUsecase(u uow.UnitOfWork, apps application.Repository, locker lock.Locker) *Usecase {
	if locker == nil {
		locker = lock.Noop{}
	}
	return &Usecase{uow: u, applications: apps, locker: locker}
}

func (in ApplyInput) validate() error {
	switch {
	case !(in.AmountUSD > 0) || math.IsInf(in.AmountUSD, 0):
		return fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	case in.InterestRate < 0, in.RiskFactor < 0:
		return fmt.Errorf("%w: rates must not be negative", domain.ErrValidation)
	case in.TermMonths <= 0:
		return fmt.Errorf("%w: term must be at least one month", domain.ErrValidation)
	case in.CollateralID == "":
		return fmt.Errorf("%w: collateral id required", domain.ErrValidation)
	}
	return nil
}

// Apply pledges the collateral and records a pending application in one
// transaction. The collateral CAS is what serializes competing applicants:
// only one UPDATE can see the row unlocked.
func (u *Usecase) Apply(ctx context.Context, actor domain.Actor, in ApplyInput) (*ApplicationDTO, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	app := &application.Application{
		ApplicationID:   id.New(),
		BorrowerID:      actor.ID,
		AmountUSD:       in.AmountUSD,
		InterestRate:    in.InterestRate,
		RiskFactor:      in.RiskFactor,
		TermMonths:      in.TermMonths,
		CollateralID:    in.CollateralID,
		Status:          application.StatusPending,
		StatusUpdatedAt: time.Now().UTC(),
	}

	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		c, err := r.Collaterals.GetByCollateralID(ctx, in.CollateralID)
		if err != nil {
			return err
		}
		if c.OwnerID != actor.ID {
			return fmt.Errorf("collateral %s: %w", in.CollateralID, domain.ErrUnauthorized)
		}
		if c.Status != collateral.StatusUnlocked || c.Associated() {
			return fmt.Errorf("collateral %s is %s: %w", in.CollateralID, c.Status, domain.ErrCollateralUnavailable)
		}
		if err := collateralUC.Lock(ctx, r.Collaterals, in.CollateralID, app.ApplicationID, collateral.AssocApplication); err != nil {
			if collateralUC.IsUnavailable(err) {
				return fmt.Errorf("collateral %s: %w", in.CollateralID, domain.ErrCollateralUnavailable)
			}
			return err
		}
		return r.Applications.Create(ctx, app)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("loan application created", "application_id", app.ApplicationID, "borrower_id", actor.ID, "collateral_id", in.CollateralID)
	return toDTO(app), nil
}

func (u *Usecase) Get(ctx context.Context, applicationID string) (*ApplicationDTO, error) {
	a, err := u.applications.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return toDTO(a), nil
}

func (u *Usecase) MyPending(ctx context.Context, actor domain.Actor) ([]ApplicationDTO, error) {
	rows, err := u.applications.ListPendingByBorrower(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

// Marketplace lists what a lender can fund; the caller's own applications
// are excluded so nobody lends to themselves.
func (u *Usecase) Marketplace(ctx context.Context, actor domain.Actor) ([]ApplicationDTO, error) {
	rows, err := u.applications.ListPendingExcluding(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

// Reject withdraws a pending application and releases its collateral. It
// takes the issuance lease, so an application cannot be rejected while a
// lender's ledger call for it is in flight.
func (u *Usecase) Reject(ctx context.Context, actor domain.Actor, applicationID string) error {
	lease, err := u.locker.Acquire(ctx, application.IssueLockKey(applicationID), rejectLockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return fmt.Errorf("application %s: %w", applicationID, domain.ErrIssuanceInProgress)
	}
	if err != nil {
		return fmt.Errorf("reject lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("reject lock release failed", "application_id", applicationID, "error", err)
		}
	}()

	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Applications.GetByApplicationID(ctx, applicationID)
		if err != nil {
			return err
		}
		if !actor.CanActFor(a.BorrowerID) {
			return domain.ErrUnauthorized
		}
		ok, err := r.Applications.CompareAndSetStatus(ctx, applicationID, application.StatusPending, application.StatusRejected)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("application %s is %s: %w", applicationID, a.Status, domain.ErrInvalidState)
		}

		c, err := r.Collaterals.GetByCollateralID(ctx, a.CollateralID)
		if err != nil {
			return err
		}
		// only release the lock this application holds
		if c.Associated() && *c.AssociationID != applicationID {
			return nil
		}
		return collateralUC.Release(ctx, r.Collaterals, c)
	})
}
