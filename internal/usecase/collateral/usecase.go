package collateral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"btc-lending-backend/internal/domain"
	"btc-lending-backend/internal/domain/collateral"
	"btc-lending-backend/internal/domain/loan"
	"btc-lending-backend/internal/domain/valuation"
	"btc-lending-backend/pkg/id"
)

type Usecase struct {
	repo    collateral.Repository
	loans   loan.Repository
	val     valuation.Service
	timeout time.Duration
}

// NewUsecase wires the collateral flows. loans may be nil, in which case
// collateral held by any loan is released by an admin only.
func NewUsecase(repo collateral.Repository, loans loan.Repository, val valuation.Service, timeout time.Duration) *Usecase {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Usecase{repo: repo, loans: loans, val: val, timeout: timeout}
}

// Register values the asset and stores it unlocked.
func (u *Usecase) Register(ctx context.Context, actor domain.Actor, in RegisterInput) (*CollateralDTO, error) {
	owner := strings.TrimSpace(in.OwnerID)
	if owner == "" {
		owner = actor.ID
	}
	if !actor.CanActFor(owner) {
		return nil, fmt.Errorf("register collateral for %s: %w", owner, domain.ErrUnauthorized)
	}

	value, qty, err := u.appraise(ctx, in)
	if err != nil {
		return nil, err
	}

	c := &collateral.Collateral{
		CollateralID:    id.New(),
		OwnerID:         owner,
		Type:            in.Type,
		Quantity:        qty,
		City:            strings.TrimSpace(in.City),
		ValueUSD:        value,
		Status:          collateral.StatusUnlocked,
		StatusUpdatedAt: time.Now().UTC(),
	}
	if err := u.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	slog.Info("collateral registered", "collateral_id", c.CollateralID, "owner_id", owner, "type", c.Type, "value_usd", value)
	return toDTO(c), nil
}

func (u *Usecase) appraise(ctx context.Context, in RegisterInput) (float64, float64, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	switch in.Type {
	case collateral.TypeGold:
		if !(in.Ounces > 0) {
			return 0, 0, fmt.Errorf("%w: gold needs a positive ounce quantity", domain.ErrValuation)
		}
		v, err := u.val.GoldValue(ctx, in.Ounces)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: gold value: %v", domain.ErrValuation, err)
		}
		return v, in.Ounces, nil
	case collateral.TypeProperty:
		if strings.TrimSpace(in.City) == "" || !(in.AreaSqFt > 0) {
			return 0, 0, fmt.Errorf("%w: property needs a city and a positive area", domain.ErrValuation)
		}
		v, err := u.val.PropertyValue(ctx, strings.TrimSpace(in.City), in.AreaSqFt)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: property value: %v", domain.ErrValuation, err)
		}
		return v, in.AreaSqFt, nil
	default:
		return 0, 0, fmt.Errorf("%w: unknown collateral type %q", domain.ErrValidation, in.Type)
	}
}

func (u *Usecase) Get(ctx context.Context, collateralID string) (*CollateralDTO, error) {
	c, err := u.repo.GetByCollateralID(ctx, collateralID)
	if err != nil {
		return nil, err
	}
	return toDTO(c), nil
}

func (u *Usecase) ListByOwner(ctx context.Context, actor domain.Actor, ownerID string) ([]CollateralDTO, error) {
	if !actor.CanActFor(ownerID) {
		return nil, domain.ErrUnauthorized
	}
	rows, err := u.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]CollateralDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

func (u *Usecase) Lock(ctx context.Context, actor domain.Actor, collateralID, associationID string) error {
	c, err := u.repo.GetByCollateralID(ctx, collateralID)
	if err != nil {
		return err
	}
	if !actor.CanActFor(c.OwnerID) {
		return domain.ErrUnauthorized
	}
	return Lock(ctx, u.repo, collateralID, associationID, collateral.AssocApplication)
}

func (u *Usecase) Release(ctx context.Context, actor domain.Actor, collateralID string) error {
	c, err := u.repo.GetByCollateralID(ctx, collateralID)
	if err != nil {
		return err
	}
	if !actor.CanActFor(c.OwnerID) {
		return domain.ErrUnauthorized
	}
	if c.AssociationKind == collateral.AssocLoan && !actor.Admin {
		if err := u.loanSettled(ctx, c); err != nil {
			return err
		}
	}
	return Release(ctx, u.repo, c)
}

// loanSettled allows an owner release only once the loan the collateral
// secures is completed. An open loan keeps it until liquidation or an admin.
func (u *Usecase) loanSettled(ctx context.Context, c *collateral.Collateral) error {
	if u.loans == nil || !c.Associated() {
		return fmt.Errorf("collateral %s secures a loan: %w", c.CollateralID, domain.ErrInvalidState)
	}
	l, err := u.loans.GetByLoanID(ctx, *c.AssociationID)
	if err != nil {
		return fmt.Errorf("collateral %s loan: %w", c.CollateralID, err)
	}
	if l.Status != loan.StatusCompleted {
		return fmt.Errorf("collateral %s secures %s loan %s: %w", c.CollateralID, l.Status, l.LoanID, domain.ErrInvalidState)
	}
	return nil
}

// Liquidate needs no actor: only the liquidation sweep calls it.
func (u *Usecase) Liquidate(ctx context.Context, collateralID string) (bool, error) {
	return Liquidate(ctx, u.repo, collateralID)
}

// Lock moves an unlocked, unassociated collateral to locked. It takes the
// repository explicitly so callers can run it inside a unit of work.
func Lock(ctx context.Context, repo collateral.Repository, collateralID, associationID string, kind collateral.AssociationKind) error {
	if associationID == "" {
		return fmt.Errorf("%w: association id required", domain.ErrValidation)
	}
	ok, err := repo.CompareAndSet(ctx, collateralID, collateral.Transition{
		From:        []collateral.Status{collateral.StatusUnlocked},
		To:          collateral.StatusLocked,
		Association: &associationID,
		Kind:        kind,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("lock collateral %s: %w", collateralID, domain.ErrInvalidState)
	}
	return nil
}

// Reassociate moves the lock from one owner record to another without
// leaving the locked state.
func Reassociate(ctx context.Context, repo collateral.Repository, collateralID, from, to string, kind collateral.AssociationKind) error {
	ok, err := repo.CompareAndSet(ctx, collateralID, collateral.Transition{
		From:            []collateral.Status{collateral.StatusLocked},
		FromAssociation: &from,
		To:              collateral.StatusLocked,
		Association:     &to,
		Kind:            kind,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("collateral %s not locked to %s: %w", collateralID, from, domain.ErrInvalidState)
	}
	return nil
}

// Release ends c's life as collateral. The CAS is pinned to the status and
// association we read, so a concurrent issuance that moved the lock onto a
// loan wins over this release.
func Release(ctx context.Context, repo collateral.Repository, c *collateral.Collateral) error {
	switch c.Status {
	case collateral.StatusReleased:
		return nil
	case collateral.StatusLiquidated:
		return fmt.Errorf("release collateral %s: already liquidated: %w", c.CollateralID, domain.ErrInvalidState)
	}
	t := collateral.Transition{
		From: []collateral.Status{c.Status},
		To:   collateral.StatusReleased,
	}
	if c.Associated() {
		t.FromAssociation = c.AssociationID
	}
	ok, err := repo.CompareAndSet(ctx, c.CollateralID, t)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	cur, err := repo.GetByCollateralID(ctx, c.CollateralID)
	if err != nil {
		return err
	}
	if cur.Status == collateral.StatusReleased {
		return nil
	}
	return fmt.Errorf("release collateral %s from %s: %w", c.CollateralID, cur.Status, domain.ErrInvalidState)
}

// Liquidate seizes a non-terminal collateral. Repeating it is a no-op that
// reports changed=false; liquidating a released collateral is an error.
func Liquidate(ctx context.Context, repo collateral.Repository, collateralID string) (bool, error) {
	ok, err := repo.CompareAndSet(ctx, collateralID, collateral.Transition{
		From: []collateral.Status{collateral.StatusUnlocked, collateral.StatusLocked},
		To:   collateral.StatusLiquidated,
	})
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	cur, err := repo.GetByCollateralID(ctx, collateralID)
	if err != nil {
		return false, err
	}
	if cur.Status == collateral.StatusLiquidated {
		return false, nil
	}
	return false, fmt.Errorf("liquidate collateral %s from %s: %w", collateralID, cur.Status, domain.ErrInvalidState)
}

// IsUnavailable reports whether err means the collateral cannot be pledged.
func IsUnavailable(err error) bool {
	return errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrCollateralUnavailable)
}
