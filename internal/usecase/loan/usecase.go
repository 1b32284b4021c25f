package loan

import (
	"context"

	"btc-lending-backend/internal/domain"
	"btc-lending-backend/internal/domain/loan"
)

type Usecase struct{ repo loan.Repository }

func NewUsecase(r loan.Repository) *Usecase { return &Usecase{repo: r} }

// Get is visible to the borrower, the lender and admins.
func (u *Usecase) Get(ctx context.Context, actor domain.Actor, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !actor.CanActFor(l.BorrowerID) && !actor.CanActFor(l.LenderID) {
		return nil, domain.ErrUnauthorized
	}
	return ToDTO(l), nil
}

// List returns the loans the actor borrowed and the ones they funded.
func (u *Usecase) List(ctx context.Context, actor domain.Actor) (borrowed, funded []LoanDTO, err error) {
	bs, err := u.repo.ListByBorrower(ctx, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	ls, err := u.repo.ListByLender(ctx, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	borrowed = make([]LoanDTO, 0, len(bs))
	for i := range bs {
		borrowed = append(borrowed, *ToDTO(&bs[i]))
	}
	funded = make([]LoanDTO, 0, len(ls))
	for i := range ls {
		funded = append(funded, *ToDTO(&ls[i]))
	}
	return borrowed, funded, nil
}
