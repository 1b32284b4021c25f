package collateral

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"btc-lending-backend/internal/domain"
	domainColl "btc-lending-backend/internal/domain/collateral"
	"btc-lending-backend/internal/domain/loan"
	"btc-lending-backend/internal/testutil/collateralmock"
	"btc-lending-backend/internal/testutil/dbtest"
	"btc-lending-backend/internal/testutil/valuationmock"
	"btc-lending-backend/pkg/id"
)

const (
	owner    = "oooooooooooooooooooooooooooooooo"
	stranger = "ssssssssssssssssssssssssssssssss"
)

func newUsecase(t *testing.T) (*Usecase, domainColl.Repository) {
	t.Helper()
	repos := dbtest.Repos(dbtest.Open(t))
	return NewUsecase(repos.Collaterals, repos.Loans, valuationmock.Fixed(60_000), 0), repos.Collaterals
}

func register(t *testing.T, uc *Usecase) *CollateralDTO {
	t.Helper()
	c, err := uc.Register(context.Background(), domain.Actor{ID: owner}, RegisterInput{Type: domainColl.TypeGold, Ounces: 10})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return c
}

func TestRegister_ValuesAsset(t *testing.T) {
	uc, _ := newUsecase(t)
	ctx := context.Background()
	actor := domain.Actor{ID: owner}

	gold, err := uc.Register(ctx, actor, RegisterInput{Type: domainColl.TypeGold, Ounces: 2})
	if err != nil {
		t.Fatalf("gold: %v", err)
	}
	if gold.ValueUSD != 4600 || gold.Status != string(domainColl.StatusUnlocked) || gold.OwnerID != owner {
		t.Fatalf("gold dto: %+v", gold)
	}

	prop, err := uc.Register(ctx, actor, RegisterInput{Type: domainColl.TypeProperty, City: "Austin", AreaSqFt: 1000})
	if err != nil {
		t.Fatalf("property: %v", err)
	}
	if prop.ValueUSD != 250_000 || prop.City != "Austin" {
		t.Fatalf("property dto: %+v", prop)
	}
}

func TestRegister_ValuationErrors(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{ID: owner}
	uc, _ := newUsecase(t)

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"gold without ounces", RegisterInput{Type: domainColl.TypeGold}, domain.ErrValuation},
		{"property without city", RegisterInput{Type: domainColl.TypeProperty, AreaSqFt: 50}, domain.ErrValuation},
		{"property without area", RegisterInput{Type: domainColl.TypeProperty, City: "Austin"}, domain.ErrValuation},
		{"unknown type", RegisterInput{Type: "art"}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.Register(ctx, actor, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}

	failing := valuationmock.Fixed(60_000)
	failing.GoldValueFn = func(context.Context, float64) (float64, error) { return 0, errors.New("feed down") }
	uc2 := NewUsecase(&collateralmock.Repo{
		CreateFn: func(context.Context, *domainColl.Collateral) error {
			t.Fatal("Create must not run when valuation fails")
			return nil
		},
	}, nil, failing, 0)
	if _, err := uc2.Register(ctx, actor, RegisterInput{Type: domainColl.TypeGold, Ounces: 1}); !errors.Is(err, domain.ErrValuation) {
		t.Fatalf("lookup failure: want ErrValuation, got %v", err)
	}
}

func TestRegister_ForSomeoneElse(t *testing.T) {
	uc, _ := newUsecase(t)
	ctx := context.Background()
	in := RegisterInput{OwnerID: owner, Type: domainColl.TypeGold, Ounces: 1}

	if _, err := uc.Register(ctx, domain.Actor{ID: stranger}, in); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stranger: want ErrUnauthorized, got %v", err)
	}
	if _, err := uc.Register(ctx, domain.Actor{ID: stranger, Admin: true}, in); err != nil {
		t.Fatalf("admin: %v", err)
	}
}

func TestLock_OnlyFromUnlocked(t *testing.T) {
	uc, repo := newUsecase(t)
	ctx := context.Background()
	c := register(t, uc)

	if err := uc.Lock(ctx, domain.Actor{ID: stranger}, c.CollateralID, "app-1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stranger lock: %v", err)
	}
	if err := uc.Lock(ctx, domain.Actor{ID: owner}, c.CollateralID, "app-1"); err != nil {
		t.Fatalf("lock: %v", err)
	}
	got, _ := repo.GetByCollateralID(ctx, c.CollateralID)
	if got.Status != domainColl.StatusLocked || !got.Associated() || *got.AssociationID != "app-1" {
		t.Fatalf("after lock: %+v", got)
	}
	if err := uc.Lock(ctx, domain.Actor{ID: owner}, c.CollateralID, "app-2"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("relock: want ErrInvalidState, got %v", err)
	}
}

func TestLock_ConcurrentSingleWinner(t *testing.T) {
	uc, _ := newUsecase(t)
	c := register(t, uc)

	var wins, losses int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := uc.Lock(context.Background(), domain.Actor{ID: owner}, c.CollateralID, "app-"+string(rune('a'+i)))
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, domain.ErrInvalidState):
				atomic.AddInt32(&losses, 1)
			default:
				t.Errorf("unexpected: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 || losses != 7 {
		t.Fatalf("wins=%d losses=%d", wins, losses)
	}
}

func TestRelease(t *testing.T) {
	uc, repo := newUsecase(t)
	ctx := context.Background()
	me := domain.Actor{ID: owner}

	c := register(t, uc)
	if err := uc.Lock(ctx, me, c.CollateralID, "app-1"); err != nil {
		t.Fatal(err)
	}
	if err := uc.Release(ctx, me, c.CollateralID); err != nil {
		t.Fatalf("release: %v", err)
	}
	got, _ := repo.GetByCollateralID(ctx, c.CollateralID)
	if got.Status != domainColl.StatusReleased || got.Associated() {
		t.Fatalf("after release: %+v", got)
	}
	// already released is a no-op
	if err := uc.Release(ctx, me, c.CollateralID); err != nil {
		t.Fatalf("second release: %v", err)
	}
	// released is terminal
	if err := uc.Lock(ctx, me, c.CollateralID, "app-2"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("lock released: %v", err)
	}
	if _, err := uc.Liquidate(ctx, c.CollateralID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("liquidate released: %v", err)
	}
}

func TestRelease_LoanBackedNeedsAdmin(t *testing.T) {
	uc, repo := newUsecase(t)
	ctx := context.Background()
	c := register(t, uc)

	if err := Lock(ctx, repo, c.CollateralID, "app-1", domainColl.AssocApplication); err != nil {
		t.Fatal(err)
	}
	if err := Reassociate(ctx, repo, c.CollateralID, "app-1", "loan-1", domainColl.AssocLoan); err != nil {
		t.Fatal(err)
	}
	if err := uc.Release(ctx, domain.Actor{ID: owner}, c.CollateralID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("owner release of loan collateral: %v", err)
	}
	if err := uc.Release(ctx, domain.Actor{ID: "admin", Admin: true}, c.CollateralID); err != nil {
		t.Fatalf("admin release: %v", err)
	}
}

func TestRelease_OwnerAfterLoanCompleted(t *testing.T) {
	uc, repo := newUsecase(t)
	ctx := context.Background()
	c := register(t, uc)

	l := &loan.Loan{
		LoanID:        id.New(),
		ChainLoanID:   5,
		ApplicationID: "app-1",
		LenderID:      stranger,
		BorrowerID:    owner,
		PrincipalSats: 8_333_333,
		TermMonths:    12,
		CollateralID:  c.CollateralID,
		FixedEmiSats:  752_137,
		IssuedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		MaturityAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		NextDueDate:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:        loan.StatusActive,
	}
	if err := uc.loans.Create(ctx, l); err != nil {
		t.Fatal(err)
	}
	if err := Lock(ctx, repo, c.CollateralID, "app-1", domainColl.AssocApplication); err != nil {
		t.Fatal(err)
	}
	if err := Reassociate(ctx, repo, c.CollateralID, "app-1", l.LoanID, domainColl.AssocLoan); err != nil {
		t.Fatal(err)
	}

	if err := uc.Release(ctx, domain.Actor{ID: owner}, c.CollateralID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("owner release while loan active: %v", err)
	}
	if ok, err := uc.loans.CompareAndSetStatus(ctx, l.LoanID, loan.StatusActive, loan.StatusCompleted); !ok || err != nil {
		t.Fatal(ok, err)
	}
	if err := uc.Release(ctx, domain.Actor{ID: stranger}, c.CollateralID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stranger release: %v", err)
	}
	if err := uc.Release(ctx, domain.Actor{ID: owner}, c.CollateralID); err != nil {
		t.Fatalf("owner release after completion: %v", err)
	}
	got, _ := repo.GetByCollateralID(ctx, c.CollateralID)
	if got.Status != domainColl.StatusReleased || got.Associated() {
		t.Fatalf("after release: %+v", got)
	}
}

func TestReassociate_RequiresCurrentAssociation(t *testing.T) {
	uc, repo := newUsecase(t)
	ctx := context.Background()
	c := register(t, uc)

	if err := Lock(ctx, repo, c.CollateralID, "app-1", domainColl.AssocApplication); err != nil {
		t.Fatal(err)
	}
	if err := Reassociate(ctx, repo, c.CollateralID, "app-other", "loan-1", domainColl.AssocLoan); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("wrong source association: %v", err)
	}
}

func TestLiquidate_Idempotent(t *testing.T) {
	uc, repo := newUsecase(t)
	ctx := context.Background()
	c := register(t, uc)
	if err := uc.Lock(ctx, domain.Actor{ID: owner}, c.CollateralID, "loan-1"); err != nil {
		t.Fatal(err)
	}

	changed, err := uc.Liquidate(ctx, c.CollateralID)
	if err != nil || !changed {
		t.Fatalf("first liquidate: changed=%v err=%v", changed, err)
	}
	changed, err = uc.Liquidate(ctx, c.CollateralID)
	if err != nil || changed {
		t.Fatalf("second liquidate: changed=%v err=%v", changed, err)
	}
	got, _ := repo.GetByCollateralID(ctx, c.CollateralID)
	if got.Status != domainColl.StatusLiquidated || got.Associated() {
		t.Fatalf("after liquidate: %+v", got)
	}
	if err := uc.Release(ctx, domain.Actor{ID: owner}, c.CollateralID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("release liquidated: %v", err)
	}
}

func TestListByOwner(t *testing.T) {
	uc, _ := newUsecase(t)
	ctx := context.Background()
	register(t, uc)
	register(t, uc)

	rows, err := uc.ListByOwner(ctx, domain.Actor{ID: owner}, owner)
	if err != nil || len(rows) != 2 {
		t.Fatalf("rows=%d err=%v", len(rows), err)
	}
	if _, err := uc.ListByOwner(ctx, domain.Actor{ID: stranger}, owner); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stranger list: %v", err)
	}
}
