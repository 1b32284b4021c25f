package mysql

import (
	"context"
	"testing"

	"btc-lending-backend/internal/domain/application"
	"btc-lending-backend/pkg/id"
)

func seedApplication(t *testing.T, repo *ApplicationRepository, borrower string, status application.Status) *application.Application {
	t.Helper()
	a := &application.Application{
		ApplicationID: id.New(),
		BorrowerID:    borrower,
		AmountUSD:     5000,
		InterestRate:  10,
		RiskFactor:    5,
		TermMonths:    12,
		CollateralID:  id.New(),
		Status:        status,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return a
}

func TestApplication_PendingAndMarketplace(t *testing.T) {
	db := openTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	me := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	other := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	mine := seedApplication(t, repo, me, application.StatusPending)
	seedApplication(t, repo, me, application.StatusRejected)
	theirs := seedApplication(t, repo, other, application.StatusPending)
	seedApplication(t, repo, other, application.StatusFulfilled)

	pending, err := repo.ListPendingByBorrower(ctx, me)
	if err != nil || len(pending) != 1 || pending[0].ApplicationID != mine.ApplicationID {
		t.Fatalf("ListPendingByBorrower = %+v, %v", pending, err)
	}

	market, err := repo.ListPendingExcluding(ctx, me)
	if err != nil || len(market) != 1 || market[0].ApplicationID != theirs.ApplicationID {
		t.Fatalf("marketplace must hold only other borrowers' pending applications: %+v, %v", market, err)
	}
}

func TestApplication_CompareAndSetStatus(t *testing.T) {
	db := openTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	a := seedApplication(t, repo, "b", application.StatusPending)
	ok, err := repo.CompareAndSetStatus(ctx, a.ApplicationID, application.StatusPending, application.StatusFulfilled)
	if err != nil || !ok {
		t.Fatalf("CAS: ok=%v err=%v", ok, err)
	}
	ok, _ = repo.CompareAndSetStatus(ctx, a.ApplicationID, application.StatusPending, application.StatusRejected)
	if ok {
		t.Fatalf("fulfilled application must not be rejected")
	}
	got, _ := repo.GetByApplicationID(ctx, a.ApplicationID)
	if got.Status != application.StatusFulfilled {
		t.Fatalf("status = %s", got.Status)
	}
}
