package loanmock

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "btc-lending-backend/internal/domain/loan"
)

func TestRepo_Create(t *testing.T) {
	ctx := context.Background()
	l := &domain.Loan{LoanID: "LN-1"}

	// Uses provided func
	called := false
	wantErr := errors.New("boom")
	m := &Repo{
		CreateFn: func(gotCtx context.Context, got *domain.Loan) error {
			called = true
			if gotCtx != ctx {
				t.Fatalf("Create ctx mismatch")
			}
			if got != l {
				t.Fatalf("Create arg mismatch")
			}
			return wantErr
		},
	}
	if err := m.Create(ctx, l); !errors.Is(err, wantErr) {
		t.Fatalf("Create: want %v, got %v", wantErr, err)
	}
	if !called {
		t.Fatalf("CreateFn not called")
	}

	// Default (nil func, nil base) → context.Canceled
	m = &Repo{}
	if err := m.Create(ctx, l); err != context.Canceled {
		t.Fatalf("Create default: want context.Canceled, got %v", err)
	}
}

func TestRepo_DelegatesToBase(t *testing.T) {
	ctx := context.Background()
	want := &domain.Loan{LoanID: "LN-2"}

	base := &Repo{
		GetByLoanIDFn: func(_ context.Context, loanID string) (*domain.Loan, error) {
			if loanID != "LN-2" {
				t.Fatalf("loanID mismatch: got %s", loanID)
			}
			return want, nil
		},
	}
	m := &Repo{Base: base}
	got, err := m.GetByLoanID(ctx, "LN-2")
	if err != nil {
		t.Fatalf("GetByLoanID: unexpected err: %v", err)
	}
	if got != want {
		t.Fatalf("GetByLoanID: want %+v, got %+v", want, got)
	}

	// an override wins over Base
	m.CompareAndSetStatusFn = func(context.Context, string, domain.Status, domain.Status) (bool, error) {
		return true, nil
	}
	ok, err := m.CompareAndSetStatus(ctx, "LN-2", domain.StatusActive, domain.StatusDefaulted)
	if err != nil || !ok {
		t.Fatalf("CompareAndSetStatus override: ok=%v err=%v", ok, err)
	}
}

func TestRepo_ListOverdue(t *testing.T) {
	ctx := context.Background()
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	m := &Repo{
		ListOverdueFn: func(_ context.Context, got time.Time, limit int) ([]domain.Loan, error) {
			if !got.Equal(cutoff) || limit != 10 {
				t.Fatalf("ListOverdue args: %v %d", got, limit)
			}
			return []domain.Loan{{LoanID: "LN-3"}}, nil
		},
	}
	rows, err := m.ListOverdue(ctx, cutoff, 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListOverdue: rows=%v err=%v", rows, err)
	}

	m = &Repo{}
	if _, err := m.ListOverdue(ctx, cutoff, 10); err != context.Canceled {
		t.Fatalf("ListOverdue default: want context.Canceled, got %v", err)
	}
}

func TestRepo_GetByLoanIDForUpdate(t *testing.T) {
	ctx := context.Background()
	want := &domain.Loan{LoanID: "LN-5"}

	// Uses provided func
	called := false
	m := &Repo{
		GetByLoanIDForUpdateFn: func(gotCtx context.Context, loanID string) (*domain.Loan, error) {
			called = true
			if gotCtx != ctx {
				t.Fatalf("GetByLoanIDForUpdate ctx mismatch")
			}
			if loanID != "LN-5" {
				t.Fatalf("GetByLoanIDForUpdate loanID mismatch: got %s", loanID)
			}
			return want, nil
		},
	}
	got, err := m.GetByLoanIDForUpdate(ctx, "LN-5")
	if err != nil {
		t.Fatalf("GetByLoanIDForUpdate: unexpected err: %v", err)
	}
	if got != want {
		t.Fatalf("GetByLoanIDForUpdate: want %+v, got %+v", want, got)
	}
	if !called {
		t.Fatalf("GetByLoanIDForUpdateFn not called")
	}

	// Default (nil func) → context.Canceled
	m = &Repo{}
	got, err = m.GetByLoanIDForUpdate(ctx, "LN-5")
	if err != context.Canceled {
		t.Fatalf("GetByLoanIDForUpdate default: want context.Canceled, got %v", err)
	}
	if got != nil {
		t.Fatalf("GetByLoanIDForUpdate default: want nil loan, got %+v", got)
	}
}
