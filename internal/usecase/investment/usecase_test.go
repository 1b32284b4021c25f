package investment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcutil"
	"gorm.io/gorm"

	"btc-lending-backend/internal/domain"
	"btc-lending-backend/internal/domain/ledger"
	"btc-lending-backend/internal/domain/transaction"
	"btc-lending-backend/internal/domain/uow"
	"btc-lending-backend/internal/testutil/dbtest"
	"btc-lending-backend/internal/testutil/ledgermock"
)

const investorID = "iiiiiiiiiiiiiiiiiiiiiiiiiiiiiiii"

func newUsecase(t *testing.T, lm *ledgermock.Service) (*Usecase, uow.Repos) {
	uc, repos, _ := newUsecaseDB(t, lm)
	return uc, repos
}

func newUsecaseDB(t *testing.T, lm *ledgermock.Service) (*Usecase, uow.Repos, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	repos := dbtest.Repos(db)
	dbtest.SeedAccount(t, db, investorID)
	return NewUsecase(repos.Accounts, repos.Transactions, lm, time.Second), repos, db
}

func TestInvest_Completes(t *testing.T) {
	var gotWallet, gotAddr string
	var gotAmount btcutil.Amount
	uc, _ := newUsecase(t, &ledgermock.Service{
		DepositFn: func(_ context.Context, wallet, address string, amount btcutil.Amount) (ledger.TxReceipt, error) {
			gotWallet, gotAddr, gotAmount = wallet, address, amount
			return ledger.TxReceipt{TxID: "0xdep"}, nil
		},
	})

	dto, err := uc.Invest(context.Background(), domain.Actor{ID: investorID}, 50_000_000)
	if err != nil {
		t.Fatalf("Invest: %v", err)
	}
	if gotWallet == "" || gotAddr == "" || gotAmount != 50_000_000 {
		t.Fatalf("ledger args: %q %q %d", gotWallet, gotAddr, gotAmount)
	}
	if dto.Status != string(transaction.StatusCompleted) || dto.ExternalTxID != "0xdep" || dto.Type != string(transaction.TypeInvestment) {
		t.Fatalf("dto: %+v", dto)
	}
}

func TestInvest_LedgerFailure(t *testing.T) {
	uc, _, db := newUsecaseDB(t, &ledgermock.Service{
		DepositFn: func(context.Context, string, string, btcutil.Amount) (ledger.TxReceipt, error) {
			return ledger.TxReceipt{}, errors.New("connection refused")
		},
	})
	_, err := uc.Invest(context.Background(), domain.Actor{ID: investorID}, 1000)
	if !errors.Is(err, domain.ErrExternalService) {
		t.Fatalf("want ErrExternalService, got %v", err)
	}

	// the attempt is still on record, as failed
	var rows []transaction.Transaction
	if err := db.Where("type = ?", transaction.TypeInvestment).Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Status != transaction.StatusFailed {
		t.Fatalf("rows: %+v", rows)
	}
}

func TestInvest_Validation(t *testing.T) {
	uc, _ := newUsecase(t, &ledgermock.Service{})
	if _, err := uc.Invest(context.Background(), domain.Actor{ID: investorID}, 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("zero: %v", err)
	}
	if _, err := uc.Invest(context.Background(), domain.Actor{ID: "nobody"}, 10); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("no account: %v", err)
	}
}

func TestBalance_FromLedger(t *testing.T) {
	uc, _ := newUsecase(t, &ledgermock.Service{
		GetBalanceFn: func(context.Context, string) (ledger.Balance, error) {
			return ledger.Balance{OnChain: 150_000_000, OffChain: 25_000_000}, nil
		},
	})
	ctx := context.Background()

	b, err := uc.Balance(ctx, domain.Actor{ID: investorID}, "")
	if err != nil {
		t.Fatal(err)
	}
	if b.OnChainSats != 150_000_000 || b.OnChainBTC != 1.5 || b.OffChainBTC != 0.25 {
		t.Fatalf("balance: %+v", b)
	}
	if _, err := uc.Balance(ctx, domain.Actor{ID: "other"}, investorID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stranger: %v", err)
	}
}

func TestConfirm_Monotonic(t *testing.T) {
	uc, _ := newUsecase(t, &ledgermock.Service{
		DepositFn: func(context.Context, string, string, btcutil.Amount) (ledger.TxReceipt, error) {
			return ledger.TxReceipt{TxID: "0xdep"}, nil
		},
	})
	ctx := context.Background()
	admin := domain.Actor{ID: "admin", Admin: true}

	dto, err := uc.Invest(ctx, domain.Actor{ID: investorID}, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Confirm(ctx, domain.Actor{ID: investorID}, dto.TxID, 3); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("non-admin confirm: %v", err)
	}
	got, err := uc.Confirm(ctx, admin, dto.TxID, 3)
	if err != nil || got.Confirmations != 3 {
		t.Fatalf("confirm 3: %+v %v", got, err)
	}
	got, err = uc.Confirm(ctx, admin, dto.TxID, 1)
	if err != nil || got.Confirmations != 3 {
		t.Fatalf("lower count must be ignored: %+v %v", got, err)
	}
}

func TestRegisterWallet(t *testing.T) {
	uc, repos := newUsecase(t, &ledgermock.Service{})
	ctx := context.Background()
	const user = "uuuuuuuuuuuuuuuuuuuuuuuuuuuuuuuu"

	if _, err := uc.RegisterWallet(ctx, domain.Actor{ID: user}, RegisterWalletInput{WalletName: "main"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing address: %v", err)
	}
	if _, err := uc.RegisterWallet(ctx, domain.Actor{ID: user}, RegisterWalletInput{WalletName: "main", WalletAddress: "bcrt1qxyz"}); err != nil {
		t.Fatal(err)
	}
	a, err := repos.Accounts.GetByUserID(ctx, user)
	if err != nil || a.WalletAddress != "bcrt1qxyz" {
		t.Fatalf("account: %+v %v", a, err)
	}
}
