package mysql

import (
	"testing"
	"time"

	"btc-lending-backend/internal/domain/collateral"
	loanDomain "btc-lending-backend/internal/domain/loan"
	"btc-lending-backend/pkg/id"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB creates an in-memory sqlite DB with every table migrated. A
// single connection keeps ":memory:" shared between goroutines.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeCollateral(owner string) *collateral.Collateral {
	return &collateral.Collateral{
		CollateralID: id.New(),
		OwnerID:      owner,
		Type:         collateral.TypeGold,
		Quantity:     10,
		ValueUSD:     23_000,
		Status:       collateral.StatusUnlocked,
	}
}

func makeLoan(loanID, borrowerID string, due time.Time) *loanDomain.Loan {
	issued := due.AddDate(0, -1, 0)
	return &loanDomain.Loan{
		LoanID:          loanID,
		ChainLoanID:     uint64(due.UnixNano()),
		ApplicationID:   id.New(),
		LenderID:        "llllllllllllllllllllllllllllllll",
		BorrowerID:      borrowerID,
		PrincipalSats:   8_333_333,
		InterestRate:    10,
		RiskFactor:      5,
		TermMonths:      12,
		PriceAtLoanTime: 60_000,
		CollateralID:    id.New(),
		FixedEmiSats:    752_137,
		IssuedAt:        issued,
		MaturityAt:      issued.AddDate(0, 12, 0),
		NextDueDate:     due,
		Status:          loanDomain.StatusActive,
	}
}
