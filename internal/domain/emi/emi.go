// Package emi computes BTC-denominated installment schedules, due dates and
// late fees. Everything here is a pure function of its arguments.
//
// The fixed EMI is an amortized installment in BTC, fixed at issuance. The
// variable view re-prices that same BTC installment at the current BTC/USD
// rate, so only its USD value moves. Accumulation runs at full float
// precision; satoshi and cent rounding happens in the returned fields only.
package emi

import (
	"fmt"
	"math"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/shopspring/decimal"

	"btc-lending-backend/internal/domain"
)

const (
	// MaxDueDay is the latest day of month an installment may fall due on.
	MaxDueDay = 5
	// GraceDays past the due date during which no late fee accrues.
	GraceDays = 3
	// LateFeeRatePerDay is charged on the fixed EMI for each day beyond grace.
	LateFeeRatePerDay = 0.02
)

type Input struct {
	PrincipalBTC    float64
	PriceAtLoanTime float64 // USD per BTC at issuance
	AnnualRatePct   float64
	RiskPct         float64 // annual risk premium, %
	TermMonths      int
	CurrentPrice    float64 // USD per BTC now
}

type Installment struct {
	Month           int            `json:"month"`
	OpeningBTC      float64        `json:"opening_btc"`
	InterestBTC     float64        `json:"interest_btc"`
	PrincipalBTC    float64        `json:"principal_btc"`
	ClosingBTC      float64        `json:"closing_btc"`
	FixedEmiSats    btcutil.Amount `json:"fixed_emi_sats"`
	FixedEmiUSD     float64        `json:"fixed_emi_usd"` // at price at loan time
	VariableEmiSats btcutil.Amount `json:"variable_emi_sats"`
	VariableEmiUSD  float64        `json:"variable_emi_usd"` // at current price
}

type Schedule struct {
	FixedEmiBTC          float64        `json:"fixed_emi_btc"`
	FixedEmiSats         btcutil.Amount `json:"fixed_emi_sats"`
	TotalRepaymentUSD    float64        `json:"total_repayment_usd"`
	TotalRepaymentBTC    float64        `json:"total_repayment_btc"`
	TotalFixedEmiSats    btcutil.Amount `json:"total_fixed_emi_sats"`
	TotalVariableEmiSats btcutil.Amount `json:"total_variable_emi_sats"`
	PerMonth             []Installment  `json:"per_month"`
}

func (in Input) validate() error {
	switch {
	case !(in.PrincipalBTC > 0):
		return fmt.Errorf("%w: principal must be positive", domain.ErrValidation)
	case !(in.PriceAtLoanTime > 0), !(in.CurrentPrice > 0):
		return fmt.Errorf("%w: prices must be positive", domain.ErrValidation)
	case in.TermMonths <= 0:
		return fmt.Errorf("%w: term must be at least one month", domain.ErrValidation)
	case in.AnnualRatePct < 0, in.RiskPct < 0:
		return fmt.Errorf("%w: rates must not be negative", domain.ErrValidation)
	}
	return nil
}

// MonthlyRate is the periodic rate combining interest and risk premium.
func MonthlyRate(annualRatePct, riskPct float64) float64 {
	return (annualRatePct + riskPct) / 100 / 12
}

// FixedEmiBTC returns the amortized installment in BTC at full precision.
func FixedEmiBTC(principalBTC, annualRatePct, riskPct float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	r := MonthlyRate(annualRatePct, riskPct)
	n := float64(termMonths)
	if r == 0 {
		return principalBTC / n
	}
	growth := math.Pow(1+r, n)
	return principalBTC * r * growth / (growth - 1)
}

// Compute builds the full schedule.
func Compute(in Input) (Schedule, error) {
	if err := in.validate(); err != nil {
		return Schedule{}, err
	}
	r := MonthlyRate(in.AnnualRatePct, in.RiskPct)
	emiBTC := FixedEmiBTC(in.PrincipalBTC, in.AnnualRatePct, in.RiskPct, in.TermMonths)

	out := Schedule{
		FixedEmiBTC:  RoundBTC(emiBTC),
		FixedEmiSats: ToSats(emiBTC),
		PerMonth:     make([]Installment, 0, in.TermMonths),
	}

	balance := in.PrincipalBTC
	var totalBTC, totalUSD float64
	for m := 1; m <= in.TermMonths; m++ {
		interest := balance * r
		principalPart := emiBTC - interest
		closing := balance - principalPart
		if m == in.TermMonths || closing < 0 {
			closing = 0
		}
		out.PerMonth = append(out.PerMonth, Installment{
			Month:           m,
			OpeningBTC:      RoundBTC(balance),
			InterestBTC:     RoundBTC(interest),
			PrincipalBTC:    RoundBTC(principalPart),
			ClosingBTC:      RoundBTC(closing),
			FixedEmiSats:    ToSats(emiBTC),
			FixedEmiUSD:     RoundUSD(emiBTC * in.PriceAtLoanTime),
			VariableEmiSats: ToSats(emiBTC),
			VariableEmiUSD:  RoundUSD(emiBTC * in.CurrentPrice),
		})
		totalBTC += emiBTC
		totalUSD += emiBTC * in.CurrentPrice
		balance = closing
	}

	out.TotalRepaymentBTC = RoundBTC(totalBTC)
	out.TotalRepaymentUSD = RoundUSD(totalUSD)
	out.TotalFixedEmiSats = ToSats(emiBTC * float64(in.TermMonths))
	out.TotalVariableEmiSats = ToSats(totalBTC)
	return out, nil
}

// NextDueDate advances d by one calendar month and clamps the day of month
// into [1, MaxDueDay]. Clamping before building the date means month-end
// dates never overflow into the month after.
func NextDueDate(d time.Time) time.Time {
	day := d.Day()
	if day > MaxDueDay {
		day = MaxDueDay
	}
	return time.Date(d.Year(), d.Month()+1, day, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

// Maturity is the last instant a loan issued at issuedAt may fall due.
func Maturity(issuedAt time.Time, termMonths int) time.Time {
	return issuedAt.AddDate(0, termMonths, 0)
}

// AdvanceDueDate is NextDueDate capped at maturity.
func AdvanceDueDate(current, maturity time.Time) time.Time {
	next := NextDueDate(current)
	if next.After(maturity) {
		return maturity
	}
	return next
}

// DaysLate counts whole days elapsed since due; never negative.
func DaysLate(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	return int(now.Sub(due) / (24 * time.Hour))
}

// LateFee is zero within the grace period, then LateFeeRatePerDay of the
// fixed EMI for every day past grace.
func LateFee(fixedEmi btcutil.Amount, due, now time.Time) btcutil.Amount {
	late := DaysLate(due, now) - GraceDays
	if late <= 0 || fixedEmi <= 0 {
		return 0
	}
	fee := decimal.NewFromInt(int64(fixedEmi)).
		Mul(decimal.NewFromFloat(LateFeeRatePerDay)).
		Mul(decimal.NewFromInt(int64(late))).
		Round(0)
	return btcutil.Amount(fee.IntPart())
}

// ToSats rounds a BTC amount to the nearest satoshi.
func ToSats(btc float64) btcutil.Amount {
	return btcutil.Amount(decimal.NewFromFloat(btc).Shift(8).Round(0).IntPart())
}

// RoundBTC rounds to satoshi precision.
func RoundBTC(btc float64) float64 {
	return decimal.NewFromFloat(btc).Round(8).InexactFloat64()
}

// RoundUSD rounds to cents.
func RoundUSD(usd float64) float64 {
	return decimal.NewFromFloat(usd).Round(2).InexactFloat64()
}
