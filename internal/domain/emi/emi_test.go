package emi

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btc-lending-backend/internal/domain"
)

func baseInput() Input {
	return Input{
		PrincipalBTC:    5000.0 / 60000.0,
		PriceAtLoanTime: 60000,
		AnnualRatePct:   10,
		RiskPct:         5,
		TermMonths:      12,
		CurrentPrice:    60000,
	}
}

func TestCompute_Deterministic(t *testing.T) {
	a, err := Compute(baseInput())
	require.NoError(t, err)
	b, err := Compute(baseInput())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompute_ConstantPriceTotalsAgree(t *testing.T) {
	s, err := Compute(baseInput())
	require.NoError(t, err)

	require.Len(t, s.PerMonth, 12)
	assert.InDelta(t, s.TotalRepaymentUSD, s.TotalRepaymentBTC*60000, 0.01)
	// the variable view equals the fixed one when the price never moves
	for _, m := range s.PerMonth {
		assert.Equal(t, m.FixedEmiUSD, m.VariableEmiUSD)
		assert.Equal(t, m.FixedEmiSats, m.VariableEmiSats)
	}
	assert.Equal(t, s.TotalFixedEmiSats, s.TotalVariableEmiSats)
}

func TestCompute_AmortizesToZero(t *testing.T) {
	in := baseInput()
	s, err := Compute(in)
	require.NoError(t, err)

	var principalPaid float64
	for _, m := range s.PerMonth {
		principalPaid += m.PrincipalBTC
	}
	assert.InDelta(t, in.PrincipalBTC, principalPaid, 1e-7)
	assert.Zero(t, s.PerMonth[len(s.PerMonth)-1].ClosingBTC)
	// interest makes the total exceed the principal
	assert.Greater(t, s.TotalRepaymentBTC, in.PrincipalBTC)
}

func TestCompute_VariableViewRepricesOnlyUSD(t *testing.T) {
	in := baseInput()
	in.CurrentPrice = 30000
	s, err := Compute(in)
	require.NoError(t, err)

	first := s.PerMonth[0]
	assert.Equal(t, first.FixedEmiSats, first.VariableEmiSats)
	assert.InDelta(t, first.FixedEmiUSD/2, first.VariableEmiUSD, 0.01)
}

func TestCompute_ZeroRateSplitsEvenly(t *testing.T) {
	in := baseInput()
	in.AnnualRatePct, in.RiskPct = 0, 0
	in.PrincipalBTC = 1.2
	s, err := Compute(in)
	require.NoError(t, err)
	assert.Equal(t, btcutil.Amount(10_000_000), s.FixedEmiSats)
	assert.Equal(t, btcutil.Amount(120_000_000), s.TotalFixedEmiSats)
}

func TestCompute_RejectsBadInput(t *testing.T) {
	cases := map[string]func(*Input){
		"zero principal": func(in *Input) { in.PrincipalBTC = 0 },
		"zero term":      func(in *Input) { in.TermMonths = 0 },
		"zero price":     func(in *Input) { in.CurrentPrice = 0 },
		"negative rate":  func(in *Input) { in.AnnualRatePct = -1 },
		"NaN principal":  func(in *Input) { in.PrincipalBTC = math.NaN() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := baseInput()
			mutate(&in)
			_, err := Compute(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestNextDueDate_ClampsIntoFirstFiveDays(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	for d := start; d.Before(start.AddDate(2, 0, 0)); d = d.AddDate(0, 0, 1) {
		next := NextDueDate(d)
		wantMonth := time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		require.Equal(t, wantMonth.Month(), next.Month(), "from %s", d)
		require.Equal(t, wantMonth.Year(), next.Year(), "from %s", d)
		require.GreaterOrEqual(t, next.Day(), 1)
		require.LessOrEqual(t, next.Day(), MaxDueDay)
	}
}

func TestNextDueDate_Examples(t *testing.T) {
	tests := []struct {
		in, want time.Time
	}{
		{time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextDueDate(tt.in))
	}
}

func TestAdvanceDueDate_CapsAtMaturity(t *testing.T) {
	issued := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	maturity := Maturity(issued, 1)
	due := NextDueDate(issued) // Feb 5
	assert.Equal(t, maturity, AdvanceDueDate(due, maturity))
}

func TestLateFee(t *testing.T) {
	due := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	fixed := btcutil.Amount(1_000_000)
	day := 24 * time.Hour

	for d := 0; d <= GraceDays; d++ {
		assert.Zero(t, LateFee(fixed, due, due.Add(time.Duration(d)*day)), "daysLate=%d", d)
	}
	assert.Equal(t, btcutil.Amount(20_000), LateFee(fixed, due, due.Add(4*day)))
	assert.Equal(t, btcutil.Amount(40_000), LateFee(fixed, due, due.Add(5*day)))
	assert.Equal(t, btcutil.Amount(140_000), LateFee(fixed, due, due.Add(10*day)))
	// before the due date there is nothing to charge
	assert.Zero(t, LateFee(fixed, due, due.Add(-10*day)))
}

func TestToSats(t *testing.T) {
	assert.Equal(t, btcutil.Amount(8_333_333), ToSats(5000.0/60000.0))
	assert.Equal(t, btcutil.Amount(100_000_000), ToSats(1))
	assert.Equal(t, 0.08333333, RoundBTC(5000.0/60000.0))
	assert.Equal(t, 12.35, RoundUSD(12.345000001))
}
