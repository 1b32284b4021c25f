// Package liquidation runs the periodic default sweep: overdue loans have
// their collateral seized, move to defaulted and their owners are notified.
package liquidation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"btc-lending-backend/internal/domain"
	"btc-lending-backend/internal/domain/loan"
	"btc-lending-backend/internal/domain/notifier"
	"btc-lending-backend/internal/domain/transaction"
	"btc-lending-backend/internal/domain/uow"
	"btc-lending-backend/internal/infrastructure/lock"
	"btc-lending-backend/internal/infrastructure/metrics"
	collateralUC "btc-lending-backend/internal/usecase/collateral"
	"btc-lending-backend/pkg/id"
)

const sweepLockKey = "liquidation-sweep"

// errNoLongerActive means another actor settled the loan between the scan
// and the update. The loan is skipped, not counted as a failure.
var errNoLongerActive = errors.New("loan no longer active")

type Summary struct {
	Scanned    int `json:"scanned"`
	Liquidated int `json:"liquidated"`
	Failed     int `json:"failed"`
}

type Monitor struct {
	uow      uow.UnitOfWork
	loans    loan.Repository
	notifier notifier.Notifier
	locker   lock.Locker
	interval time.Duration
	lockTTL  time.Duration
	batch    int
	now      func() time.Time

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Monitor)

func WithClock(now func() time.Time) Option { return func(m *Monitor) { m.now = now } }
func WithLockTTL(d time.Duration) Option     { return func(m *Monitor) { m.lockTTL = d } }

// WithBatch caps how many overdue loans one tick handles; 0 means all.
func WithBatch(n int) Option { return func(m *Monitor) { m.batch = n } }

func NewMonitor(u uow.UnitOfWork, loans loan.Repository, n notifier.Notifier, locker lock.Locker, interval time.Duration, opts ...Option) *Monitor {
	m := &Monitor{
		uow:      u,
		loans:    loans,
		notifier: n,
		locker:   locker,
		interval: interval,
		lockTTL:  10 * time.Minute,
		now:      time.Now,
	}
	if m.interval <= 0 {
		m.interval = time.Hour
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start launches the ticker loop. Calling it while running is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx, m.done)
	slog.Info("liquidation monitor started", "interval", m.interval.String())
}

// Stop cancels the loop and waits for an in-flight tick to return.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	slog.Info("liquidation monitor stopped")
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Tick(ctx); err != nil && !errors.Is(err, domain.ErrTickInProgress) {
				slog.Error("liquidation sweep failed", "error", err)
			}
		}
	}
}

// Tick runs one sweep. Overlapping calls, in this process or on another
// replica holding the sweep lock, return ErrTickInProgress.
func (m *Monitor) Tick(ctx context.Context) (Summary, error) {
	var sum Summary
	if !m.running.CompareAndSwap(false, true) {
		metrics.SweepTicks.WithLabelValues("skipped").Inc()
		return sum, domain.ErrTickInProgress
	}
	defer m.running.Store(false)

	lease, err := m.locker.Acquire(ctx, sweepLockKey, m.lockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		metrics.SweepTicks.WithLabelValues("skipped").Inc()
		return sum, domain.ErrTickInProgress
	}
	if err != nil {
		metrics.SweepTicks.WithLabelValues("error").Inc()
		return sum, fmt.Errorf("sweep lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("sweep lock release failed", "error", err)
		}
	}()

	now := m.now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	overdue, err := m.loans.ListOverdue(ctx, cutoff, m.batch)
	if err != nil {
		metrics.SweepTicks.WithLabelValues("error").Inc()
		return sum, fmt.Errorf("list overdue: %w", err)
	}

	sum.Scanned = len(overdue)
	for i := range overdue {
		if ctx.Err() != nil {
			break
		}
		l := &overdue[i]
		changed, err := m.liquidate(ctx, l)
		switch {
		case errors.Is(err, errNoLongerActive):
			slog.Info("loan settled before liquidation", "loan_id", l.LoanID)
		case err != nil:
			sum.Failed++
			metrics.SweepFailures.Inc()
			slog.Error("liquidation failed", "loan_id", l.LoanID, "collateral_id", l.CollateralID, "error", err)
		case changed:
			sum.Liquidated++
			metrics.Liquidations.Inc()
			m.notify(ctx, l)
		}
	}

	metrics.SweepTicks.WithLabelValues("ran").Inc()
	slog.Info(fmt.Sprintf("%d liquidated, %d failed", sum.Liquidated, sum.Failed),
		"scanned", sum.Scanned, "cutoff", cutoff.Format(time.DateOnly))
	return sum, nil
}

// liquidate seizes the collateral and defaults the loan in one transaction.
// The loan CAS makes a repeated sweep a no-op even when the collateral step
// was already done.
func (m *Monitor) liquidate(ctx context.Context, l *loan.Loan) (bool, error) {
	err := m.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := collateralUC.Liquidate(ctx, r.Collaterals, l.CollateralID); err != nil {
			return err
		}
		ok, err := r.Loans.CompareAndSetStatus(ctx, l.LoanID, loan.StatusActive, loan.StatusDefaulted)
		if err != nil {
			return err
		}
		if !ok {
			return errNoLongerActive
		}
		loanID := l.LoanID
		return r.Transactions.Create(ctx, &transaction.Transaction{
			TxID:        id.New(),
			Type:        transaction.TypeLiquidation,
			Amount:      decimal.NewFromFloat(l.CollateralValueUSD).Shift(2).Round(0).IntPart(),
			Currency:    transaction.CurrencyUSD,
			Status:      transaction.StatusCompleted,
			SenderID:    l.BorrowerID,
			RecipientID: l.LenderID,
			LoanID:      &loanID,
		})
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *Monitor) notify(ctx context.Context, l *loan.Loan) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifyLiquidation(context.WithoutCancel(ctx), l.BorrowerID, l.LoanID); err != nil {
		slog.Warn("liquidation notice not delivered", "loan_id", l.LoanID, "owner_id", l.BorrowerID, "error", err)
	}
}
