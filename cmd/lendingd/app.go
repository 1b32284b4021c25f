package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	httpadp "btc-lending-backend/internal/adapter/http"
	ledgeradp "btc-lending-backend/internal/adapter/ledger"
	"btc-lending-backend/internal/adapter/middleware"
	notifieradp "btc-lending-backend/internal/adapter/notifier"
	repo "btc-lending-backend/internal/adapter/repository/mysql"
	valuationadp "btc-lending-backend/internal/adapter/valuation"
	"btc-lending-backend/internal/config"
	"btc-lending-backend/internal/domain/notifier"
	"btc-lending-backend/internal/infrastructure/cache"
	"btc-lending-backend/internal/infrastructure/db"
	"btc-lending-backend/internal/infrastructure/lock"
	"btc-lending-backend/internal/usecase/application"
	"btc-lending-backend/internal/usecase/collateral"
	"btc-lending-backend/internal/usecase/investment"
	"btc-lending-backend/internal/usecase/issuance"
	"btc-lending-backend/internal/usecase/liquidation"
	"btc-lending-backend/internal/usecase/loan"
	"btc-lending-backend/internal/usecase/reconcile"
	"btc-lending-backend/internal/usecase/repayment"
)

type app struct {
	cfg     *config.Config
	db      *gorm.DB
	rdb     *redis.Client
	monitor *liquidation.Monitor
	echo    *echo.Echo
}

// openStores connects the database and, when configured, Redis.
func openStores(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	gdb, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	if cfg.RedisAddr == "" {
		slog.Warn("REDIS_ADDR empty: idempotency disabled, sweep lock is process-local")
		return gdb, nil, nil
	}
	rdb, err := cache.Open(context.Background(), cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return gdb, rdb, nil
}

func newApp(cfg *config.Config) (*app, error) {
	gdb, rdb, err := openStores(cfg)
	if err != nil {
		return nil, err
	}

	u := repo.NewGormUoW(gdb)
	repos := repo.Repos(gdb)

	hc := &http.Client{Timeout: cfg.LedgerTimeout + 5*time.Second}
	ledger := ledgeradp.NewClient(cfg.LedgerURL, cfg.LedgerRPS, ledgeradp.WithHTTPClient(hc))
	val := valuationadp.NewClient(nil, cfg.ValuationURL, cfg.GoldURL, cfg.CityRates)

	var (
		locker lock.Locker       = lock.Noop{}
		notes  notifier.Notifier = notifieradp.Log{}
	)
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, "lending:lock:")
		notes = notifieradp.Multi{notifieradp.Log{}, notifieradp.NewRedisPublisher(rdb, notifieradp.DefaultChannel)}
	}

	timeout := cfg.LedgerTimeout
	monitor := liquidation.NewMonitor(u, repos.Loans, notes, locker, cfg.SweepInterval,
		liquidation.WithLockTTL(cfg.SweepLockTTL), liquidation.WithBatch(cfg.SweepBatch))
	collUC := collateral.NewUsecase(repos.Collaterals, repos.Loans, val, timeout)
	appUC := application.NewUsecase(u, repos.Applications, locker)
	issueUC := issuance.NewUsecase(u, repos, ledger, val, locker, timeout)
	loanUC := loan.NewUsecase(repos.Loans)
	repayUC := repayment.NewUsecase(u, repos.Loans, repos.Transactions, ledger, val, timeout,
		repayment.WithStrictAck(cfg.StrictLedgerAck))
	investUC := investment.NewUsecase(repos.Accounts, repos.Transactions, ledger, timeout)
	reconUC := reconcile.NewUsecase(repos.Loans, ledger, timeout)

	checks := []httpadp.Check{{Name: "db", Ping: db.Ping(gdb)}}
	handlers := httpadp.Handlers{
		Collateral:   httpadp.NewCollateralHandler(collUC),
		Applications: httpadp.NewApplicationHandler(appUC, issueUC),
		Loans:        httpadp.NewLoanHandler(loanUC, repayUC),
		Investment:   httpadp.NewInvestmentHandler(investUC),
		Admin:        httpadp.NewAdminHandler(reconUC, monitor),
	}

	var extra []echo.MiddlewareFunc
	if rdb != nil {
		checks = append(checks, httpadp.Check{Name: "redis", Ping: cache.Ping(rdb)})
		extra = append(extra, middleware.Idempotency(rdb, middleware.Options{
			TTL:    time.Duration(cfg.IdempTTLSecs) * time.Second,
			Prefix: "lending:idemp:",
		}))
	}
	handlers.Health = httpadp.NewHandler(checks...)

	return &app{
		cfg:     cfg,
		db:      gdb,
		rdb:     rdb,
		monitor: monitor,
		echo:    httpadp.NewRouter(handlers, extra...),
	}, nil
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *app) migrate(ctx context.Context) error {
	return repo.Migrate(ctx, a.db)
}
