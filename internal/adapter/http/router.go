package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Health       *Handler
	Collateral   *CollateralHandler
	Applications *ApplicationHandler
	Loans        *LoanHandler
	Investment   *InvestmentHandler
	Admin        *AdminHandler
}

// NewRouter builds the echo instance. extra runs on every /v1 route after
// the actor is resolved (the idempotency middleware in production).
func NewRouter(h Handlers, extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.Use(middleware.RequestID(), middleware.Logger(), middleware.Recover())

	e.GET("/health", h.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1", append([]echo.MiddlewareFunc{RequireActor}, extra...)...)

	v1.POST("/collaterals", h.Collateral.Register)
	v1.GET("/collaterals", h.Collateral.List)
	v1.GET("/collaterals/:collateral_id", h.Collateral.Get)
	v1.POST("/collaterals/:collateral_id/release", h.Collateral.Release)

	v1.POST("/applications", h.Applications.Apply)
	v1.GET("/applications/mine", h.Applications.Mine)
	v1.GET("/applications/marketplace", h.Applications.Marketplace)
	v1.GET("/applications/:application_id", h.Applications.Get)
	v1.POST("/applications/:application_id/reject", h.Applications.Reject)
	v1.POST("/applications/:application_id/issue", h.Applications.Issue)

	v1.GET("/loans", h.Loans.ListLoans)
	v1.GET("/loans/:loan_id", h.Loans.GetLoan)
	v1.GET("/loans/:loan_id/schedule", h.Loans.Schedule)
	v1.POST("/loans/:loan_id/repayments", h.Loans.Repay)
	v1.POST("/loans/:loan_id/close", h.Loans.Close)
	v1.POST("/loans/:loan_id/open", h.Loans.Open)

	v1.PUT("/wallet", h.Investment.RegisterWallet)
	v1.POST("/investments", h.Investment.Invest)
	v1.GET("/balances/:user_id", h.Investment.Balance)
	v1.POST("/transactions/:tx_id/confirm", h.Investment.Confirm)

	admin := v1.Group("/admin", RequireAdmin)
	admin.GET("/reconcile/:chain_loan_id", h.Admin.Reconcile)
	admin.POST("/sweep", h.Admin.Sweep)

	return e
}
