package http

import (
	"net/http"

	"github.com/btcsuite/btcutil"
	"github.com/labstack/echo/v4"

	"btc-lending-backend/internal/usecase/loan"
	"btc-lending-backend/internal/usecase/repayment"
)

type LoanHandler struct {
	loans *loan.Usecase
	repay *repayment.Usecase
}

func NewLoanHandler(loans *loan.Usecase, repay *repayment.Usecase) *LoanHandler {
	return &LoanHandler{loans: loans, repay: repay}
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.loans.Get(c.Request().Context(), actorFrom(c), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	borrowed, funded, err := h.loans.List(c.Request().Context(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"borrowed": borrowed,
		"funded":   funded,
	})
}

func (h *LoanHandler) Repay(c echo.Context) error {
	var req repayment.RepayInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.repay.Repay(c.Request().Context(), actorFrom(c), c.Param("loan_id"), btcutil.Amount(req.AmountSats))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *LoanHandler) Close(c echo.Context) error {
	dto, err := h.repay.CloseLoan(c.Request().Context(), actorFrom(c), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Open(c echo.Context) error {
	dto, err := h.repay.OpenLoan(c.Request().Context(), actorFrom(c), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Schedule(c echo.Context) error {
	view, err := h.repay.Schedule(c.Request().Context(), actorFrom(c), c.Param("loan_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}
