package http

import (
	"net/http"

	"github.com/btcsuite/btcutil"
	"github.com/labstack/echo/v4"

	"btc-lending-backend/internal/usecase/investment"
)

type InvestmentHandler struct{ uc *investment.Usecase }

func NewInvestmentHandler(uc *investment.Usecase) *InvestmentHandler {
	return &InvestmentHandler{uc: uc}
}

func (h *InvestmentHandler) RegisterWallet(c echo.Context) error {
	var req investment.RegisterWalletInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	acc, err := h.uc.RegisterWallet(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, acc)
}

func (h *InvestmentHandler) Invest(c echo.Context) error {
	var req investment.InvestInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Invest(c.Request().Context(), actorFrom(c), btcutil.Amount(req.AmountSats))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *InvestmentHandler) Balance(c echo.Context) error {
	dto, err := h.uc.Balance(c.Request().Context(), actorFrom(c), c.Param("user_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *InvestmentHandler) Confirm(c echo.Context) error {
	var req investment.ConfirmInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Confirm(c.Request().Context(), actorFrom(c), c.Param("tx_id"), req.Confirmations)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
