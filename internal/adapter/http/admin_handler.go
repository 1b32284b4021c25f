package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"btc-lending-backend/internal/usecase/liquidation"
	"btc-lending-backend/internal/usecase/reconcile"
)

type AdminHandler struct {
	recon   *reconcile.Usecase
	monitor *liquidation.Monitor
}

func NewAdminHandler(recon *reconcile.Usecase, monitor *liquidation.Monitor) *AdminHandler {
	return &AdminHandler{recon: recon, monitor: monitor}
}

func (h *AdminHandler) Reconcile(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("chain_loan_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "chain_loan_id must be an unsigned integer"})
	}
	rep, err := h.recon.Check(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"report":     rep,
		"consistent": rep.Consistent(),
	})
}

// Sweep runs one liquidation pass now.
func (h *AdminHandler) Sweep(c echo.Context) error {
	sum, err := h.monitor.Tick(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}
