package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"btc-lending-backend/internal/usecase/application"
	"btc-lending-backend/internal/usecase/issuance"
)

type ApplicationHandler struct {
	apps  *application.Usecase
	issue *issuance.Usecase
}

func NewApplicationHandler(apps *application.Usecase, issue *issuance.Usecase) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, issue: issue}
}

type applyReq struct {
	AmountUSD    float64 `json:"amount_usd" validate:"required,gt=0,dec2"`
	InterestRate float64 `json:"interest_rate" validate:"gte=0,lte=100,dec2"`
	RiskFactor   float64 `json:"risk_factor" validate:"gte=0,lte=100,dec2"`
	TermMonths   int     `json:"term_months" validate:"required,gte=1,lte=360"`
	CollateralID string  `json:"collateral_id" validate:"required,hex32"`
}

func (h *ApplicationHandler) Apply(c echo.Context) error {
	var req applyReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.apps.Apply(c.Request().Context(), actorFrom(c), application.ApplyInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ApplicationHandler) Get(c echo.Context) error {
	dto, err := h.apps.Get(c.Request().Context(), c.Param("application_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApplicationHandler) Mine(c echo.Context) error {
	out, err := h.apps.MyPending(c.Request().Context(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ApplicationHandler) Marketplace(c echo.Context) error {
	out, err := h.apps.Marketplace(c.Request().Context(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ApplicationHandler) Reject(c echo.Context) error {
	id := c.Param("application_id")
	if err := h.apps.Reject(c.Request().Context(), actorFrom(c), id); err != nil {
		return respondError(c, err)
	}
	dto, err := h.apps.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Issue funds the application; the caller becomes the lender.
func (h *ApplicationHandler) Issue(c echo.Context) error {
	dto, err := h.issue.Issue(c.Request().Context(), actorFrom(c), c.Param("application_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}
