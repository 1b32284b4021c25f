package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"btc-lending-backend/internal/usecase/collateral"
)

type CollateralHandler struct{ uc *collateral.Usecase }

func NewCollateralHandler(uc *collateral.Usecase) *CollateralHandler {
	return &CollateralHandler{uc: uc}
}

func (h *CollateralHandler) Register(c echo.Context) error {
	var req collateral.RegisterInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Register(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *CollateralHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("collateral_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// List defaults to the caller's own collateral; admins may pass owner_id.
func (h *CollateralHandler) List(c echo.Context) error {
	actor := actorFrom(c)
	owner := strings.TrimSpace(c.QueryParam("owner_id"))
	if owner == "" {
		owner = actor.ID
	}
	out, err := h.uc.ListByOwner(c.Request().Context(), actor, owner)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CollateralHandler) Release(c echo.Context) error {
	id := c.Param("collateral_id")
	if err := h.uc.Release(c.Request().Context(), actorFrom(c), id); err != nil {
		return respondError(c, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
