package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"btc-lending-backend/internal/domain"
)

// statusFor maps usecase errors onto HTTP. Gap errors are checked first
// because they also unwrap to the underlying persistence error.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrReconciliationGap):
		return http.StatusInternalServerError, "reconciliation_gap"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrValuation):
		return http.StatusBadRequest, "valuation"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, domain.ErrCollateralUnavailable):
		return http.StatusConflict, "collateral_unavailable"
	case errors.Is(err, domain.ErrIssuanceInProgress):
		return http.StatusConflict, "issuance_in_progress"
	case errors.Is(err, domain.ErrTickInProgress):
		return http.StatusConflict, "sweep_in_progress"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, domain.ErrExternalService):
		return http.StatusBadGateway, "external_service"
	}
	return http.StatusInternalServerError, "internal"
}

func respondError(c echo.Context, err error) error {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= 500 {
		slog.Error("request failed", "method", c.Request().Method, "path", c.Path(), "code", code, "err", err)
		if code == "internal" {
			msg = "internal error"
		}
	}
	return c.JSON(status, ErrorResponse{Error: msg, Code: code})
}

// bindAndValidate writes the 400/422 response itself and reports whether
// the handler should continue.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
