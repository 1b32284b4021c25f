package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"btc-lending-backend/internal/domain"
	"btc-lending-backend/pkg/id"
)

// Authentication happens upstream; the gateway forwards the caller in these
// headers.
const (
	HeaderUserID   = "Ax-User-Id"
	HeaderUserRole = "Ax-User-Role"

	roleAdmin = "admin"
	actorKey  = "actor"
)

// RequireActor rejects requests without a well-formed Ax-User-Id and stores
// the caller on the context.
func RequireActor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
		if uid == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing " + HeaderUserID})
		}
		if !id.Valid(uid) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + HeaderUserID})
		}
		role := strings.ToLower(strings.TrimSpace(c.Request().Header.Get(HeaderUserRole)))
		c.Set(actorKey, domain.Actor{ID: uid, Admin: role == roleAdmin})
		return next(c)
	}
}

// RequireAdmin must run after RequireActor.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !actorFrom(c).Admin {
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "admin only", Code: "unauthorized"})
		}
		return next(c)
	}
}

func actorFrom(c echo.Context) domain.Actor {
	a, _ := c.Get(actorKey).(domain.Actor)
	return a
}
