package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/live-tracking/internal/api/middleware"
	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

// ctxCaller extracts the identity injected by the Auth middleware. Both claims
// must be present; a token without them is structurally valid but unusable.
func ctxCaller(c echo.Context) (ports.Caller, error) {
	userID, _ := c.Get(middleware.KeyUserID).(string)
	role, _ := c.Get(middleware.KeyRole).(string)
	if userID == "" || !domain.Role(role).Valid() {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return ports.Caller{UserID: userID, Role: domain.Role(role)}, nil
}
