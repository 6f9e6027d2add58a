package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// RBAC lets the request through only when the role claim set by Auth is one
// of allowed. Rejections surface as domain.ErrForbidden so the central error
// handler renders them.
func RBAC(allowed ...domain.Role) echo.MiddlewareFunc {
	set := make(map[domain.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(KeyRole).(string)
			if _, ok := set[domain.Role(role)]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
