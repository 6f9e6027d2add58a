package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// Context keys set by Auth.
const (
	KeyUserID = "user_id"
	KeyRole   = "role"
	KeyEmail  = "email"
)

// Auth validates the bearer JWT and stores the caller's identity claims in
// the echo context. Tokens without a user id or with an unknown role are
// rejected even when correctly signed.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	keyFunc := func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scheme, raw, ok := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
			switch {
			case scheme == "":
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			case !ok || !strings.EqualFold(scheme, "bearer"):
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(raw, claims, keyFunc)
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			userID, _ := claims[KeyUserID].(string)
			role, _ := claims[KeyRole].(string)
			if userID == "" || !domain.Role(role).Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing identity claims")
			}
			email, _ := claims[KeyEmail].(string)

			c.Set(KeyUserID, userID)
			c.Set(KeyRole, role)
			c.Set(KeyEmail, email)
			return next(c)
		}
	}
}
