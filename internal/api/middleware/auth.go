package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shingo/auth-api/internal/core/token"
)

// SessionValidator runs the full session verify pipeline, including the
// check that the token's subject still resolves to an existing user.
type SessionValidator interface {
	IsValid(ctx context.Context, tok string) (*token.SessionClaims, error)
}

// Auth validates the bearer session token and injects the identity claims
// into the echo context under "email" and "ext_id".
func Auth(sessions SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := sessions.IsValid(c.Request().Context(), parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("email", claims.Email)
			c.Set("ext_id", claims.ExtID)

			return next(c)
		}
	}
}
