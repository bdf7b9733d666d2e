package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shingo/auth-api/internal/core/domain"
)

// AccessChecker decides authorization requests. Implemented by the auth
// service's CanAccess.
type AccessChecker interface {
	CanAccess(ctx context.Context, req domain.AccessRequest) (bool, error)
}

// RequirePermission gates a route behind a (resource, level) grant held by
// the authenticated caller. Must run after Auth, which provides the caller's
// email in context.
func RequirePermission(checker AccessChecker, resource string, level domain.Level) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, _ := c.Get("email").(string)
			if email == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			allowed, err := checker.CanAccess(c.Request().Context(), domain.AccessRequest{
				Resource: resource,
				Level:    level,
				Email:    email,
			})
			if err != nil {
				return err
			}
			if !allowed {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
