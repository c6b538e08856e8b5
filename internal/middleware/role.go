package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/title-review-service/internal/policy"
)

// RequireAdmin returns middleware that gates a route behind the
// AdminOrSuperuser policy. Anonymous callers receive 403 like any other
// insufficient caller: the admin surface does not distinguish "no
// credentials" from "wrong role". It must run after Identity.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !policy.AdminOrSuperuser(CurrentIdentity(c)) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
