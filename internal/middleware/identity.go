package middleware

// identity.go defines how the resolved caller identity travels through
// the Echo context. The Identity middleware below parses an optional
// Bearer token; most routes here serve anonymous readers and only the
// handlers (via the policy package) decide whether anonymity is enough.

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/title-review-service/internal/auth"
	"github.com/iliyamo/title-review-service/internal/policy"
)

const identityKey = "identity"

// CurrentIdentity returns the identity stored by the Identity
// middleware, or the anonymous identity when nothing was stored.
func CurrentIdentity(c echo.Context) policy.Identity {
	if v := c.Get(identityKey); v != nil {
		if id, ok := v.(policy.Identity); ok {
			return id
		}
	}
	return policy.Anonymous
}

// Identity returns middleware that resolves the caller from an optional
// Authorization header. Requests without a bearer token proceed as
// anonymous; requests with an invalid or expired token are rejected
// with 401 so a client never silently degrades to anonymous after its
// token died.
func Identity(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				c.Set(identityKey, policy.Anonymous)
				return next(c)
			}
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "malformed authorization header"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")
			id, err := auth.ParseAccessToken(jwtSecret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// RequireAuth returns middleware that rejects anonymous callers with
// 401. It must run after Identity.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !CurrentIdentity(c).Authenticated {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			return next(c)
		}
	}
}
