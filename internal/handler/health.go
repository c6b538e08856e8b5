package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a plain liveness endpoint for load balancers and monitoring
// systems. It answers "ok" with HTTP 200 and touches no dependencies.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
