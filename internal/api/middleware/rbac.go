package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/afyalink/health-registry/internal/core/service"
)

// RequireOperation rejects callers whose role does not satisfy the access
// policy for op before the handler runs. Must be chained after Auth.
func RequireOperation(op service.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := service.AuthorizeOperation(IdentityFrom(c), op); err != nil {
				return err
			}
			return next(c)
		}
	}
}
