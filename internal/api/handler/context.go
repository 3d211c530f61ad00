package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/afyalink/health-registry/internal/api/middleware"
	"github.com/afyalink/health-registry/internal/core/domain"
)

// caller returns the identity resolved by the Auth middleware. The services
// reject a nil identity as unauthorized.
func caller(c echo.Context) *domain.Identity {
	return middleware.IdentityFrom(c)
}

// bindAndValidate decodes the request into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Validation("invalid payload")
	}
	return c.Validate(req)
}
