package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/afyalink/health-registry/internal/core/ports"
)

// AdminHandler serves role management.
type AdminHandler struct {
	authService ports.AuthService
}

func NewAdminHandler(authService ports.AuthService) *AdminHandler {
	return &AdminHandler{authService: authService}
}

// SetRole assigns a role to an existing account.
//
// @Summary      Set a user's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      setRoleRequest  true  "Email and role (admin, staff, viewer)"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/set-role [post]
func (h *AdminHandler) SetRole(c echo.Context) error {
	var req setRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.SetRole(c.Request().Context(), caller(c), req.Email, req.Role); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Role for %s set to %s", req.Email, req.Role),
	})
}

// InitAdmin promotes an account to admin without authentication.
//
// @Summary      Promote an account to admin
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      initAdminRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/init-admin [post]
func (h *AdminHandler) InitAdmin(c echo.Context) error {
	var req initAdminRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.InitAdmin(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{
		Message: fmt.Sprintf("User %s is now an admin", req.Email),
	})
}
