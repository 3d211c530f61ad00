package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/afyalink/health-registry/internal/core/ports"
)

// RegistryHandler serves programs, clients and enrollments.
type RegistryHandler struct {
	service ports.RegistryService
}

func NewRegistryHandler(service ports.RegistryService) *RegistryHandler {
	return &RegistryHandler{service: service}
}

// CreateProgram handles POST /api/programs.
//
// @Summary      Create a health program
// @Tags         programs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createProgramRequest  true  "Program"
// @Success      201   {object}  programResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/programs [post]
func (h *RegistryHandler) CreateProgram(c echo.Context) error {
	var req createProgramRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	program, err := h.service.CreateProgram(c.Request().Context(), caller(c), toCreateProgramInput(req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toProgramResponse(*program))
}

// CreateClient handles POST /api/clients.
//
// @Summary      Register a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createClientRequest  true  "Client"
// @Success      201   {object}  clientResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/clients [post]
func (h *RegistryHandler) CreateClient(c echo.Context) error {
	var req createClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	profile, err := h.service.CreateClient(c.Request().Context(), caller(c), toCreateClientInput(req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toClientResponse(*profile))
}

// SearchClients handles POST /api/clients/search.
//
// @Summary      Search clients by name
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      searchClientsRequest  true  "Search term"
// @Success      200   {array}   clientResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/clients/search [post]
func (h *RegistryHandler) SearchClients(c echo.Context) error {
	var req searchClientsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	profiles, err := h.service.SearchClients(c.Request().Context(), caller(c), req.SearchTerm)
	if err != nil {
		return err
	}

	resp := make([]clientResponse, 0, len(profiles))
	for _, p := range profiles {
		resp = append(resp, toClientResponse(p))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetClient handles GET /api/clients/:client_id.
//
// @Summary      Get a client profile with enrolled programs
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        client_id  path      string  true  "Client UUID"
// @Success      200        {object}  clientResponse
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/clients/{client_id} [get]
func (h *RegistryHandler) GetClient(c echo.Context) error {
	profile, err := h.service.GetClientProfile(c.Request().Context(), caller(c), c.Param("client_id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toClientResponse(*profile))
}

// CreateEnrollment handles POST /api/enrollments.
//
// @Summary      Enroll a client in a program
// @Tags         enrollments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createEnrollmentRequest  true  "Client and program ids"
// @Success      201   {object}  enrollmentResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/enrollments [post]
func (h *RegistryHandler) CreateEnrollment(c echo.Context) error {
	var req createEnrollmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	enrollment, err := h.service.CreateEnrollment(c.Request().Context(), caller(c), toCreateEnrollmentInput(req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toEnrollmentResponse(enrollment))
}
