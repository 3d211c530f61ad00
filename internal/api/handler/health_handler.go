package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
)

// registryTables are the tables /db-status reports on.
var registryTables = []string{"programs", "clients", "enrollments"}

// TableLister lists the tables present in the database.
type TableLister func(ctx context.Context) ([]string, error)

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the unauthenticated status endpoints.
type HealthHandler struct {
	tables TableLister
	deps   map[string]Pinger
}

func NewHealthHandler(tables TableLister, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{tables: tables, deps: deps}
}

type dbStatusResponse struct {
	Status  string   `json:"status"`
	Tables  []string `json:"tables"`
	Message string   `json:"message"`
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Root handles GET /.
//
// @Summary      Service banner
// @Tags         health
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       / [get]
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "Health System API is running"})
}

// Liveness handles GET /health.
//
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// DBStatus handles GET /db-status.
//
// @Summary      Database status
// @Tags         health
// @Produce      json
// @Success      200  {object}  dbStatusResponse
// @Failure      503  {object}  dbStatusResponse
// @Router       /db-status [get]
func (h *HealthHandler) DBStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	all, err := h.tables(ctx)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, dbStatusResponse{
			Status:  "unavailable",
			Tables:  []string{},
			Message: "Database is not reachable",
		})
	}

	present := make([]string, 0, len(registryTables))
	for _, t := range registryTables {
		if slices.Contains(all, t) {
			present = append(present, t)
		}
	}
	if len(present) != len(registryTables) {
		return c.JSON(http.StatusServiceUnavailable, dbStatusResponse{
			Status:  "uninitialized",
			Tables:  present,
			Message: "Database schema is missing tables",
		})
	}

	return c.JSON(http.StatusOK, dbStatusResponse{
		Status:  "available",
		Tables:  present,
		Message: "Database is initialized and connected",
	})
}

// Readiness handles GET /health/ready.
//
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      503  {object}  readinessResponse
// @Router       /health/ready [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.deps))
	healthy := true
	for name, p := range h.deps {
		if err := p.Ping(ctx); err != nil {
			deps[name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
