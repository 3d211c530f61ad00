package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func get(t *testing.T, fn echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	if err := fn(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestHealthHandler_RootAndLiveness(t *testing.T) {
	h := NewHealthHandler(nil, nil)

	if msg := decode(t, get(t, h.Root))["message"]; msg != "Health System API is running" {
		t.Fatalf("unexpected root message: %v", msg)
	}
	if status := decode(t, get(t, h.Liveness))["status"]; status != "healthy" {
		t.Fatalf("unexpected liveness status: %v", status)
	}
}

func TestHealthHandler_DBStatus(t *testing.T) {
	tables := func(context.Context) ([]string, error) {
		return []string{"audit_log", "clients", "enrollments", "programs", "schema_migrations", "user"}, nil
	}
	rec := get(t, NewHealthHandler(tables, nil).DBStatus)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["status"] != "available" || resp["message"] != "Database is initialized and connected" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	got := resp["tables"].([]any)
	if len(got) != 3 {
		t.Fatalf("expected only registry tables, got %v", got)
	}
}

func TestHealthHandler_DBStatus_Unavailable(t *testing.T) {
	tables := func(context.Context) ([]string, error) { return nil, errors.New("refused") }
	rec := get(t, NewHealthHandler(tables, nil).DBStatus)

	if rec.Code != http.StatusServiceUnavailable || decode(t, rec)["status"] != "unavailable" {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := get(t, NewHealthHandler(nil, map[string]Pinger{"postgres": ok, "redis": ok}).Readiness)
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "ok" {
		t.Fatalf("expected ready, got %d %s", rec.Code, rec.Body.String())
	}

	rec = get(t, NewHealthHandler(nil, map[string]Pinger{"postgres": ok, "redis": down}).Readiness)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	deps := decode(t, rec)["dependencies"].(map[string]any)
	if deps["redis"].(map[string]any)["status"] != "unhealthy" {
		t.Fatalf("unexpected dependency report: %v", deps)
	}
}
