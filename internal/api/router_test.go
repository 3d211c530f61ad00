package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/afyalink/health-registry/internal/core/domain"
	"github.com/afyalink/health-registry/internal/core/ports"
	"github.com/afyalink/health-registry/internal/core/service"
)

// --- In-memory persistence ---

type memStore struct {
	mu          sync.Mutex
	programs    []domain.Program
	clients     []domain.Client
	enrollments []domain.Enrollment
}

func (s *memStore) Programs() ports.ProgramRepository       { return memPrograms{s} }
func (s *memStore) Clients() ports.ClientRepository         { return memClients{s} }
func (s *memStore) Enrollments() ports.EnrollmentRepository { return memEnrollments{s} }

func (s *memStore) WithTx(ctx context.Context, fn func(context.Context, ports.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, s)
}

type memPrograms struct{ s *memStore }

func (r memPrograms) Create(_ context.Context, p *domain.Program) error {
	r.s.programs = append(r.s.programs, *p)
	return nil
}

func (r memPrograms) Exists(_ context.Context, name string, desc *string) (bool, error) {
	for _, p := range r.s.programs {
		if p.Name == name && (p.Description == nil) == (desc == nil) && (desc == nil || *p.Description == *desc) {
			return true, nil
		}
	}
	return false, nil
}

func (r memPrograms) FindByID(_ context.Context, id string) (*domain.Program, error) {
	for _, p := range r.s.programs {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrProgramNotFound
}

type memClients struct{ s *memStore }

func (r memClients) Create(_ context.Context, c *domain.Client) error {
	r.s.clients = append(r.s.clients, *c)
	return nil
}

func (r memClients) Exists(_ context.Context, c *domain.Client) (bool, error) {
	for _, x := range r.s.clients {
		if x.FirstName == c.FirstName && x.LastName == c.LastName && x.DOB == c.DOB && x.Gender == c.Gender && x.Contact == c.Contact {
			return true, nil
		}
	}
	return false, nil
}

func (r memClients) FindByID(_ context.Context, id string) (*domain.Client, error) {
	for _, c := range r.s.clients {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, domain.ErrClientNotFound
}

func (r memClients) Search(_ context.Context, term string) ([]domain.Client, error) {
	var out []domain.Client
	term = strings.ToLower(term)
	for _, c := range r.s.clients {
		if strings.Contains(strings.ToLower(c.FirstName), term) || strings.Contains(strings.ToLower(c.LastName), term) {
			out = append(out, c)
		}
	}
	return out, nil
}

type memEnrollments struct{ s *memStore }

func (r memEnrollments) Create(_ context.Context, e *domain.Enrollment) error {
	r.s.enrollments = append(r.s.enrollments, *e)
	return nil
}

func (r memEnrollments) Exists(_ context.Context, clientID, programID string) (bool, error) {
	for _, e := range r.s.enrollments {
		if e.ClientID == clientID && e.ProgramID == programID {
			return true, nil
		}
	}
	return false, nil
}

func (r memEnrollments) ProgramsForClient(ctx context.Context, clientID string) ([]domain.Program, error) {
	var out []domain.Program
	for _, e := range r.s.enrollments {
		if e.ClientID == clientID {
			p, _ := memPrograms{r.s}.FindByID(ctx, e.ProgramID)
			out = append(out, *p)
		}
	}
	return out, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (r *memUsers) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; ok {
		return domain.ErrUserExists
	}
	clone := *u
	r.users[u.Email] = &clone
	return nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[email]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUsers) UpdateRole(_ context.Context, email string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (r *memUsers) CountByRole(_ context.Context, role domain.Role) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *memAudit) Append(_ context.Context, e *domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	e.ID = int64(len(a.entries) + 1)
	a.entries = append(a.entries, *e)
	return nil
}

// --- Harness ---

type harness struct {
	t      *testing.T
	server *httptest.Server
	audit  *memAudit
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()
	audit := &memAudit{}
	recorder := service.NewAuditRecorder(audit, log)
	users := &memUsers{users: map[string]*domain.User{}}

	authSvc := service.NewAuthService(users, recorder, "test-secret", time.Hour, log)
	if _, err := authSvc.EnsureAdmin(context.Background(), "admin@healthsystem.local", "admin123"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	registrySvc := service.NewRegistryService(&memStore{}, nil, recorder, service.NewContactHasher("k"), log)

	e := NewRouter(Dependencies{
		Auth:     authSvc,
		Registry: registrySvc,
		Tables:   func(context.Context) ([]string, error) { return []string{"clients", "enrollments", "programs"}, nil },
		Log:      log,
		Metrics:  prometheus.NewRegistry(),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &harness{t: t, server: srv, audit: audit}
}

func (h *harness) do(method, path, token, body string) (int, []byte) {
	h.t.Helper()
	req, err := http.NewRequest(method, h.server.URL+path, strings.NewReader(body))
	if err != nil {
		h.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.server.Client().Do(req)
	if err != nil {
		h.t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, readAll(h.t, resp)
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	resp, err := h.server.Client().PostForm(h.server.URL+"/auth/jwt/login", form)
	if err != nil {
		h.t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		h.t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		h.t.Fatalf("decode login: %v", err)
	}
	if body.TokenType != "bearer" {
		h.t.Fatalf("unexpected token type %q", body.TokenType)
	}
	return body.AccessToken
}

func (h *harness) userWithRole(email string, role domain.Role, adminToken string) string {
	h.t.Helper()
	if code, body := h.do(http.MethodPost, "/auth/register", "", `{"email":"`+email+`","password":"password123"}`); code != http.StatusCreated {
		h.t.Fatalf("register %s: %d %s", email, code, body)
	}
	if role != domain.RoleViewer {
		if code, body := h.do(http.MethodPost, "/api/set-role", adminToken, `{"email":"`+email+`","role":"`+string(role)+`"}`); code != http.StatusOK {
			h.t.Fatalf("set-role %s: %d %s", email, code, body)
		}
	}
	return h.login(email, "password123")
}

func decodeInto(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
}

// --- Scenarios ---

func TestRouter_PublicEndpoints(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(http.MethodGet, "/", "", "")
	if code != http.StatusOK || !strings.Contains(string(body), "Health System API is running") {
		t.Fatalf("root: %d %s", code, body)
	}
	if code, _ := h.do(http.MethodGet, "/health", "", ""); code != http.StatusOK {
		t.Fatalf("health: %d", code)
	}
	code, body = h.do(http.MethodGet, "/db-status", "", "")
	if code != http.StatusOK || !strings.Contains(string(body), `"available"`) {
		t.Fatalf("db-status: %d %s", code, body)
	}
	if code, _ := h.do(http.MethodGet, "/metrics", "", ""); code != http.StatusOK {
		t.Fatalf("metrics: %d", code)
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(http.MethodPost, "/api/clients/search", "", `{"search_term":"Jane"}`)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d %s", code, body)
	}
	var resp map[string]string
	decodeInto(t, body, &resp)
	if resp["detail"] != "Unauthorized" {
		t.Fatalf("unexpected detail: %v", resp)
	}
}

func TestRouter_RegistryFlow(t *testing.T) {
	h := newHarness(t)
	adminToken := h.login("admin@healthsystem.local", "admin123")
	staffToken := h.userWithRole("staff@example.com", domain.RoleStaff, adminToken)
	viewerToken := h.userWithRole("viewer@example.com", domain.RoleViewer, adminToken)

	// Staff cannot create programs; admins can.
	program := `{"name":"TB Program","description":"Tuberculosis treatment"}`
	if code, body := h.do(http.MethodPost, "/api/programs", staffToken, program); code != http.StatusForbidden {
		t.Fatalf("staff create program: expected 403, got %d %s", code, body)
	}
	code, body := h.do(http.MethodPost, "/api/programs", adminToken, program)
	if code != http.StatusCreated {
		t.Fatalf("create program: %d %s", code, body)
	}
	var prog struct {
		ProgramID string `json:"program_id"`
	}
	decodeInto(t, body, &prog)

	if code, body := h.do(http.MethodPost, "/api/programs", adminToken, program); code != http.StatusConflict || !strings.Contains(string(body), "Program already exists") {
		t.Fatalf("duplicate program: %d %s", code, body)
	}

	// Admin is not staff.
	client := `{"first_name":"Jane","last_name":"Smith","dob":"1985-05-15","gender":"Female","contact":"jane@example.com"}`
	if code, _ := h.do(http.MethodPost, "/api/clients", adminToken, client); code != http.StatusForbidden {
		t.Fatalf("admin create client: expected 403, got %d", code)
	}
	code, body = h.do(http.MethodPost, "/api/clients", staffToken, client)
	if code != http.StatusCreated {
		t.Fatalf("create client: %d %s", code, body)
	}
	var cl struct {
		ClientID string `json:"client_id"`
		Contact  string `json:"contact"`
	}
	decodeInto(t, body, &cl)
	if cl.Contact != "jane@example.com" {
		t.Fatalf("create response must echo plaintext contact, got %q", cl.Contact)
	}
	if code, _ := h.do(http.MethodPost, "/api/clients", staffToken, client); code != http.StatusConflict {
		t.Fatalf("duplicate client: expected 409, got %d", code)
	}

	enrollment := `{"client_id":"` + cl.ClientID + `","program_id":"` + prog.ProgramID + `"}`
	if code, body := h.do(http.MethodPost, "/api/enrollments", staffToken, enrollment); code != http.StatusCreated {
		t.Fatalf("enroll: %d %s", code, body)
	}
	if code, _ := h.do(http.MethodPost, "/api/enrollments", staffToken, enrollment); code != http.StatusConflict {
		t.Fatalf("duplicate enrollment: expected 409, got %d", code)
	}
	missing := `{"client_id":"7d0f8f5e-2a4c-4c55-9d8e-2c6a1b9f0e11","program_id":"` + prog.ProgramID + `"}`
	if code, body := h.do(http.MethodPost, "/api/enrollments", staffToken, missing); code != http.StatusNotFound || !strings.Contains(string(body), "Client does not exist") {
		t.Fatalf("missing client: %d %s", code, body)
	}

	// Any authenticated role can read.
	code, body = h.do(http.MethodPost, "/api/clients/search", viewerToken, `{"search_term":"jan"}`)
	if code != http.StatusOK {
		t.Fatalf("search: %d %s", code, body)
	}
	var results []map[string]any
	decodeInto(t, body, &results)
	if len(results) != 1 || results[0]["contact"] == "jane@example.com" {
		t.Fatalf("search must return the stored digest, got %v", results)
	}

	code, body = h.do(http.MethodGet, "/api/clients/"+cl.ClientID, viewerToken, "")
	if code != http.StatusOK {
		t.Fatalf("profile: %d %s", code, body)
	}
	var profile struct {
		Programs []struct {
			ProgramID string `json:"program_id"`
		} `json:"programs"`
	}
	decodeInto(t, body, &profile)
	if len(profile.Programs) != 1 || profile.Programs[0].ProgramID != prog.ProgramID {
		t.Fatalf("unexpected profile programs: %+v", profile.Programs)
	}

	if code, _ := h.do(http.MethodGet, "/api/clients/7d0f8f5e-2a4c-4c55-9d8e-2c6a1b9f0e11", viewerToken, ""); code != http.StatusNotFound {
		t.Fatalf("unknown client: expected 404, got %d", code)
	}

	// Every successful mutation is audited.
	actions := map[string]int{}
	for _, e := range h.audit.entries {
		actions[e.Action]++
	}
	for _, a := range []string{domain.ActionBootstrapAdmin, domain.ActionCreateProgram, domain.ActionCreateClient, domain.ActionCreateEnrollment, domain.ActionSetRole, domain.ActionRegisterUser} {
		if actions[a] == 0 {
			t.Fatalf("missing audit action %s in %v", a, actions)
		}
	}
	if actions[domain.ActionCreateProgram] != 1 || actions[domain.ActionCreateClient] != 1 {
		t.Fatalf("rejected mutations must not be audited: %v", actions)
	}
}

func TestRouter_AuthErrors(t *testing.T) {
	h := newHarness(t)

	body := `{"email":"dup@example.com","password":"password123"}`
	if code, _ := h.do(http.MethodPost, "/auth/register", "", body); code != http.StatusCreated {
		t.Fatalf("first register: %d", code)
	}
	code, resp := h.do(http.MethodPost, "/auth/register", "", body)
	if code != http.StatusBadRequest || !strings.Contains(string(resp), "REGISTER_USER_ALREADY_EXISTS") {
		t.Fatalf("duplicate register: %d %s", code, resp)
	}

	form := url.Values{"username": {"dup@example.com"}, "password": {"wrong"}}
	r, err := h.server.Client().PostForm(h.server.URL+"/auth/jwt/login", form)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusBadRequest || !strings.Contains(string(readAll(t, r)), "LOGIN_BAD_CREDENTIALS") {
		t.Fatalf("bad login: %d", r.StatusCode)
	}
}

func TestRouter_InitAdmin(t *testing.T) {
	h := newHarness(t)
	if code, _ := h.do(http.MethodPost, "/auth/register", "", `{"email":"carol@example.com","password":"password123"}`); code != http.StatusCreated {
		t.Fatalf("register: %d", code)
	}

	if code, body := h.do(http.MethodPost, "/api/init-admin", "", `{"email":"carol@example.com"}`); code != http.StatusOK {
		t.Fatalf("init-admin: %d %s", code, body)
	}
	token := h.login("carol@example.com", "password123")
	if code, body := h.do(http.MethodPost, "/api/programs", token, `{"name":"HIV Care"}`); code != http.StatusCreated {
		t.Fatalf("promoted admin create program: %d %s", code, body)
	}

	if code, _ := h.do(http.MethodPost, "/api/init-admin", "", `{"email":"ghost@example.com"}`); code != http.StatusNotFound {
		t.Fatalf("unknown email: expected 404, got %d", code)
	}
}

func TestRouter_SetRoleValidation(t *testing.T) {
	h := newHarness(t)
	adminToken := h.login("admin@healthsystem.local", "admin123")
	viewerToken := h.userWithRole("v@example.com", domain.RoleViewer, adminToken)

	if code, _ := h.do(http.MethodPost, "/api/set-role", viewerToken, `{"email":"v@example.com","role":"admin"}`); code != http.StatusForbidden {
		t.Fatalf("viewer set-role: expected 403, got %d", code)
	}
	code, body := h.do(http.MethodPost, "/api/set-role", adminToken, `{"email":"v@example.com","role":"superuser"}`)
	if code != http.StatusBadRequest || !strings.Contains(string(body), "Invalid role") {
		t.Fatalf("invalid role: %d %s", code, body)
	}
	if code, _ := h.do(http.MethodPost, "/api/set-role", adminToken, `{"email":"ghost@example.com","role":"staff"}`); code != http.StatusNotFound {
		t.Fatalf("unknown user: expected 404, got %d", code)
	}
}

func TestRouter_MetricsIncludeDomainCounters(t *testing.T) {
	h := newHarness(t)
	adminToken := h.login("admin@healthsystem.local", "admin123")
	if code, body := h.do(http.MethodPost, "/api/programs", adminToken, `{"name":"Malaria"}`); code != http.StatusCreated {
		t.Fatalf("create program: %d %s", code, body)
	}

	code, body := h.do(http.MethodGet, "/metrics", "", "")
	if code != http.StatusOK {
		t.Fatalf("metrics: %d", code)
	}
	for _, name := range []string{"registry_records_created_total", "registry_logins_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s on the served registry", name)
		}
	}
}
