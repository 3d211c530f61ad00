package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/afyalink/health-registry/internal/core/domain"
	"github.com/afyalink/health-registry/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub store
// ---------------------------------------------------------------------------

type stubStore struct {
	programs    map[string]domain.Program
	clients     map[string]domain.Client
	enrollments map[string]domain.Enrollment
	txCalls     int
	createErr   error // if set, every Create returns this error

	// afterProgramsRead runs once ProgramsForClient has read its result,
	// before the result is returned.
	afterProgramsRead func()
}

func newStubStore() *stubStore {
	return &stubStore{
		programs:    make(map[string]domain.Program),
		clients:     make(map[string]domain.Client),
		enrollments: make(map[string]domain.Enrollment),
	}
}

func (s *stubStore) Programs() ports.ProgramRepository       { return stubPrograms{s} }
func (s *stubStore) Clients() ports.ClientRepository         { return stubClients{s} }
func (s *stubStore) Enrollments() ports.EnrollmentRepository { return stubEnrollments{s} }

func (s *stubStore) WithTx(ctx context.Context, fn func(context.Context, ports.Store) error) error {
	s.txCalls++
	return fn(ctx, s)
}

type stubPrograms struct{ s *stubStore }

func (r stubPrograms) Create(_ context.Context, p *domain.Program) error {
	if r.s.createErr != nil {
		return r.s.createErr
	}
	r.s.programs[p.ID] = *p
	return nil
}

func (r stubPrograms) Exists(_ context.Context, name string, description *string) (bool, error) {
	for _, p := range r.s.programs {
		if p.Name == name && derefString(p.Description) == derefString(description) {
			return true, nil
		}
	}
	return false, nil
}

func (r stubPrograms) FindByID(_ context.Context, id string) (*domain.Program, error) {
	p, ok := r.s.programs[id]
	if !ok {
		return nil, domain.ErrProgramNotFound
	}
	return &p, nil
}

type stubClients struct{ s *stubStore }

func (r stubClients) Create(_ context.Context, c *domain.Client) error {
	if r.s.createErr != nil {
		return r.s.createErr
	}
	r.s.clients[c.ID] = *c
	return nil
}

func (r stubClients) Exists(_ context.Context, c *domain.Client) (bool, error) {
	for _, existing := range r.s.clients {
		if existing.FirstName == c.FirstName && existing.LastName == c.LastName &&
			existing.DOB == c.DOB && existing.Gender == c.Gender && existing.Contact == c.Contact {
			return true, nil
		}
	}
	return false, nil
}

func (r stubClients) FindByID(_ context.Context, id string) (*domain.Client, error) {
	c, ok := r.s.clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	return &c, nil
}

func (r stubClients) Search(_ context.Context, term string) ([]domain.Client, error) {
	var out []domain.Client
	needle := strings.ToLower(term)
	for _, c := range r.s.clients {
		if strings.Contains(strings.ToLower(c.FirstName), needle) || strings.Contains(strings.ToLower(c.LastName), needle) {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubEnrollments struct{ s *stubStore }

func (r stubEnrollments) Create(_ context.Context, e *domain.Enrollment) error {
	if r.s.createErr != nil {
		return r.s.createErr
	}
	r.s.enrollments[e.ID] = *e
	return nil
}

func (r stubEnrollments) Exists(_ context.Context, clientID, programID string) (bool, error) {
	for _, e := range r.s.enrollments {
		if e.ClientID == clientID && e.ProgramID == programID {
			return true, nil
		}
	}
	return false, nil
}

func (r stubEnrollments) ProgramsForClient(_ context.Context, clientID string) ([]domain.Program, error) {
	var out []domain.Program
	for _, e := range r.s.enrollments {
		if e.ClientID == clientID {
			out = append(out, r.s.programs[e.ProgramID])
		}
	}
	if hook := r.s.afterProgramsRead; hook != nil {
		r.s.afterProgramsRead = nil
		hook()
	}
	return out, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ---------------------------------------------------------------------------
// Stub user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users   map[string]*domain.User // keyed by email
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	if _, exists := r.users[user.Email]; exists {
		return domain.ErrUserExists
	}
	r.users[user.Email] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateRole(_ context.Context, email string, role domain.Role) error {
	u, ok := r.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (r *stubUserRepo) CountByRole(_ context.Context, role domain.Role) (int, error) {
	n := 0
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Recorders and caches
// ---------------------------------------------------------------------------

type recordedEntry struct {
	actor   string
	action  string
	details string
}

type stubRecorder struct {
	mu      sync.Mutex
	entries []recordedEntry
}

func (r *stubRecorder) Record(_ context.Context, actorID, action, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedEntry{actor: actorID, action: action, details: details})
}

func (r *stubRecorder) actions() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.action
	}
	return out
}

type stubAuditStore struct {
	appended []*domain.AuditEntry
	err      error
	deferIDs bool // leave ids unassigned, like the async dispatcher
}

func (s *stubAuditStore) Append(_ context.Context, entry *domain.AuditEntry) error {
	if s.err != nil {
		return s.err
	}
	if !s.deferIDs {
		entry.ID = int64(len(s.appended) + 1)
	}
	s.appended = append(s.appended, entry)
	return nil
}

// stubCache mirrors the generation rules of the redis cache.
type stubCache struct {
	profiles    map[string]*domain.ClientProfile
	stamps      map[string]int64
	generations map[string]int64
	invalidated []string
	sets        int
	getErr      error
}

func newStubCache() *stubCache {
	return &stubCache{
		profiles:    make(map[string]*domain.ClientProfile),
		stamps:      make(map[string]int64),
		generations: make(map[string]int64),
	}
}

func (c *stubCache) Get(_ context.Context, id string) (*domain.ClientProfile, int64, bool, error) {
	if c.getErr != nil {
		return nil, 0, false, c.getErr
	}
	gen := c.generations[id]
	p, ok := c.profiles[id]
	if !ok || c.stamps[id] != gen {
		return nil, gen, false, nil
	}
	return p, gen, true, nil
}

func (c *stubCache) Set(_ context.Context, p *domain.ClientProfile, generation int64) error {
	c.sets++
	c.profiles[p.ID] = p
	c.stamps[p.ID] = generation
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, id string) error {
	c.invalidated = append(c.invalidated, id)
	c.generations[id]++
	delete(c.profiles, id)
	return nil
}

var errBoom = errors.New("boom")

var (
	adminIdentity  = &domain.Identity{UserID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}
	staffIdentity  = &domain.Identity{UserID: "staff-1", Email: "staff@example.com", Role: domain.RoleStaff}
	viewerIdentity = &domain.Identity{UserID: "viewer-1", Email: "viewer@example.com", Role: domain.RoleViewer}
)
