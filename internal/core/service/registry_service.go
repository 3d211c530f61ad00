package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afyalink/health-registry/internal/core/domain"
	"github.com/afyalink/health-registry/internal/core/ports"
	"github.com/afyalink/health-registry/internal/metrics"
	"github.com/afyalink/health-registry/internal/pkg/sanitize"
)

// RegistryService implements the program, client and enrollment operations.
// Every mutating call follows the same sequence: access check, sanitize,
// check-then-insert inside one transaction, audit after commit.
type RegistryService struct {
	store  ports.Store
	cache  ports.ProfileCache
	audit  Recorder
	hasher ContactHasher
	log    zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// NewRegistryService wires a RegistryService. cache may be nil, in which case
// profiles are always read from the store.
func NewRegistryService(
	store ports.Store,
	cache ports.ProfileCache,
	audit Recorder,
	hasher ContactHasher,
	log zerolog.Logger,
) *RegistryService {
	if cache == nil {
		cache = noopProfileCache{}
	}
	return &RegistryService{
		store:  store,
		cache:  cache,
		audit:  audit,
		hasher: hasher,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// CreateProgram stores a new program. A program with the same name and
// description is rejected with domain.ErrProgramExists.
func (s *RegistryService) CreateProgram(ctx context.Context, actor *domain.Identity, in ports.CreateProgramInput) (*domain.Program, error) {
	if _, err := AuthorizeOperation(actor, OpCreateProgram); err != nil {
		return nil, err
	}

	program := &domain.Program{
		ID:          s.newID(),
		Name:        sanitize.Text(in.Name),
		Description: sanitize.Optional(in.Description),
	}
	if program.Name == "" {
		return nil, domain.Validation("name is required")
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx ports.Store) error {
		exists, err := tx.Programs().Exists(ctx, program.Name, program.Description)
		if err != nil {
			return fmt.Errorf("check program: %w", err)
		}
		if exists {
			return domain.ErrProgramExists
		}
		return tx.Programs().Create(ctx, program)
	})
	if err != nil {
		return nil, s.createFailed("program", err)
	}

	metrics.RecordsCreatedTotal.WithLabelValues("program").Inc()
	s.audit.Record(ctx, actor.UserID, domain.ActionCreateProgram,
		fmt.Sprintf("Created program %s (%s)", program.Name, program.ID))
	s.log.Info().Str("program_id", program.ID).Str("actor", actor.UserID).Msg("program created")

	return program, nil
}

// CreateClient stores a new client with its contact hashed. The returned
// profile carries the submitted plaintext contact and no programs.
func (s *RegistryService) CreateClient(ctx context.Context, actor *domain.Identity, in ports.CreateClientInput) (*domain.ClientProfile, error) {
	if _, err := AuthorizeOperation(actor, OpCreateClient); err != nil {
		return nil, err
	}

	client := domain.Client{
		ID:        s.newID(),
		FirstName: sanitize.Text(in.FirstName),
		LastName:  sanitize.Text(in.LastName),
		DOB:       sanitize.Text(in.DOB),
		Gender:    sanitize.Text(in.Gender),
		Contact:   sanitize.Text(in.Contact),
		CreatedAt: s.now(),
	}
	if err := validateClient(client); err != nil {
		return nil, err
	}

	stored := client
	stored.Contact = s.hasher.Hash(client.Contact)

	err := s.store.WithTx(ctx, func(ctx context.Context, tx ports.Store) error {
		exists, err := tx.Clients().Exists(ctx, &stored)
		if err != nil {
			return fmt.Errorf("check client: %w", err)
		}
		if exists {
			return domain.ErrClientExists
		}
		return tx.Clients().Create(ctx, &stored)
	})
	if err != nil {
		return nil, s.createFailed("client", err)
	}

	metrics.RecordsCreatedTotal.WithLabelValues("client").Inc()
	s.audit.Record(ctx, actor.UserID, domain.ActionCreateClient,
		fmt.Sprintf("Created client %s", client.ID))
	s.log.Info().Str("client_id", client.ID).Str("actor", actor.UserID).Msg("client created")

	return &domain.ClientProfile{Client: client, Programs: []domain.Program{}}, nil
}

// CreateEnrollment enrols an existing client in an existing program. A pair
// that is already enrolled is rejected with domain.ErrEnrollmentExists.
func (s *RegistryService) CreateEnrollment(ctx context.Context, actor *domain.Identity, in ports.CreateEnrollmentInput) (*domain.Enrollment, error) {
	if _, err := AuthorizeOperation(actor, OpCreateEnrollment); err != nil {
		return nil, err
	}

	clientID, err := parseID("client_id", in.ClientID)
	if err != nil {
		return nil, err
	}
	programID, err := parseID("program_id", in.ProgramID)
	if err != nil {
		return nil, err
	}

	enrollment := &domain.Enrollment{
		ID:             s.newID(),
		ClientID:       clientID,
		ProgramID:      programID,
		EnrollmentDate: s.now(),
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx ports.Store) error {
		if _, err := tx.Clients().FindByID(ctx, clientID); err != nil {
			if errors.Is(err, domain.ErrClientNotFound) {
				return domain.ErrClientMissing
			}
			return fmt.Errorf("find client: %w", err)
		}
		if _, err := tx.Programs().FindByID(ctx, programID); err != nil {
			if errors.Is(err, domain.ErrProgramNotFound) {
				return domain.ErrProgramMissing
			}
			return fmt.Errorf("find program: %w", err)
		}

		exists, err := tx.Enrollments().Exists(ctx, clientID, programID)
		if err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if exists {
			return domain.ErrEnrollmentExists
		}
		return tx.Enrollments().Create(ctx, enrollment)
	})
	if err != nil {
		return nil, s.createFailed("enrollment", err)
	}

	if err := s.cache.Invalidate(ctx, clientID); err != nil {
		s.log.Warn().Err(err).Str("client_id", clientID).Msg("failed to invalidate profile cache")
	}

	metrics.RecordsCreatedTotal.WithLabelValues("enrollment").Inc()
	s.audit.Record(ctx, actor.UserID, domain.ActionCreateEnrollment,
		fmt.Sprintf("Enrolled client %s in program %s (%s)", clientID, programID, enrollment.ID))
	s.log.Info().Str("enrollment_id", enrollment.ID).Str("actor", actor.UserID).Msg("enrollment created")

	return enrollment, nil
}

// SearchClients returns clients whose first or last name contains term.
// Results never include programs.
func (s *RegistryService) SearchClients(ctx context.Context, actor *domain.Identity, term string) ([]domain.ClientProfile, error) {
	if _, err := AuthorizeOperation(actor, OpSearchClients); err != nil {
		return nil, err
	}

	term = sanitize.Text(term)
	if term == "" {
		return nil, domain.Validation("search_term is required")
	}

	clients, err := s.store.Clients().Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search clients: %w", err)
	}

	out := make([]domain.ClientProfile, len(clients))
	for i, c := range clients {
		out[i] = domain.ClientProfile{Client: c, Programs: []domain.Program{}}
	}
	return out, nil
}

// GetClientProfile returns a client with every program it is enrolled in.
func (s *RegistryService) GetClientProfile(ctx context.Context, actor *domain.Identity, clientID string) (*domain.ClientProfile, error) {
	if _, err := AuthorizeOperation(actor, OpGetClientProfile); err != nil {
		return nil, err
	}

	id, err := parseID("client_id", clientID)
	if err != nil {
		return nil, err
	}

	cached, generation, ok, err := s.cache.Get(ctx, id)
	// Without a generation the profile cannot be stored safely.
	cacheable := err == nil
	switch {
	case err != nil:
		metrics.ProfileCacheTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Str("client_id", id).Msg("profile cache read failed")
	case ok:
		metrics.ProfileCacheTotal.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		metrics.ProfileCacheTotal.WithLabelValues("miss").Inc()
	}

	client, err := s.store.Clients().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	programs, err := s.store.Enrollments().ProgramsForClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}
	if programs == nil {
		programs = []domain.Program{}
	}

	profile := &domain.ClientProfile{Client: *client, Programs: programs}
	if cacheable {
		if err := s.cache.Set(ctx, profile, generation); err != nil {
			s.log.Warn().Err(err).Str("client_id", id).Msg("profile cache write failed")
		}
	}
	return profile, nil
}

// createFailed counts conflicts and wraps unexpected errors for kind.
func (s *RegistryService) createFailed(kind string, err error) error {
	if errors.Is(err, domain.ErrConflict) {
		metrics.RecordConflictsTotal.WithLabelValues(kind).Inc()
		return err
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	s.log.Error().Err(err).Str("kind", kind).Msg("create failed")
	return fmt.Errorf("create %s: %w", kind, err)
}

func validateClient(c domain.Client) error {
	switch {
	case c.FirstName == "":
		return domain.Validation("first_name is required")
	case c.LastName == "":
		return domain.Validation("last_name is required")
	case !domain.DOBPattern.MatchString(c.DOB):
		return domain.Validation("dob must match YYYY-MM-DD")
	case c.Gender == "":
		return domain.Validation("gender is required")
	case c.Contact == "":
		return domain.Validation("contact is required")
	}
	return nil
}

// parseID checks that raw is a UUID and returns its canonical form.
func parseID(field, raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", domain.Validation(field + " must be a valid UUID")
	}
	return id.String(), nil
}

type noopProfileCache struct{}

func (noopProfileCache) Get(context.Context, string) (*domain.ClientProfile, int64, bool, error) {
	return nil, 0, false, nil
}

func (noopProfileCache) Set(context.Context, *domain.ClientProfile, int64) error { return nil }

func (noopProfileCache) Invalidate(context.Context, string) error { return nil }
