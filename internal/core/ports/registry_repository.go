package ports

import (
	"context"

	"github.com/afyalink/health-registry/internal/core/domain"
)

// ProgramRepository handles program persistence.
type ProgramRepository interface {
	Create(ctx context.Context, p *domain.Program) error
	// Exists reports whether a program with the same name and description is stored.
	Exists(ctx context.Context, name string, description *string) (bool, error)
	FindByID(ctx context.Context, id string) (*domain.Program, error)
}

// ClientRepository handles client persistence. Contact values passed in and
// returned are already hashed.
type ClientRepository interface {
	Create(ctx context.Context, c *domain.Client) error
	// Exists matches on the full (first_name, last_name, dob, gender, contact) tuple.
	Exists(ctx context.Context, c *domain.Client) (bool, error)
	FindByID(ctx context.Context, id string) (*domain.Client, error)
	// Search matches term as a case-insensitive substring of first or last name.
	Search(ctx context.Context, term string) ([]domain.Client, error)
}

// EnrollmentRepository handles enrollment persistence.
type EnrollmentRepository interface {
	Create(ctx context.Context, e *domain.Enrollment) error
	Exists(ctx context.Context, clientID, programID string) (bool, error)
	// ProgramsForClient returns every program the client is enrolled in.
	ProgramsForClient(ctx context.Context, clientID string) ([]domain.Program, error)
}

// Store groups the registry repositories behind a single handle. WithTx runs
// fn against a Store bound to one transaction, committing when fn returns nil.
type Store interface {
	Programs() ProgramRepository
	Clients() ClientRepository
	Enrollments() EnrollmentRepository
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// AuditStore is the append-only sink for audit entries.
type AuditStore interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
}

// ProfileCache is an optional read-through cache for client profiles.
//
// Every client has a generation that Invalidate advances. Get reports the
// current generation on a miss, and Set stores the profile under it, so a
// profile read from the store before an invalidation is never served after it.
type ProfileCache interface {
	Get(ctx context.Context, clientID string) (profile *domain.ClientProfile, generation int64, ok bool, err error)
	Set(ctx context.Context, profile *domain.ClientProfile, generation int64) error
	Invalidate(ctx context.Context, clientID string) error
}
