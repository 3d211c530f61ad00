package ports

import (
	"context"

	"github.com/afyalink/health-registry/internal/core/domain"
)

// CreateProgramInput carries the fields for a new program.
type CreateProgramInput struct {
	Name        string
	Description *string // optional
}

// CreateClientInput carries the fields for a new client. Contact is plaintext.
type CreateClientInput struct {
	FirstName string
	LastName  string
	DOB       string
	Gender    string
	Contact   string
}

// CreateEnrollmentInput references an existing client and program.
type CreateEnrollmentInput struct {
	ClientID  string
	ProgramID string
}

// RegistryService defines the guarded record operations. Each call takes the
// acting identity so the access check and audit entry are part of the call.
type RegistryService interface {
	CreateProgram(ctx context.Context, actor *domain.Identity, in CreateProgramInput) (*domain.Program, error)
	CreateClient(ctx context.Context, actor *domain.Identity, in CreateClientInput) (*domain.ClientProfile, error)
	CreateEnrollment(ctx context.Context, actor *domain.Identity, in CreateEnrollmentInput) (*domain.Enrollment, error)
	SearchClients(ctx context.Context, actor *domain.Identity, term string) ([]domain.ClientProfile, error)
	GetClientProfile(ctx context.Context, actor *domain.Identity, clientID string) (*domain.ClientProfile, error)
}
