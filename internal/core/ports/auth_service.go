package ports

import (
	"context"

	"github.com/afyalink/health-registry/internal/core/domain"
)

// AuthService issues and resolves bearer tokens and manages roles.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	// Login returns a signed access token for valid credentials.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Resolve validates token and loads the identity it was issued to.
	Resolve(ctx context.Context, token string) (*domain.Identity, error)
	SetRole(ctx context.Context, actor *domain.Identity, email, role string) error
	InitAdmin(ctx context.Context, email string) error
	// EnsureAdmin creates the reserved admin account when no admin exists.
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}
