package ports

import (
	"context"

	"github.com/afyalink/health-registry/internal/core/domain"
)

// UserRepository persists user accounts and their roles.
type UserRepository interface {
	// Create inserts user. A duplicate email yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// UpdateRole sets the role of the account registered under email.
	UpdateRole(ctx context.Context, email string, role domain.Role) error
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}
