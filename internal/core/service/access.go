package service

import (
	"github.com/afyalink/health-registry/internal/core/domain"
	"github.com/afyalink/health-registry/internal/metrics"
)

// Operation names a guarded operation in the access policy.
type Operation string

const (
	OpCreateProgram    Operation = "create_program"
	OpCreateClient     Operation = "create_client"
	OpCreateEnrollment Operation = "create_enrollment"
	OpSearchClients    Operation = "search_clients"
	OpGetClientProfile Operation = "get_client_profile"
	OpSetRole          Operation = "set_role"
)

// policy maps each operation to the exact role it requires. An empty role
// admits any authenticated identity. Roles do not form a hierarchy: admin
// does not satisfy a staff requirement.
var policy = map[Operation]domain.Role{
	OpCreateProgram:    domain.RoleAdmin,
	OpCreateClient:     domain.RoleStaff,
	OpCreateEnrollment: domain.RoleStaff,
	OpSearchClients:    "",
	OpGetClientProfile: "",
	OpSetRole:          domain.RoleAdmin,
}

// RequiredRole returns the role op requires, or "" when any caller may run it.
func RequiredRole(op Operation) domain.Role {
	return policy[op]
}

// Authorize returns identity unchanged when its role equals required, or a
// forbidden error naming required. A nil identity is unauthorized.
func Authorize(identity *domain.Identity, required domain.Role) (*domain.Identity, error) {
	if identity == nil {
		return nil, domain.ErrInvalidToken
	}
	if required == "" || identity.Role == required {
		return identity, nil
	}
	metrics.AccessDeniedTotal.WithLabelValues(string(required), string(identity.Role)).Inc()
	return nil, domain.Forbidden(required)
}

// AuthorizeOperation applies the policy entry for op.
func AuthorizeOperation(identity *domain.Identity, op Operation) (*domain.Identity, error) {
	return Authorize(identity, RequiredRole(op))
}
