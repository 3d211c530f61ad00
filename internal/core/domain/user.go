package domain

import (
	"strings"
	"time"
)

// Role is the single access level assigned to a user account.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleViewer Role = "viewer"
)

// SystemActor is the audit actor used for actions taken without a caller,
// such as the startup admin bootstrap.
const SystemActor = "system"

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleStaff:
		return RoleStaff, nil
	case RoleViewer:
		return RoleViewer, nil
	}
	return "", ErrInvalidRole
}

// User models a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller of a request, resolved from a token.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// Identity returns the caller view of u.
func (u *User) Identity() *Identity {
	return &Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}
