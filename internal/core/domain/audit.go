package domain

import "time"

// Audit actions recorded by the service.
const (
	ActionCreateProgram    = "create_program"
	ActionCreateClient     = "create_client"
	ActionCreateEnrollment = "create_enrollment"
	ActionRegisterUser     = "register_user"
	ActionSetRole          = "set_role"
	ActionInitAdmin        = "init_admin"
	ActionBootstrapAdmin   = "bootstrap_admin"
)

// AuditEntry is an immutable record of who did what and when. ID is assigned
// by the store.
type AuditEntry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}
