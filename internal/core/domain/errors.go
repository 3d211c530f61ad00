package domain

import "errors"

// Error kinds. Every error returned by the core unwraps to one of these so the
// transport layer can pick a status code with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error pairs an error kind with the human-readable detail sent to callers.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) Unwrap() error { return e.Kind }

// Validation returns a validation error carrying detail.
func Validation(detail string) error {
	return &Error{Kind: ErrValidation, Detail: detail}
}

// Forbidden returns the error raised when an identity lacks the required role.
func Forbidden(required Role) error {
	return &Error{Kind: ErrForbidden, Detail: "Operation requires role: " + string(required)}
}

var (
	ErrProgramExists    = &Error{Kind: ErrConflict, Detail: "Program already exists"}
	ErrClientExists     = &Error{Kind: ErrConflict, Detail: "Client already exists"}
	ErrEnrollmentExists = &Error{Kind: ErrConflict, Detail: "Enrollment already exists"}

	ErrClientNotFound  = &Error{Kind: ErrNotFound, Detail: "Client not found"}
	ErrProgramNotFound = &Error{Kind: ErrNotFound, Detail: "Program not found"}
	// Raised by create_enrollment when a reference does not resolve.
	ErrClientMissing  = &Error{Kind: ErrNotFound, Detail: "Client does not exist"}
	ErrProgramMissing = &Error{Kind: ErrNotFound, Detail: "Program does not exist"}

	ErrUserNotFound       = &Error{Kind: ErrNotFound, Detail: "User not found"}
	ErrUserExists         = &Error{Kind: ErrValidation, Detail: "REGISTER_USER_ALREADY_EXISTS"}
	ErrInvalidCredentials = &Error{Kind: ErrValidation, Detail: "LOGIN_BAD_CREDENTIALS"}
	ErrInvalidRole        = &Error{Kind: ErrValidation, Detail: "Invalid role. Must be one of: admin, staff, viewer"}
	ErrInvalidToken       = &Error{Kind: ErrUnauthorized, Detail: "Unauthorized"}
	ErrInitAdminDisabled  = &Error{Kind: ErrForbidden, Detail: "Admin initialisation is disabled"}
)
