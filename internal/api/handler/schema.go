package handler

import "time"

// --- Requests ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// loginRequest follows the OAuth2 password form: the email goes in username.
type loginRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type setRoleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"  validate:"required"`
}

type initAdminRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type createProgramRequest struct {
	Name        string  `json:"name"        validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type createClientRequest struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name"  validate:"required,max=50"`
	DOB       string `json:"dob"        validate:"required,isodate"`
	Gender    string `json:"gender"     validate:"required,max=20"`
	Contact   string `json:"contact"    validate:"required,max=100"`
}

type searchClientsRequest struct {
	SearchTerm string `json:"search_term" validate:"required,max=100"`
}

type createEnrollmentRequest struct {
	ClientID  string `json:"client_id"  validate:"required,uuid"`
	ProgramID string `json:"program_id" validate:"required,uuid"`
}

// --- Responses ---

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type programResponse struct {
	ProgramID   string  `json:"program_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type clientResponse struct {
	ClientID  string            `json:"client_id"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	DOB       string            `json:"dob"`
	Gender    string            `json:"gender"`
	Contact   string            `json:"contact"`
	CreatedAt string            `json:"created_at"`
	Programs  []programResponse `json:"programs"`
}

type enrollmentResponse struct {
	EnrollmentID   string `json:"enrollment_id"`
	ClientID       string `json:"client_id"`
	ProgramID      string `json:"program_id"`
	EnrollmentDate string `json:"enrollment_date"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

const timestampLayout = time.RFC3339
