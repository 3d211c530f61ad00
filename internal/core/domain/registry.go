package domain

import (
	"regexp"
	"time"
)

// DOBPattern is the only accepted date-of-birth layout (YYYY-MM-DD).
var DOBPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Program is a health intervention clients can be enrolled in.
type Program struct {
	ID          string  `json:"program_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Client is a person registered with the service. Contact holds the keyed
// hash of the submitted value once persisted.
type Client struct {
	ID        string    `json:"client_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	DOB       string    `json:"dob"`
	Gender    string    `json:"gender"`
	Contact   string    `json:"contact"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientProfile is a client together with the programs it is enrolled in.
type ClientProfile struct {
	Client
	Programs []Program `json:"programs"`
}

// Enrollment links one client to one program.
type Enrollment struct {
	ID             string    `json:"enrollment_id"`
	ClientID       string    `json:"client_id"`
	ProgramID      string    `json:"program_id"`
	EnrollmentDate time.Time `json:"enrollment_date"`
}
