package handler

import (
	"github.com/afyalink/health-registry/internal/core/domain"
	"github.com/afyalink/health-registry/internal/core/ports"
)

// --- Request → Service input ---

func toCreateProgramInput(req createProgramRequest) ports.CreateProgramInput {
	return ports.CreateProgramInput{Name: req.Name, Description: req.Description}
}

func toCreateClientInput(req createClientRequest) ports.CreateClientInput {
	return ports.CreateClientInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		DOB:       req.DOB,
		Gender:    req.Gender,
		Contact:   req.Contact,
	}
}

func toCreateEnrollmentInput(req createEnrollmentRequest) ports.CreateEnrollmentInput {
	return ports.CreateEnrollmentInput{ClientID: req.ClientID, ProgramID: req.ProgramID}
}

// --- Domain → Response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: string(u.Role), IsActive: u.IsActive}
}

func toProgramResponse(p domain.Program) programResponse {
	return programResponse{ProgramID: p.ID, Name: p.Name, Description: p.Description}
}

func toClientResponse(p domain.ClientProfile) clientResponse {
	programs := make([]programResponse, 0, len(p.Programs))
	for _, prog := range p.Programs {
		programs = append(programs, toProgramResponse(prog))
	}
	return clientResponse{
		ClientID:  p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		DOB:       p.DOB,
		Gender:    p.Gender,
		Contact:   p.Contact,
		CreatedAt: p.CreatedAt.UTC().Format(timestampLayout),
		Programs:  programs,
	}
}

func toEnrollmentResponse(e *domain.Enrollment) enrollmentResponse {
	return enrollmentResponse{
		EnrollmentID:   e.ID,
		ClientID:       e.ClientID,
		ProgramID:      e.ProgramID,
		EnrollmentDate: e.EnrollmentDate.UTC().Format(timestampLayout),
	}
}
