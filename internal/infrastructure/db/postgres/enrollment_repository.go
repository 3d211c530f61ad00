package postgres

import (
	"context"
	"database/sql"

	"github.com/afyalink/health-registry/internal/core/domain"
)

type enrollmentRepo struct{ q querier }

func (r *enrollmentRepo) Create(ctx context.Context, e *domain.Enrollment) error {
	_, err := r.q.ExecContext(ctx,
		`insert into enrollments(id, client_id, program_id, enrollment_date) values($1, $2, $3, $4)`,
		e.ID, e.ClientID, e.ProgramID, e.EnrollmentDate,
	)
	switch {
	case isUniqueViolation(err):
		return domain.ErrEnrollmentExists
	case isForeignKeyViolation(err):
		if constraintName(err) == "enrollments_program_id_fkey" {
			return domain.ErrProgramMissing
		}
		return domain.ErrClientMissing
	}
	return err
}

func (r *enrollmentRepo) Exists(ctx context.Context, clientID, programID string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`select exists(select 1 from enrollments where client_id = $1 and program_id = $2)`,
		clientID, programID,
	).Scan(&exists)
	return exists, err
}

func (r *enrollmentRepo) ProgramsForClient(ctx context.Context, clientID string) ([]domain.Program, error) {
	rows, err := r.q.QueryContext(ctx, `
		select p.id, p.name, p.description
		from programs p
		join enrollments e on e.program_id = p.id
		where e.client_id = $1
		order by e.enrollment_date, p.name`,
		clientID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	programs := []domain.Program{}
	for rows.Next() {
		var (
			p    domain.Program
			desc sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &desc); err != nil {
			return nil, err
		}
		p.Description = nullableString(desc)
		programs = append(programs, p)
	}
	return programs, rows.Err()
}
