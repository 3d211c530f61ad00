package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/afyalink/health-registry/internal/core/domain"
)

type programRepo struct{ q querier }

func (r *programRepo) Create(ctx context.Context, p *domain.Program) error {
	_, err := r.q.ExecContext(ctx,
		`insert into programs(id, name, description) values($1, $2, $3)`,
		p.ID, p.Name, p.Description,
	)
	if isUniqueViolation(err) {
		return domain.ErrProgramExists
	}
	return err
}

func (r *programRepo) Exists(ctx context.Context, name string, description *string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`select exists(select 1 from programs where name = $1 and description is not distinct from $2)`,
		name, description,
	).Scan(&exists)
	return exists, err
}

func (r *programRepo) FindByID(ctx context.Context, id string) (*domain.Program, error) {
	var (
		p    domain.Program
		desc sql.NullString
	)
	err := r.q.QueryRowContext(ctx,
		`select id, name, description from programs where id = $1`, id,
	).Scan(&p.ID, &p.Name, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProgramNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Description = nullableString(desc)
	return &p, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
