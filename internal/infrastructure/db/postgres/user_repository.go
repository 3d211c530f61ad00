package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/afyalink/health-registry/internal/core/domain"
	"github.com/afyalink/health-registry/internal/core/ports"
)

const userColumns = `id, email, hashed_password, role, is_active, created_at`

var _ ports.UserRepository = (*UserRepository)(nil)

// UserRepository persists accounts in the "user" table.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`insert into "user"(`+userColumns+`) values($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.PasswordHash, string(u.Role), u.IsActive, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrUserExists
	}
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, `select `+userColumns+` from "user" where email = $1`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, `select `+userColumns+` from "user" where id = $1`, id)
}

func (r *UserRepository) UpdateRole(ctx context.Context, email string, role domain.Role) error {
	res, err := r.db.ExecContext(ctx, `update "user" set role = $1 where email = $2`, string(role), email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `select count(*) from "user" where role = $1`, string(role)).Scan(&n)
	return n, err
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}
