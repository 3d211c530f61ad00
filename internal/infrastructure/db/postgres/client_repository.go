package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/afyalink/health-registry/internal/core/domain"
)

const clientColumns = `id, first_name, last_name, dob, gender, contact, created_at`

type clientRepo struct{ q querier }

func (r *clientRepo) Create(ctx context.Context, c *domain.Client) error {
	_, err := r.q.ExecContext(ctx,
		`insert into clients(`+clientColumns+`) values($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.FirstName, c.LastName, c.DOB, c.Gender, c.Contact, c.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrClientExists
	}
	return err
}

func (r *clientRepo) Exists(ctx context.Context, c *domain.Client) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `
		select exists(
			select 1 from clients
			where first_name = $1 and last_name = $2 and dob = $3 and gender = $4 and contact = $5
		)`,
		c.FirstName, c.LastName, c.DOB, c.Gender, c.Contact,
	).Scan(&exists)
	return exists, err
}

func (r *clientRepo) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	var c domain.Client
	err := r.q.QueryRowContext(ctx,
		`select `+clientColumns+` from clients where id = $1`, id,
	).Scan(&c.ID, &c.FirstName, &c.LastName, &c.DOB, &c.Gender, &c.Contact, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepo) Search(ctx context.Context, term string) ([]domain.Client, error) {
	pattern := "%" + escapeLike(term) + "%"
	rows, err := r.q.QueryContext(ctx, `
		select `+clientColumns+`
		from clients
		where first_name ilike $1 escape '\' or last_name ilike $1 escape '\'
		order by last_name, first_name, created_at`,
		pattern,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []domain.Client{}
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.DOB, &c.Gender, &c.Contact, &c.CreatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes term match literally inside a LIKE pattern.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
