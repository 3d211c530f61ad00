package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/afyalink/health-registry/internal/core/domain"
	"github.com/afyalink/health-registry/internal/core/ports"
)

var _ ports.AuditStore = (*AuditRepository)(nil)

// AuditRepository appends to audit_log. The table rejects updates and
// deletes through a trigger.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	err := r.db.QueryRowContext(ctx,
		`insert into audit_log(user_id, action, details, timestamp) values($1, $2, $3, $4) returning id`,
		entry.UserID, entry.Action, entry.Details, entry.Timestamp,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
