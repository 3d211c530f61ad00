package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/afyalink/health-registry/internal/core/domain"
	"github.com/afyalink/health-registry/internal/core/ports"
	"github.com/afyalink/health-registry/internal/metrics"
)

// Recorder appends audit entries. Implementations must not fail the caller.
type Recorder interface {
	Record(ctx context.Context, actorID, action, details string)
}

// AuditRecorder writes audit entries to an append-only store. Recording is
// best-effort: it runs after the mutation it describes has been committed and
// a store failure is logged and counted, never returned.
type AuditRecorder struct {
	store ports.AuditStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewAuditRecorder returns an AuditRecorder backed by store.
func NewAuditRecorder(store ports.AuditStore, log zerolog.Logger) *AuditRecorder {
	return &AuditRecorder{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Record appends an entry for actorID. The write is detached from ctx
// cancellation so a client hanging up after a committed mutation does not
// drop its audit entry.
func (r *AuditRecorder) Record(ctx context.Context, actorID, action, details string) {
	entry := &domain.AuditEntry{
		UserID:    actorID,
		Action:    action,
		Details:   details,
		Timestamp: r.now(),
	}

	if err := r.store.Append(context.WithoutCancel(ctx), entry); err != nil {
		metrics.AuditFailuresTotal.WithLabelValues(action).Inc()
		r.log.Error().
			Err(err).
			Str("actor", actorID).
			Str("action", action).
			Msg("failed to record audit entry")
		return
	}

	metrics.AuditEntriesTotal.WithLabelValues(action).Inc()
	evt := r.log.Debug().Str("actor", actorID).Str("action", action)
	// Asynchronous stores assign the id after Append returns.
	if entry.ID != 0 {
		evt = evt.Int64("audit_id", entry.ID)
	}
	evt.Msg("audit entry recorded")
}
