package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/afyalink/health-registry/internal/core/domain"
	"github.com/afyalink/health-registry/internal/core/ports"
)

const (
	auditCollection    = "audit_log"
	countersCollection = "counters"
	auditSequence      = "audit_log"
)

var _ ports.AuditStore = (*AuditRepository)(nil)

// AuditRepository appends audit entries to a MongoDB collection. Entry ids
// come from a counter document so they stay sequential like the SQL store.
// The repository exposes no update or delete path.
type AuditRepository struct {
	entries  *mongo.Collection
	counters *mongo.Collection
}

// NewAuditRepository creates an AuditRepository on db.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{
		entries:  db.Collection(auditCollection),
		counters: db.Collection(countersCollection),
	}
}

type auditDocument struct {
	ID        int64     `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Action    string    `bson:"action"`
	Details   string    `bson:"details"`
	Timestamp time.Time `bson:"timestamp"`
}

// Append assigns the next id and inserts entry.
func (r *AuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return fmt.Errorf("audit sequence: %w", err)
	}

	doc := auditDocument{
		ID:        id,
		UserID:    entry.UserID,
		Action:    entry.Action,
		Details:   entry.Details,
		Timestamp: entry.Timestamp.UTC(),
	}
	if _, err := r.entries.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	entry.ID = id
	return nil
}

func (r *AuditRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": auditSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

// EnsureIndexes creates the lookup indexes on the audit collection.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "timestamp", Value: -1}}},
	}

	_, err := r.entries.Indexes().CreateMany(ctx, indexes)
	return err
}
