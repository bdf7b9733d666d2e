package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shingo/auth-api/internal/audit"
)

const auditCollection = "audit_log"

type mongoAuditEntry struct {
	Kind     string `bson:"kind"`
	Subject  string `bson:"subject,omitempty"`
	Resource string `bson:"resource,omitempty"`
	Level    string `bson:"level,omitempty"`
	Outcome  string `bson:"outcome"`
	Detail   string `bson:"detail,omitempty"`
	At       int64  `bson:"at"`
}

// AuditRepository appends entries to the append-only audit collection.
// Entries are never updated or deleted.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

func (r *AuditRepository) Append(ctx context.Context, e *audit.Entry) error {
	doc := mongoAuditEntry{
		Kind:     e.Kind,
		Subject:  e.Subject,
		Resource: e.Resource,
		Level:    e.Level,
		Outcome:  e.Outcome,
		Detail:   e.Detail,
		At:       e.At.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
