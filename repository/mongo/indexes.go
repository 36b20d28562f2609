package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/fastygo/bizdesk/repository"
)

// Indexes lists the composite indexes listings rely on so tenant filters and
// createdAt ordering are served by the store.
func Indexes() map[string][]mongodriver.IndexModel {
	tenantByCreated := func(keys ...string) mongodriver.IndexModel {
		d := bson.D{}
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: 1})
		}
		d = append(d, bson.E{Key: "createdAt", Value: -1})
		return mongodriver.IndexModel{Keys: d}
	}

	return map[string][]mongodriver.IndexModel{
		repository.CollectionLeads: {
			tenantByCreated("businessId"),
			tenantByCreated("businessId", "commerceId"),
			tenantByCreated("businessId", "pipelineStage"),
		},
		repository.CollectionLeadContacts: {
			tenantByCreated("leadId"),
		},
		repository.CollectionBookings: {
			tenantByCreated("businessId"),
			tenantByCreated("businessId", "commerceId"),
			tenantByCreated("businessId", "clientId"),
			tenantByCreated("businessId", "status"),
			{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "startAt", Value: 1}}},
		},
		repository.CollectionRoles: {
			tenantByCreated("businessId"),
			{Keys: bson.D{{Key: "businessId", Value: 1}, {Key: "nameKey", Value: 1}, {Key: "active", Value: 1}}},
		},
	}
}

// EnsureIndexes creates the indexes returned by Indexes. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongodriver.Database) error {
	for collection, models := range Indexes() {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
