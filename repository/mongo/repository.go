package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fastygo/bizdesk/repository"
)

type collectionRepository[T repository.Document] struct {
	coll *mongodriver.Collection
}

// New returns a Repository backed by the named collection.
func New[T repository.Document](db *mongodriver.Database, collection string) repository.Repository[T] {
	return &collectionRepository[T]{coll: db.Collection(collection)}
}

func (r *collectionRepository[T]) FindByID(ctx context.Context, id string) (T, error) {
	var out T
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if err != nil {
		var zero T
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return zero, repository.ErrNoDocument
		}
		return zero, fmt.Errorf("find %s/%s: %w", r.coll.Name(), id, err)
	}
	return out, nil
}

// Create inserts entity and reads it back so callers see the stored value
// (BSON dates keep millisecond precision only).
func (r *collectionRepository[T]) Create(ctx context.Context, entity T) (T, error) {
	var zero T
	if entity.EntityID() == "" {
		entity.SetEntityID(primitive.NewObjectID().Hex())
	}
	if _, err := r.coll.InsertOne(ctx, entity); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return zero, repository.ErrDuplicateID
		}
		return zero, fmt.Errorf("insert into %s: %w", r.coll.Name(), err)
	}
	return r.FindByID(ctx, entity.EntityID())
}

func (r *collectionRepository[T]) Update(ctx context.Context, entity T) (T, error) {
	var zero T
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": entity.EntityID()}, entity)
	if err != nil {
		return zero, fmt.Errorf("replace %s/%s: %w", r.coll.Name(), entity.EntityID(), err)
	}
	if res.MatchedCount == 0 {
		return zero, repository.ErrNoDocument
	}
	return r.FindByID(ctx, entity.EntityID())
}

func (r *collectionRepository[T]) Find(ctx context.Context, query repository.Query) ([]T, error) {
	cursor, err := r.coll.Find(ctx, BuildFilter(query), BuildFindOptions(query))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.coll.Name(), err)
	}
	return out, nil
}

func (r *collectionRepository[T]) FindOne(ctx context.Context, query repository.Query) (T, error) {
	var zero T
	docs, err := r.Find(ctx, query.Limit(1))
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, repository.ErrNoDocument
	}
	return docs[0], nil
}

// BuildFilter translates equality filters. "id" maps to the "_id" key and a nil
// value matches null or missing fields.
func BuildFilter(query repository.Query) bson.D {
	filter := bson.D{}
	for _, f := range query.Filters {
		filter = append(filter, bson.E{Key: fieldName(f.Field), Value: f.Value})
	}
	return filter
}

// BuildFindOptions translates ordering and limit.
func BuildFindOptions(query repository.Query) *options.FindOptions {
	opts := options.Find()
	if len(query.Orders) > 0 {
		sort := bson.D{}
		for _, o := range query.Orders {
			dir := 1
			if o.Direction == repository.Descending {
				dir = -1
			}
			sort = append(sort, bson.E{Key: fieldName(o.Field), Value: dir})
		}
		opts.SetSort(sort)
	}
	if query.Max > 0 {
		opts.SetLimit(int64(query.Max))
	}
	return opts
}

func fieldName(field string) string {
	if field == "id" {
		return "_id"
	}
	return field
}
