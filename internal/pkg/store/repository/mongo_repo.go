package repository

import (
	"context"

	"github.com/edgerunner/cypress-mongodb/internal/service/interfaces"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository runs raw driver calls against one collection and decodes
// documents into T. Update documents are passed to the driver as given.
type MongoRepository[T any] struct {
	collection interfaces.CollectionInterface
}

func NewMongoRepository[T any](collection interfaces.CollectionInterface) *MongoRepository[T] {
	return &MongoRepository[T]{collection: collection}
}

func (r *MongoRepository[T]) InsertOne(ctx context.Context, document interface{}) (*mongo.InsertOneResult, error) {
	return r.collection.InsertOne(ctx, document)
}

func (r *MongoRepository[T]) InsertMany(ctx context.Context, documents []interface{}) (*mongo.InsertManyResult, error) {
	return r.collection.InsertMany(ctx, documents)
}

// FindOne returns mongo.ErrNoDocuments when nothing matches.
func (r *MongoRepository[T]) FindOne(ctx context.Context, filter interface{}, opt *options.FindOneOptions) (T, error) {
	var result T

	opts := []*options.FindOneOptions{}
	if opt != nil {
		opts = append(opts, opt)
	}
	if err := r.collection.FindOne(ctx, filter, opts...).Decode(&result); err != nil {
		return result, err
	}

	return result, nil
}

// Find returns every matching document, never a nil slice.
func (r *MongoRepository[T]) Find(ctx context.Context, filter interface{}) ([]T, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	results := make([]T, 0)
	for cursor.Next(ctx) {
		var entity T
		if err := cursor.Decode(&entity); err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// AggregateAll runs the pipeline and drains the cursor, never a nil slice.
func (r *MongoRepository[T]) AggregateAll(ctx context.Context, pipeline interface{}) ([]T, error) {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	results := make([]T, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *MongoRepository[T]) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error) {
	return r.collection.UpdateOne(ctx, filter, update)
}

func (r *MongoRepository[T]) UpdateMany(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error) {
	return r.collection.UpdateMany(ctx, filter, update)
}

func (r *MongoRepository[T]) DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return r.collection.DeleteOne(ctx, filter)
}

func (r *MongoRepository[T]) DeleteMany(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	return r.collection.DeleteMany(ctx, filter)
}
