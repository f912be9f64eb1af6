package tasks

import (
	"context"
	"errors"
	"log/slog"
	"reflect"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/consts"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/store/repository"
	"github.com/edgerunner/cypress-mongodb/internal/service/interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Handlers execute task requests against MongoDB. They trust the request
// shape; validation happened on the command side.
type Handlers struct {
	clients interfaces.ClientProvider
}

func NewHandlers(clients interfaces.ClientProvider) *Handlers {
	return &Handlers{clients: clients}
}

func (h *Handlers) database(ctx context.Context, req *models.TaskRequest) (*mongo.Database, error) {
	client, err := h.clients.Get(ctx, req.URI)
	if err != nil {
		return nil, err
	}
	return client.Database(req.Options.Database), nil
}

func (h *Handlers) documents(ctx context.Context, req *models.TaskRequest) (*repository.MongoRepository[bson.M], error) {
	db, err := h.database(ctx, req)
	if err != nil {
		return nil, err
	}
	return repository.NewMongoRepository[bson.M](db.Collection(req.Options.Collection)), nil
}

// Aggregate resolves to the aggregation result, an empty list when nothing matches.
func (h *Handlers) Aggregate(ctx context.Context, req *models.TaskRequest) (any, error) {
	repo, err := h.documents(ctx, req)
	if err != nil {
		return nil, err
	}
	return repo.AggregateAll(ctx, req.Pipeline.Value())
}

// FindOne resolves to the first matching document or nil.
func (h *Handlers) FindOne(ctx context.Context, req *models.TaskRequest) (any, error) {
	repo, err := h.documents(ctx, req)
	if err != nil {
		return nil, err
	}
	doc, err := repo.FindOne(ctx, req.Pipeline.Value(), nil)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (h *Handlers) FindMany(ctx context.Context, req *models.TaskRequest) (any, error) {
	repo, err := h.documents(ctx, req)
	if err != nil {
		return nil, err
	}
	return repo.Find(ctx, req.Pipeline.Value())
}

func (h *Handlers) InsertOne(ctx context.Context, req *models.TaskRequest) (any, error) {
	repo, err := h.documents(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := repo.InsertOne(ctx, req.Document.Value())
	if err != nil {
		return nil, err
	}
	return models.InsertOneResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

func (h *Handlers) InsertMany(ctx context.Context, req *models.TaskRequest) (any, error) {
	docs, err := toDocuments(req.Documents.Value())
	if err != nil {
		return nil, err
	}
	repo, err := h.documents(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := repo.InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}
	return models.InsertManyResult{
		Acknowledged:  true,
		InsertedIDs:   res.InsertedIDs,
		InsertedCount: int64(len(res.InsertedIDs)),
	}, nil
}

func (h *Handlers) DeleteOne(ctx context.Context, req *models.TaskRequest) (any, error) {
	repo, err := h.documents(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := repo.DeleteOne(ctx, req.Filter.Value())
	if err != nil {
		return nil, err
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (h *Handlers) DeleteMany(ctx context.Context, req *models.TaskRequest) (any, error) {
	repo, err := h.documents(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := repo.DeleteMany(ctx, req.Filter.Value())
	if err != nil {
		return nil, err
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (h *Handlers) UpdateOne(ctx context.Context, req *models.TaskRequest) (any, error) {
	repo, err := h.documents(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := repo.UpdateOne(ctx, req.Filter.Value(), req.Document.Value())
	if err != nil {
		return nil, err
	}
	return toUpdateResult(res), nil
}

func (h *Handlers) UpdateMany(ctx context.Context, req *models.TaskRequest) (any, error) {
	repo, err := h.documents(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := repo.UpdateMany(ctx, req.Filter.Value(), req.Document.Value())
	if err != nil {
		return nil, err
	}
	return toUpdateResult(res), nil
}

func toUpdateResult(res *mongo.UpdateResult) models.UpdateResult {
	return models.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}
}

func (h *Handlers) CreateCollection(ctx context.Context, req *models.TaskRequest) (any, error) {
	db, err := h.database(ctx, req)
	if err != nil {
		return nil, err
	}
	return createCollection(ctx, db, req)
}

func (h *Handlers) DropCollection(ctx context.Context, req *models.TaskRequest) (any, error) {
	db, err := h.database(ctx, req)
	if err != nil {
		return nil, err
	}
	return dropCollection(ctx, db, req)
}

// createCollection swallows NamespaceExists when failSilently is set.
func createCollection(ctx context.Context, db interfaces.DatabaseInterface, req *models.TaskRequest) (any, error) {
	err := db.CreateCollection(ctx, req.Collection)
	if err == nil {
		return models.CreateCollectionResult{Collection: req.Collection, Created: true}, nil
	}
	if req.Options.FailSilently && hasErrorCode(err, consts.NamespaceExistsCode) {
		logger.CtxInfo(ctx, log_messages.TaskFailureSuppressed,
			slog.String("collection", req.Collection),
			slog.String("error", err.Error()),
		)
		return models.CreateCollectionResult{Collection: req.Collection, Created: false}, nil
	}
	return nil, err
}

// dropCollection runs the drop command directly so a missing collection is
// reported as NamespaceNotFound, then swallows it when failSilently is set.
func dropCollection(ctx context.Context, db interfaces.DatabaseInterface, req *models.TaskRequest) (any, error) {
	err := db.RunCommand(ctx, bson.D{{Key: "drop", Value: req.Collection}}).Err()
	if err == nil {
		return models.DropCollectionResult{Collection: req.Collection, Dropped: true}, nil
	}
	if req.Options.FailSilently && hasErrorCode(err, consts.NamespaceNotFoundCode) {
		logger.CtxInfo(ctx, log_messages.TaskFailureSuppressed,
			slog.String("collection", req.Collection),
			slog.String("error", err.Error()),
		)
		return models.DropCollectionResult{Collection: req.Collection, Dropped: false}, nil
	}
	return nil, err
}

func hasErrorCode(err error, code int) bool {
	var serverErr mongo.ServerError
	return errors.As(err, &serverErr) && serverErr.HasErrorCode(code)
}

// toDocuments turns any list value (bson.A, []bson.M, []any, ...) into the
// []interface{} the driver wants for InsertMany.
func toDocuments(v any) ([]interface{}, error) {
	switch docs := v.(type) {
	case bson.A:
		return []interface{}(docs), nil
	case []interface{}:
		return docs, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.New(log_messages.DocumentsMustBeValid)
	}
	docs := make([]interface{}, rv.Len())
	for i := range docs {
		docs[i] = rv.Index(i).Interface()
	}
	return docs, nil
}
