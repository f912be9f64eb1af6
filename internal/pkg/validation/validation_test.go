package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func validRequest() *models.TaskRequest {
	return &models.TaskRequest{
		URI: "mongodb://localhost:27017",
		Options: models.Options{
			Database:   "cypress",
			Collection: "users",
		},
	}
}

func TestValidateRequest(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(models.OperationFindOne, validRequest()))
	})

	t.Run("missing uri", func(t *testing.T) {
		req := validRequest()
		req.URI = ""
		err := ValidateRequest(models.OperationFindOne, req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Equal(t, "uri must be specified", err.Error())
	})

	t.Run("missing database", func(t *testing.T) {
		req := validRequest()
		req.Options.Database = ""
		err := ValidateRequest(models.OperationInsertOne, req)
		require.Error(t, err)
		assert.Equal(t, "options.database must be specified", err.Error())
	})

	t.Run("missing collection", func(t *testing.T) {
		req := validRequest()
		req.Options.Collection = ""
		err := ValidateRequest(models.OperationAggregate, req)
		require.Error(t, err)
		assert.Equal(t, "options.collection must be specified", err.Error())
	})

	t.Run("create collection needs a name instead of a collection option", func(t *testing.T) {
		req := validRequest()
		req.Options.Collection = ""
		req.Collection = "fresh"
		assert.NoError(t, ValidateRequest(models.OperationCreateCollection, req))

		req.Collection = ""
		err := ValidateRequest(models.OperationDropCollection, req)
		require.Error(t, err)
		assert.Equal(t, "Collection name must be specified", err.Error())
	})

	t.Run("nil request", func(t *testing.T) {
		err := ValidateRequest(models.OperationFindOne, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("invalid operation", func(t *testing.T) {
		err := ValidateRequest(models.Operation(99), validRequest())
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestValidatePipeline(t *testing.T) {
	assert.NoError(t, ValidatePipeline(bson.A{bson.M{"$match": bson.M{}}}))
	assert.NoError(t, ValidatePipeline(mongo.Pipeline{{{Key: "$match", Value: bson.D{}}}}))
	assert.NoError(t, ValidatePipeline([]bson.M{}))

	err := ValidatePipeline(nil)
	require.Error(t, err)
	assert.Equal(t, "Pipeline must be specified", err.Error())

	var nilPipeline bson.A
	assert.EqualError(t, ValidatePipeline(nilPipeline), "Pipeline must be specified")

	err = ValidatePipeline(bson.M{"$match": bson.M{}})
	require.Error(t, err)
	assert.Equal(t, "Pipeline must be a valid mongodb aggregation", err.Error())

	assert.EqualError(t, ValidatePipeline(bson.D{{Key: "$match", Value: bson.D{}}}),
		"Pipeline must be a valid mongodb aggregation")
	assert.EqualError(t, ValidatePipeline("match"), "Pipeline must be a valid mongodb aggregation")
}

func TestValidateQuery(t *testing.T) {
	assert.NoError(t, ValidateQuery(bson.M{"a": 1}))
	assert.NoError(t, ValidateQuery(bson.D{{Key: "a", Value: 1}}))
	assert.NoError(t, ValidateQuery(map[string]any{}))
	assert.NoError(t, ValidateQuery(struct {
		Name string `bson:"name"`
	}{Name: "x"}))

	assert.EqualError(t, ValidateQuery(nil), "Query must be specified")
	assert.EqualError(t, ValidateQuery(bson.A{bson.M{"a": 1}}), "Query must be a valid mongodb query object")
	assert.EqualError(t, ValidateQuery(42), "Query must be a valid mongodb query object")
	for _, falsy := range []any{"", 0, int64(0), 0.0, math.NaN(), false} {
		assert.EqualError(t, ValidateQuery(falsy), "Query must be specified", "%#v", falsy)
	}
	assert.EqualError(t, ValidateQuery("a"), "Query must be a valid mongodb query object")
	assert.EqualError(t, ValidateQuery(primitive.NewObjectID()), "Query must be a valid mongodb query object")
}

func TestValidateDocuments(t *testing.T) {
	assert.NoError(t, ValidateDocument(bson.M{"name": "x"}))
	assert.EqualError(t, ValidateDocument(nil), "Document must be specified")
	assert.EqualError(t, ValidateDocument([]bson.M{{}}), "Document must be a valid mongodb document")

	assert.NoError(t, ValidateDocuments([]any{bson.M{"a": 1}}))
	assert.EqualError(t, ValidateDocuments(nil), "Documents must be specified")
	assert.EqualError(t, ValidateDocuments(""), "Documents must be specified")
	assert.NoError(t, ValidateDocuments(bson.A{}))
	assert.EqualError(t, ValidateDocuments(bson.M{"a": 1}), "Documents must be an array of mongodb documents")
}

func TestValidateFilterAndUpdate(t *testing.T) {
	assert.NoError(t, ValidateFilter(bson.M{}))
	assert.EqualError(t, ValidateFilter(nil), "Filter must be specified")
	assert.EqualError(t, ValidateFilter(bson.A{}), "Filter must be a valid mongodb filter object")

	assert.NoError(t, ValidateUpdate(bson.M{"$set": bson.M{"a": 1}}))
	assert.EqualError(t, ValidateUpdate(nil), "Update must be specified")
	assert.EqualError(t, ValidateUpdate("set"), "Update must be a valid mongodb update document")
}

func TestValidateCollectionName(t *testing.T) {
	assert.NoError(t, ValidateCollectionName("users"))
	err := ValidateCollectionName("")
	assert.ErrorIs(t, err, ErrValidation)
}
