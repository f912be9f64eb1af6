package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHTTPTransport_Send(t *testing.T) {
	oid := primitive.NewObjectID()

	var gotPath, gotTrace, gotContentType string
	var gotBody models.TaskRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTrace = r.Header.Get("X-Trace-Id")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result":{"acknowledged":true,"insertedId":{"$oid":"` + oid.Hex() + `"}}}`))
	}))
	defer server.Close()

	transport := NewHTTPTransportWithClient(server.URL+"/", server.Client())

	ctx := logger.WithTraceID(context.Background(), "trace-http")
	req := &models.TaskRequest{
		URI:      "mongodb://localhost:27017",
		Options:  models.Options{Database: "db", Collection: "users"},
		Document: models.NewPayload(bson.M{"name": "ada"}),
	}

	payload, err := transport.Send(ctx, models.OperationInsertOne, req)
	require.NoError(t, err)

	assert.Equal(t, "/tasks/insertOne", gotPath)
	assert.Equal(t, "trace-http", gotTrace)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "users", gotBody.Options.Collection)
	assert.Equal(t, bson.D{{Key: "name", Value: "ada"}}, gotBody.Document.Value())

	var result models.InsertOneResult
	require.NoError(t, payload.Decode(&result))
	assert.True(t, result.Acknowledged)
	assert.Equal(t, oid, result.InsertedID)
}

func TestHTTPTransport_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantTask   bool
		wantErrMsg string
	}{
		{
			name:       "handler error is relayed",
			status:     http.StatusInternalServerError,
			body:       `{"error":"Collection mongo.users already exists"}`,
			wantTask:   true,
			wantErrMsg: "Collection mongo.users already exists",
		},
		{
			name:       "unknown operation",
			status:     http.StatusNotFound,
			body:       `{"error":"unknown task operation"}`,
			wantTask:   true,
			wantErrMsg: "unknown task operation",
		},
		{
			name:       "non json error body",
			status:     http.StatusBadGateway,
			body:       `<html>bad gateway</html>`,
			wantErrMsg: "unexpected task response status 502",
		},
		{
			name:       "malformed success body",
			status:     http.StatusOK,
			body:       `not json`,
			wantErrMsg: "failed to decode task reply",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			transport := NewHTTPTransportWithClient(server.URL, server.Client())
			_, err := transport.Send(context.Background(), models.OperationCreateCollection, &models.TaskRequest{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErrMsg)

			var taskErr *TaskError
			assert.Equal(t, tt.wantTask, errors.As(err, &taskErr))
		})
	}
}

func TestHTTPTransport_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	transport := NewHTTPTransport(url, 0)
	_, err := transport.Send(context.Background(), models.OperationFindOne, &models.TaskRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send task request")
}

func TestHTTPTransport_ThroughChannel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":[{"a":1},{"a":2}]}`))
	}))
	defer server.Close()

	ch := NewChannel(NewHTTPTransportWithClient(server.URL, server.Client()))
	defer ch.Close()

	ctx := context.Background()
	var docs []bson.M
	require.NoError(t, ch.Dispatch(ctx, models.OperationFindMany, &models.TaskRequest{}).Decode(ctx, &docs))
	require.Len(t, docs, 2)
	assert.EqualValues(t, 2, docs[1]["a"])
}
