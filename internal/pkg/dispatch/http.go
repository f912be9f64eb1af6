package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/consts"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/log_messages"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/logger"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPTransport posts requests to a task server at {baseURL}/tasks/{operation}.
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// NewHTTPTransportWithClient is used by tests to inject an httptest client.
func NewHTTPTransportWithClient(baseURL string, client *http.Client) *HTTPTransport {
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

func (t *HTTPTransport) endpoint(op models.Operation) string {
	return t.baseURL + consts.TaskRoutePrefix + "/" + op.String()
}

func (t *HTTPTransport) Send(ctx context.Context, op models.Operation, req *models.TaskRequest) (models.Payload, error) {
	url := t.endpoint(op)

	body, err := json.Marshal(req)
	if err != nil {
		return models.Payload{}, fmt.Errorf(log_messages.FailedToEncodeTaskRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return models.Payload{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", consts.ContentType)
	if traceID := logger.GetTraceID(ctx); traceID != "" {
		httpReq.Header.Set(consts.TraceIDHeader, traceID)
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		logger.CtxError(ctx, "failed to send task request", err, slog.String("url", url))
		return models.Payload{}, fmt.Errorf("failed to send task request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.CtxError(ctx, "failed to close task response body", cerr)
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Payload{}, fmt.Errorf("read response body: %w", err)
	}

	return processResponseBody(op, resp.StatusCode, bodyBytes)
}

func processResponseBody(op models.Operation, statusCode int, bodyBytes []byte) (models.Payload, error) {
	var reply models.TaskResponse
	decodeErr := json.Unmarshal(bodyBytes, &reply)

	if statusCode == http.StatusOK {
		if decodeErr != nil {
			return models.Payload{}, fmt.Errorf(log_messages.FailedToDecodeTaskReply, decodeErr)
		}
		return reply.Result, nil
	}

	if decodeErr == nil && reply.Error != "" {
		return models.Payload{}, &TaskError{Operation: op, Message: reply.Error}
	}
	return models.Payload{}, fmt.Errorf(log_messages.UnexpectedTaskHTTPStatus, statusCode)
}
