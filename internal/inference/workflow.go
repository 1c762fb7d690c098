package inference

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/inferbatch/inferbatch/internal/config"
	"github.com/inferbatch/inferbatch/internal/core"
)

const workflowUser = "inferbatch"

// WorkflowClient posts records to an external workflow endpoint with bearer
// authentication. Transport-level retries (connection resets, 5xx) are the
// HTTP client's job; rate-limit retries belong to the engine in front of it.
type WorkflowClient struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type workflowRequest struct {
	Inputs       core.Record `json:"inputs"`
	ResponseMode string      `json:"response_mode"`
	User         string      `json:"user"`
}

type workflowResponse struct {
	Data struct {
		Outputs     map[string]any `json:"outputs"`
		TotalTokens float64        `json:"total_tokens"`
	} `json:"data"`
}

// NewWorkflowClient builds a workflow client from the workflow variant
// configuration.
func NewWorkflowClient(cfg config.WorkflowConfig, logger *zap.Logger) *WorkflowClient {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = retryLogger{log: logger}

	return &WorkflowClient{
		URL:        strings.TrimSpace(cfg.URL),
		APIKey:     strings.TrimSpace(cfg.APIKey),
		HTTPClient: retryClient.StandardClient(),
		Logger:     logger,
	}
}

// Call posts one record as workflow inputs and extracts the outputs. Every
// failure, including a malformed response shape, is captured into the
// annotated record; the batch never sees a Go error from this client.
func (c *WorkflowClient) Call(ctx context.Context, rec core.Record) (core.AnnotatedRecord, error) {
	id := rec.ID()
	if id == "" {
		id = contentID(rec)
	}

	payload, err := json.Marshal(workflowRequest{
		Inputs:       rec,
		ResponseMode: "blocking",
		User:         workflowUser,
	})
	if err != nil {
		return c.annotateError(rec, err, id), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return c.annotateError(rec, fmt.Errorf("build workflow request: %w", err), id), nil
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return c.annotateError(rec, fmt.Errorf("workflow request failed: %w", err), id), nil
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.annotateError(rec, fmt.Errorf("read workflow response: %w", err), id), nil
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err := fmt.Errorf("workflow endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return c.annotateError(rec, err, id), nil
	}

	var parsed workflowResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return c.annotateError(rec, fmt.Errorf("decode workflow response: %w", err), id), nil
	}
	if parsed.Data.Outputs == nil {
		return c.annotateError(rec, fmt.Errorf("workflow response missing data.outputs"), id), nil
	}

	annotated := core.Annotate(rec, parsed.Data.Outputs, id)
	annotated[core.FieldTotalTokens] = int(parsed.Data.TotalTokens)
	return annotated, nil
}

func (c *WorkflowClient) annotateError(rec core.Record, err error, id string) core.AnnotatedRecord {
	if c.Logger != nil {
		c.Logger.Warn("workflow invocation failed", zap.String("record_id", id), zap.Error(err))
	}
	annotated := core.AnnotateError(rec, err, id)
	annotated[core.FieldTotalTokens] = 0
	return annotated
}

// contentID derives a stable identifier from the record content: the hex
// SHA-256 of its JSON serialization. Map keys marshal in sorted order, so the
// digest is deterministic for identical records.
func contentID(rec core.Record) string {
	data, err := json.Marshal(rec)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", rec))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// retryLogger adapts the retryable HTTP client's leveled logger to zap.
// Retry chatter stays at debug; only genuine transport trouble surfaces.
type retryLogger struct {
	log *zap.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	if l.log != nil {
		l.log.Sugar().Errorw(msg, keysAndValues...)
	}
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	if l.log != nil {
		l.log.Sugar().Warnw(msg, keysAndValues...)
	}
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.log != nil {
		l.log.Sugar().Debugw(msg, keysAndValues...)
	}
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	if l.log != nil {
		l.log.Sugar().Debugw(msg, keysAndValues...)
	}
}
