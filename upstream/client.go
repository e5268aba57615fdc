package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// DefaultBaseURL is the production API base address.
const DefaultBaseURL = "https://app.asana.com/api/1.0"

// ClientConfig configures the upstream client.
type ClientConfig struct {
	// APIKey is the static credential, sent as the basic-auth username with
	// an empty password.
	APIKey string

	// BaseURL overrides the API base address. Default: DefaultBaseURL.
	BaseURL string

	// HTTPClient is the HTTP client to use for requests.
	// If nil, a default client with 30s timeout is used.
	HTTPClient *http.Client

	// Tracer records a span per request when set.
	Tracer trace.Tracer
}

// Client issues authenticated GET requests against the upstream API and
// unwraps the {"data": ...} envelope.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: Get honors cancellation/deadlines via the request context.
// - Errors: non-200 statuses are returned as *StatusError; nothing is retried here.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	tracer  trace.Tracer
}

// envelope is the upstream response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// NewClient creates a new upstream client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer("noop")
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  httpClient,
		tracer:  tracer,
	}, nil
}

// Get fetches path and returns the raw bytes of the envelope's data field.
// Path must start with "/" and is appended to the base address verbatim.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "upstream.get",
		trace.WithAttributes(attribute.String("upstream.path", path)),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	data, status, err := c.get(ctx, path)
	span.SetAttributes(attribute.Int("upstream.status", status))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return data, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("upstream: build request for %s: %w", path, err)
	}

	// Single static credential: key as username, empty password.
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("upstream: GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, &StatusError{Code: resp.StatusCode, Path: path}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("upstream: read %s: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("upstream: decode %s: %w", path, err)
	}
	if len(env.Data) == 0 {
		return nil, resp.StatusCode, fmt.Errorf("%w: %s", ErrMissingData, path)
	}

	return env.Data, resp.StatusCode, nil
}
