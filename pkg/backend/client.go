package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
	"github.com/pastoral-familiar/pastoral-api/pkg/logger"
	"github.com/pastoral-familiar/pastoral-api/pkg/middleware/requestid"
)

const (
	apiKeyHeader   = "X-Api-Key"
	maxBodyExcerpt = 512
)

// Options configures a JSON client for one remote collaborator.
type Options struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	ReadRetries int
	RetryWait   time.Duration
	Logger      *zap.Logger
}

// Client performs JSON requests against a remote REST collaborator.
// Reads are retried on transport errors and 5xx responses; writes are sent exactly once.
type Client struct {
	baseURL string
	apiKey  string
	reads   *retryablehttp.Client
	writes  *retryablehttp.Client
	logger  *zap.Logger
}

// RejectedError carries the status and body excerpt of a non-2xx response.
type RejectedError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// StatusOf returns the HTTP status carried by a rejected response, or 0 for any other error.
func StatusOf(err error) int {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Status
	}
	return 0
}

// New builds a client from options.
func New(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ReadRetries < 0 {
		opts.ReadRetries = 0
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 200 * time.Millisecond
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		reads:   newRetryable(opts, opts.ReadRetries),
		writes:  newRetryable(opts, 0),
		logger:  opts.Logger,
	}
}

func newRetryable(opts Options, retries int) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: opts.Timeout}
	rc.RetryMax = retries
	rc.RetryWaitMin = opts.RetryWait
	rc.RetryWaitMax = opts.RetryWait * 4
	rc.Logger = logger.NewLeveled(opts.Logger)
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON issues a retried GET and decodes the response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, dest interface{}) error {
	return c.do(ctx, c.reads, http.MethodGet, path, nil, dest)
}

// Lookup issues a retried POST for read-only endpoints that take a body (e.g. login lookup).
func (c *Client) Lookup(ctx context.Context, path string, body, dest interface{}) error {
	return c.do(ctx, c.reads, http.MethodPost, path, body, dest)
}

// PostJSON issues a single POST. Writes are never retried.
func (c *Client) PostJSON(ctx context.Context, path string, body, dest interface{}) error {
	return c.do(ctx, c.writes, http.MethodPost, path, body, dest)
}

func (c *Client) do(ctx context.Context, rc *retryablehttp.Client, method, path string, body, dest interface{}) error {
	var raw []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request body")
		}
		raw = encoded
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, bodyOrNil(raw))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	resp, err := rc.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrNetworkFailure.Code, appErrors.ErrNetworkFailure.Status, fmt.Sprintf("%s %s unreachable", method, path))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrNetworkFailure.Code, appErrors.ErrNetworkFailure.Status, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rejected := &RejectedError{Method: method, Path: path, Status: resp.StatusCode, Body: excerpt(payload)}
		c.logger.Warn("backend rejected request", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))
		return appErrors.Wrap(rejected, appErrors.ErrServerRejected.Code, appErrors.ErrServerRejected.Status, rejected.Error())
	}

	if dest == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrServerRejected.Code, appErrors.ErrServerRejected.Status, fmt.Sprintf("%s %s returned malformed JSON", method, path))
	}
	return nil
}

func bodyOrNil(raw []byte) interface{} {
	if raw == nil {
		return nil
	}
	return raw
}

func excerpt(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > maxBodyExcerpt {
		return trimmed[:maxBodyExcerpt]
	}
	return trimmed
}
