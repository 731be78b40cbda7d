package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/wavechat/errors"
	"github.com/kbukum/wavechat/logger"
	"github.com/kbukum/wavechat/observability"
)

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for request logs.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics records every request on m.
func WithMetrics(m *observability.RequestMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client sends requests to a single backend. Requests are never retried.
type Client struct {
	httpClient *http.Client
	config     Config
	log        *logger.Logger
	metrics    *observability.RequestMetrics
}

// New creates a new HTTP client with the given configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		log:    logger.WithComponent(cfg.Name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Do executes a request. The response is returned together with a
// RequestFailed error for non-2xx statuses; transport failures return a
// nil response and RequestFailed with status 0. Request logs carry the
// request id and any session id found in ctx.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	requestID := uuid.NewString()
	ctx = logger.ContextWithRequestID(ctx, requestID)
	log := c.log.WithContext(ctx)

	start := time.Now()
	resp, err := c.execute(ctx, req, requestID)
	elapsed := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.metrics.Record(ctx, req.Path, status, elapsed, err != nil)

	fields := logger.Fields(
		logger.FieldEndpoint, req.Path,
		logger.FieldStatus, status,
		logger.FieldDuration, elapsed.Milliseconds(),
	)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		log.Debug("request failed", fields)
		return resp, err
	}
	log.Debug("request completed", fields)
	return resp, nil
}

func (c *Client) execute(ctx context.Context, req Request, requestID string) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req, requestID)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.RequestFailed(0, err.Error()).WithCause(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.RequestFailed(resp.StatusCode, fmt.Sprintf("read response body: %v", err)).WithCause(err)
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
		RequestID:  requestID,
	}

	if classErr := ClassifyResponse(result); classErr != nil {
		return result, classErr
	}
	return result, nil
}

// buildRequest constructs an *http.Request from the client config and request.
func (c *Client) buildRequest(ctx context.Context, req Request, requestID string) (*http.Request, error) {
	url := req.Path
	if c.config.BaseURL != "" && !strings.HasPrefix(req.Path, "http://") && !strings.HasPrefix(req.Path, "https://") {
		url = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, errors.InvalidInput("body", fmt.Sprintf("encode body: %v", err)).WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, errors.InvalidInput("url", fmt.Sprintf("create request: %v", err)).WithCause(err)
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set(HeaderRequestID, requestID)

	return httpReq, nil
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case *MultipartBody:
		return v.encode()
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
