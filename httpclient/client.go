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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/piholedash/logger"
	"github.com/kbukum/piholedash/observability"
)

// Client issues calls against one backend. It holds only immutable
// configuration and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	config     Config
	log        *logger.Logger
	metrics    *observability.ClientMetrics
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. TLS and Timeout from
// Config are not applied to it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for per-call debug lines.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithMetrics records client metrics on m.
func WithMetrics(m *observability.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Logger returns the logger set with WithLogger, or a no-op logger.
func (c *Client) Logger() *logger.Logger {
	return c.log
}

// New creates a new client with the given configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: cfg,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Nop()
	}

	if c.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
		c.httpClient = &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		}
	}

	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

// Request builds a request for path from opts and executes it.
func (c *Client) Request(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, NewRequest(path, opts...))
}

// Do executes exactly one HTTP call.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanClientRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(observability.AttrHTTPMethod, method),
			attribute.String(observability.AttrURLPath, req.Path),
		),
	)
	defer span.End()

	httpReq, err := c.buildRequest(ctx, method, req)
	if err != nil {
		observability.SetSpanError(span, err)
		return nil, err
	}
	requestID := httpReq.Header.Get(HeaderRequestID)
	if requestID != "" {
		span.SetAttributes(attribute.String(observability.AttrRequestID, requestID))
	}

	start := time.Now()
	c.metrics.RecordStart(ctx)
	resp, status, err := c.execute(httpReq)
	elapsed := time.Since(start)

	outcome := observability.OutcomeOK
	switch {
	case err == nil:
	case status > 0:
		outcome = observability.OutcomeHTTPError
	default:
		outcome = observability.OutcomeTransportError
	}
	c.metrics.RecordEnd(ctx, method, req.Path, status, outcome, elapsed)
	if status > 0 {
		span.SetAttributes(attribute.Int(observability.AttrHTTPStatusCode, status))
	}

	fields := logger.Fields(
		logger.FieldMethod, method,
		logger.FieldPath, req.Path,
		logger.FieldStatus, status,
		logger.FieldDuration, elapsed.Milliseconds(),
		logger.FieldRequestID, requestID,
	)
	if err != nil {
		observability.SetSpanError(span, err)
		fields[logger.FieldError] = err.Error()
		c.log.Debug("api call failed", fields)
		return nil, err
	}
	c.log.Debug("api call", fields)
	return resp, nil
}

// execute sends the request and returns the response, the HTTP status (0 on
// transport failure) and any error. Transport errors pass through untouched.
func (c *Client) execute(httpReq *http.Request) (*Response, int, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	headers := flattenHeaders(resp.Header)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       body,
			Headers:    headers,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       body,
	}, resp.StatusCode, nil
}

// buildRequest constructs the *http.Request. Header precedence, lowest first:
// Content-Type: application/json, config headers, request headers, auth.
func (c *Client) buildRequest(ctx context.Context, method string, req Request) (*http.Request, error) {
	target := req.Query.AppendTo(c.config.BaseURL + req.Path)

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: encode body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	auth := c.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)

	if !c.config.DisableRequestID && httpReq.Header.Get(HeaderRequestID) == "" {
		httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	return httpReq, nil
}

// encodeBody converts a body value into an io.Reader.
func encodeBody(body any) (io.Reader, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return v, nil
	case json.RawMessage:
		return bytes.NewReader(v), nil
	case []byte:
		return bytes.NewReader(v), nil
	case string:
		return strings.NewReader(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
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
