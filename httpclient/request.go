package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Request describes one outbound call.
type Request struct {
	// Method is the HTTP method. Empty means GET.
	Method string
	// Path is appended verbatim to the client's BaseURL.
	Path string
	// Query is encoded in order after Path.
	Query Query
	// Headers are request-specific headers. They override the defaults,
	// matching keys case-insensitively.
	Headers map[string]string
	// Body is sent as JSON. []byte, json.RawMessage and string values are
	// sent as-is, io.Reader values are streamed, anything else is marshaled.
	Body any
	// Auth overrides the client-level auth for this request.
	Auth *AuthConfig
}

// RequestOption configures a single request.
type RequestOption func(*Request)

// NewRequest builds a GET request for path and applies opts.
func NewRequest(path string, opts ...RequestOption) Request {
	req := Request{Method: http.MethodGet, Path: path}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// WithMethod sets the HTTP method.
func WithMethod(method string) RequestOption {
	return func(r *Request) {
		r.Method = method
	}
}

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithHeaders adds every header in h to the request.
func WithHeaders(h map[string]string) RequestOption {
	return func(r *Request) {
		for k, v := range h {
			WithHeader(k, v)(r)
		}
	}
}

// WithBody sets the request body.
func WithBody(body any) RequestOption {
	return func(r *Request) {
		r.Body = body
	}
}

// WithQuery appends query parameters.
func WithQuery(q Query) RequestOption {
	return func(r *Request) {
		r.Query = append(r.Query, q...)
	}
}

// WithRequestAuth overrides authentication for the request.
func WithRequestAuth(auth *AuthConfig) RequestOption {
	return func(r *Request) {
		r.Auth = auth
	}
}

// Response is a successful (2xx) result.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body into out. An empty body leaves out untouched.
func (r *Response) JSON(out any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("httpclient: decode response: %w", err)
	}
	return nil
}

// Raw returns the body as a json.RawMessage, or JSON null when it is empty.
func (r *Response) Raw() (json.RawMessage, error) {
	if len(r.Body) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(r.Body) {
		return nil, fmt.Errorf("httpclient: decode response: body is not valid JSON")
	}
	return json.RawMessage(r.Body), nil
}
