package apitest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/piholedash/component"
	"github.com/kbukum/piholedash/logger"
	"github.com/kbukum/piholedash/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// RecordedRequest is one request received by the backend.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// URI returns the path and raw query as sent.
func (r RecordedRequest) URI() string {
	if r.RawQuery == "" {
		return r.Path
	}
	return r.Path + "?" + r.RawQuery
}

type failure struct {
	status int
	body   string
}

// Backend is the fake dashboard backend. It implements testutil.TestComponent.
type Backend struct {
	mu       sync.Mutex
	initial  Fixtures
	data     Fixtures
	requests []RecordedRequest
	failures []failure
	nextID   int64
	clock    func() time.Time
	newID    func() string
	log      *logger.Logger

	engine *gin.Engine
	ts     *httptest.Server
}

var _ component.Component = (*Backend)(nil)
var _ testutil.TestComponent = (*Backend)(nil)

// Option customizes a Backend.
type Option func(*Backend)

// WithFixtures replaces the default data set.
func WithFixtures(f Fixtures) Option {
	return func(b *Backend) {
		b.initial = f.clone()
	}
}

// WithClock sets the wall clock used for timed blocks.
func WithClock(clock func() time.Time) Option {
	return func(b *Backend) {
		b.clock = clock
	}
}

// WithIDGenerator sets the generator for timed block ids.
func WithIDGenerator(fn func() string) Option {
	return func(b *Backend) {
		b.newID = fn
	}
}

// WithLogger logs every request at debug level.
func WithLogger(l *logger.Logger) Option {
	return func(b *Backend) {
		b.log = l
	}
}

// New creates a stopped backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		initial: DefaultFixtures(),
		clock:   time.Now,
		newID:   newUUID,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.resetLocked()
	b.engine = b.routes()
	return b
}

// NewServer creates and starts a backend that is stopped when t ends.
func NewServer(t testing.TB, opts ...Option) *Backend {
	t.Helper()
	b := New(opts...)
	testutil.T(t).Setup(b)
	return b
}

// URL returns the base URL of the running backend, or "" when stopped.
func (b *Backend) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ts == nil {
		return ""
	}
	return b.ts.URL
}

// Handler returns the gin engine for in-process use.
func (b *Backend) Handler() http.Handler {
	return b.engine
}

// FailNext makes the next call answer with status and body instead of being
// served. Calls queue in order.
func (b *Backend) FailNext(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, failure{status: status, body: body})
}

// Requests returns every request received so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent request.
func (b *Backend) LastRequest() (RecordedRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return RecordedRequest{}, false
	}
	return b.requests[len(b.requests)-1], true
}

// RequestCount returns the number of requests received.
func (b *Backend) RequestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// Data returns a copy of the current data set.
func (b *Backend) Data() Fixtures {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data.clone()
}

// --- component.Component ---

// Name implements component.Component.
func (b *Backend) Name() string { return "apitest-backend" }

// Start implements component.Component.
func (b *Backend) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ts != nil {
		return fmt.Errorf("component already started")
	}
	b.ts = httptest.NewServer(b.engine)
	return nil
}

// Stop implements component.Component.
func (b *Backend) Stop(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ts == nil {
		return nil
	}
	b.ts.Close()
	b.ts = nil
	return nil
}

// Health implements component.Component.
func (b *Backend) Health(_ context.Context) component.Health {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ts == nil {
		return component.Health{Name: b.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: b.Name(), Status: component.StatusHealthy}
}

// --- testutil.TestComponent ---

type snapshot struct {
	data     Fixtures
	requests []RecordedRequest
	nextID   int64
}

// Reset restores the initial data and clears recorded requests and queued failures.
func (b *Backend) Reset(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
	return nil
}

// Snapshot captures the data set and the request log.
func (b *Backend) Snapshot(_ context.Context) (interface{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return snapshot{
		data:     b.data.clone(),
		requests: append([]RecordedRequest(nil), b.requests...),
		nextID:   b.nextID,
	}, nil
}

// Restore returns to a state captured by Snapshot.
func (b *Backend) Restore(_ context.Context, snap interface{}) error {
	s, ok := snap.(snapshot)
	if !ok {
		return fmt.Errorf("apitest: unexpected snapshot type %T", snap)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = s.data.clone()
	b.requests = append([]RecordedRequest(nil), s.requests...)
	b.nextID = s.nextID
	b.failures = nil
	return nil
}

func (b *Backend) resetLocked() {
	b.data = b.initial.clone()
	b.requests = nil
	b.failures = nil
	b.nextID = 1
	for _, d := range b.data.Domains {
		if d.ID >= b.nextID {
			b.nextID = d.ID + 1
		}
	}
}

// record stores the request and serves any queued failure.
func (b *Backend) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	b.mu.Lock()
	b.requests = append(b.requests, RecordedRequest{
		Method:   c.Request.Method,
		Path:     c.Request.URL.Path,
		RawQuery: c.Request.URL.RawQuery,
		Header:   c.Request.Header.Clone(),
		Body:     body,
	})
	var fail *failure
	if len(b.failures) > 0 {
		fail = &b.failures[0]
		b.failures = b.failures[1:]
	}
	b.mu.Unlock()

	if fail != nil {
		c.Data(fail.status, "text/plain; charset=utf-8", []byte(fail.body))
		c.Abort()
		return
	}
	c.Next()
}
