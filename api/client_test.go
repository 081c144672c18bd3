package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/piholedash/api"
	"github.com/kbukum/piholedash/apitest"
	apperrors "github.com/kbukum/piholedash/errors"
	"github.com/kbukum/piholedash/httpclient"
	"github.com/kbukum/piholedash/logger"
)

func newClient(t *testing.T) (*api.Client, *apitest.Backend) {
	t.Helper()
	backend := apitest.NewServer(t)
	c, err := api.New(httpclient.Config{BaseURL: backend.URL()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, backend
}

func lastURI(t *testing.T, b *apitest.Backend) string {
	t.Helper()
	req, ok := b.LastRequest()
	if !ok {
		t.Fatal("backend received no request")
	}
	return req.URI()
}

func TestClient_RequestLines(t *testing.T) {
	c, backend := newClient(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		method string
		uri    string
	}{
		{"summary default", func() error { _, err := c.GetSummary(ctx, 0); return err }, http.MethodGet, "/api/stats/summary?hours=24"},
		{"top domains default", func() error { _, err := c.GetTopDomains(ctx, 0, 0); return err }, http.MethodGet, "/api/stats/top-domains?limit=10&hours=24"},
		{"domains untyped", func() error { _, err := c.GetDomains(ctx, ""); return err }, http.MethodGet, "/api/domains"},
		{"domains typed", func() error { _, err := c.GetDomains(ctx, "blocked"); return err }, http.MethodGet, "/api/domains?type=blocked"},
		{"toggle", func() error { _, err := c.ToggleDomain(ctx, 5, false); return err }, http.MethodPatch, "/api/domains/5"},
		{
			"logs filtering",
			func() error {
				_, err := c.GetLogs(ctx, api.Params{}.Set("q", "foo").Set("hours", "").Set("limit", 0))
				return err
			},
			http.MethodGet, "/api/logs?q=foo&limit=0",
		},
		{"device stats", func() error { _, err := c.GetDeviceStats(ctx, "aa:bb:cc:dd:ee:01", 0); return err }, http.MethodGet, "/api/devices/aa:bb:cc:dd:ee:01/stats?hours=24"},
		{"search", func() error { _, err := c.SearchLogs(ctx, "double click", 0); return err }, http.MethodGet, "/api/logs/search?q=double+click&hours=24"},
		{"search whitespace", func() error { _, err := c.SearchLogs(ctx, " ", 0); return err }, http.MethodGet, "/api/logs/search?q=+&hours=24"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := backend.RequestCount()
			if err := tt.call(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := backend.RequestCount() - before; got != 1 {
				t.Errorf("expected exactly one request, got %d", got)
			}
			last, _ := backend.LastRequest()
			if last.Method != tt.method {
				t.Errorf("method = %s, want %s", last.Method, tt.method)
			}
			if got := lastURI(t, backend); got != tt.uri {
				t.Errorf("uri = %q, want %q", got, tt.uri)
			}
		})
	}
}

func TestClient_ToggleBodyIsExact(t *testing.T) {
	c, backend := newClient(t)

	resp, err := c.ToggleDomain(context.Background(), 2, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last, _ := backend.LastRequest()
	if string(last.Body) != `{"enabled":false}` {
		t.Errorf("body = %s", last.Body)
	}
	if resp.Status != "ok" || resp.Enabled == nil || *resp.Enabled {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestClient_ResolvesParsedBody(t *testing.T) {
	c, backend := newClient(t)
	ctx := context.Background()

	summary, err := c.GetSummary(ctx, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalQueries != 9 || summary.BlockedQueries != 4 || summary.BlockedPercentage != 44.4 {
		t.Errorf("unexpected summary %+v", summary)
	}

	raw, err := c.Request(ctx, "/api/stats/summary?hours=24")
	if err != nil {
		t.Fatalf("raw request: %v", err)
	}
	var decoded api.Summary
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded != *summary {
		t.Errorf("raw body %s does not match typed result", raw)
	}

	devices, err := c.GetDevices(ctx)
	if err != nil || len(devices) != len(backend.Data().Devices) {
		t.Fatalf("devices: %v, %d", err, len(devices))
	}
	presets, err := c.GetPresets(ctx)
	if err != nil || presets["social"].Name != "Social Media" {
		t.Errorf("presets: %v, %+v", err, presets["social"])
	}
}

func TestClient_StatusErrorMessage(t *testing.T) {
	c, backend := newClient(t)
	ctx := context.Background()

	backend.FailNext(http.StatusNotFound, "not found")
	_, err := c.GetDevices(ctx)
	if err == nil || err.Error() != "API error 404: not found" {
		t.Fatalf("err = %v", err)
	}
	if !httpclient.IsNotFound(err) || httpclient.IsTransport(err) {
		t.Errorf("expected classified 404, got %v", err)
	}

	_, err = c.DeleteDomain(ctx, 999)
	if err == nil || err.Error() != `API error 404: {"detail":"Domain not found"}` {
		t.Errorf("err = %v", err)
	}

	_, err = c.DeleteDomain(ctx, 4)
	if err == nil || err.Error() != `API error 400: {"detail":"Unsupported domain type code: 2"}` {
		t.Errorf("err = %v", err)
	}

	_, err = c.AddDomain(ctx, api.AddDomainRequest{Domain: "cdn.example.com", Type: api.DomainTypeRegexWhite})
	if err == nil || err.Error() != `API error 400: {"detail":"Unknown domain type: regex_white"}` {
		t.Errorf("err = %v", err)
	}

	_, err = c.CancelTimedBlock(ctx, "missing")
	if se, ok := httpclient.AsStatusError(err); !ok || se.StatusCode != http.StatusNotFound {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestClient_TransportErrorUnmodified(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := api.New(httpclient.Config{BaseURL: base})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = c.GetDevices(context.Background())
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		t.Fatalf("expected *url.Error, got %T %v", err, err)
	}
	if strings.HasPrefix(err.Error(), "API error") {
		t.Errorf("transport error should not be wrapped: %v", err)
	}
	if !httpclient.IsTransport(err) {
		t.Error("expected IsTransport")
	}
}

func TestClient_ValidationSendsNothing(t *testing.T) {
	c, backend := newClient(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		code apperrors.ErrorCode
	}{
		{"update device without mac", func() error {
			_, err := c.UpdateDevice(ctx, " ", api.UpdateDeviceRequest{Nickname: "x"})
			return err
		}, apperrors.ErrCodeMissingField},
		{"update device without nickname", func() error {
			_, err := c.UpdateDevice(ctx, "aa:bb:cc:dd:ee:01", api.UpdateDeviceRequest{})
			return err
		}, apperrors.ErrCodeInvalidInput},
		{"device stats without mac", func() error { _, err := c.GetDeviceStats(ctx, "", 0); return err }, apperrors.ErrCodeMissingField},
		{"device activity without mac", func() error { _, err := c.GetDeviceActivity(ctx, "", 0); return err }, apperrors.ErrCodeMissingField},
		{"device top domains without mac", func() error { _, err := c.GetDeviceTopDomains(ctx, "", 0); return err }, apperrors.ErrCodeMissingField},
		{"device top blocked without mac", func() error { _, err := c.GetDeviceTopBlocked(ctx, "", 0); return err }, apperrors.ErrCodeMissingField},
		{"add empty domain", func() error { _, err := c.AddDomain(ctx, api.AddDomainRequest{}); return err }, apperrors.ErrCodeInvalidInput},
		{"timed block without domains", func() error { _, err := c.CreateTimedBlock(ctx, api.TimedBlockRequest{}); return err }, apperrors.ErrCodeInvalidInput},
		{"cancel without id", func() error { _, err := c.CancelTimedBlock(ctx, ""); return err }, apperrors.ErrCodeMissingField},
		{"search without q", func() error { _, err := c.SearchLogs(ctx, "", 0); return err }, apperrors.ErrCodeMissingField},
		{"log page too large", func() error { _, err := c.QueryLogs(ctx, api.LogQuery{PerPage: 500}); return err }, apperrors.ErrCodeInvalidInput},
		{"device detail without mac", func() error { _, err := c.DeviceDetail(ctx, "", 0, 0); return err }, apperrors.ErrCodeMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !apperrors.HasCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
	if n := backend.RequestCount(); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestClient_HeaderMerge(t *testing.T) {
	c, backend := newClient(t)
	ctx := context.Background()

	if _, err := c.Request(ctx, "/api/devices", httpclient.WithHeader("content-type", "text/plain")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last, _ := backend.LastRequest()
	if got := last.Header.Values("Content-Type"); len(got) != 1 || got[0] != "text/plain" {
		t.Errorf("Content-Type = %v, want [text/plain]", got)
	}

	if _, err := c.Request(ctx, "/api/devices"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last, _ = backend.LastRequest()
	if got := last.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("default Content-Type = %q", got)
	}
	if last.Header.Get(httpclient.HeaderRequestID) == "" {
		t.Error("expected a request id")
	}
}

func TestClient_MutationsRoundTrip(t *testing.T) {
	c, backend := newClient(t)
	ctx := context.Background()

	added, err := c.AddDomain(ctx, api.AddDomainRequest{Domain: "Bücher.de", Type: api.DomainTypeBlacklist})
	if err != nil || added.Status != "ok" {
		t.Fatalf("add: %v %+v", err, added)
	}
	last, _ := backend.LastRequest()
	if !strings.Contains(string(last.Body), `"domain":"xn--bcher-kva.de"`) {
		t.Errorf("expected punycode in body, got %s", last.Body)
	}

	entries, err := c.GetDomains(ctx, api.DomainTypeBlacklist)
	if err != nil || len(entries) != 2 {
		t.Fatalf("blacklist: %v %d", err, len(entries))
	}

	upd, err := c.UpdateDevice(ctx, "aa:bb:cc:dd:ee:03", api.UpdateDeviceRequest{Nickname: "TV"})
	if err != nil || upd.Nickname != "TV" || upd.MAC != "aa:bb:cc:dd:ee:03" {
		t.Fatalf("update: %v %+v", err, upd)
	}

	blocks, err := c.CreateTimedBlock(ctx, api.TimedBlockRequest{Domains: []string{"reddit.com"}})
	if err != nil || len(blocks) != 1 {
		t.Fatalf("create block: %v %+v", err, blocks)
	}
	if got := blocks[0].ExpiresAt - blocks[0].CreatedAt; got != api.DefaultTimedBlockMinutes*60 {
		t.Errorf("block length = %d", got)
	}
	active, err := c.GetTimedBlocks(ctx)
	if err != nil || len(active) != 1 {
		t.Fatalf("active: %v %+v", err, active)
	}
	if _, err := c.CancelTimedBlock(ctx, blocks[0].ID); err != nil {
		t.Errorf("cancel: %v", err)
	}

	page, err := c.QueryLogs(ctx, api.LogQuery{Status: api.LogStatusBlocked, PerPage: 2})
	if err != nil || page.Total != 4 || len(page.Items) != 2 {
		t.Errorf("logs: %v %+v", err, page)
	}
	if got := lastURI(t, backend); got != "/api/logs?per_page=2&status=blocked" {
		t.Errorf("uri = %q", got)
	}
}

func TestClient_Logger(t *testing.T) {
	backend := apitest.NewServer(t)
	ctx := context.Background()
	logCfg := &logger.Config{Level: "debug", Format: "json"}

	var global bytes.Buffer
	prev := logger.GetGlobalLogger()
	logger.SetGlobalLogger(logger.NewWithWriter(logCfg, "global", &global))
	t.Cleanup(func() { logger.SetGlobalLogger(prev) })

	var transportLog bytes.Buffer
	transport, err := httpclient.New(httpclient.Config{BaseURL: backend.URL()},
		httpclient.WithLogger(logger.NewWithWriter(logCfg, "test", &transportLog)))
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	rename := api.UpdateDeviceRequest{Nickname: "Phone"}

	t.Run("defaults to transport logger", func(t *testing.T) {
		c := api.NewWithTransport(transport)
		if _, err := c.UpdateDevice(ctx, "ee:00:00:00:00:02", rename); err != nil {
			t.Fatalf("update: %v", err)
		}
		out := transportLog.String()
		if !strings.Contains(out, "device updated") || !strings.Contains(out, `"component":"api"`) {
			t.Errorf("expected api record in transport log, got %s", out)
		}
	})

	t.Run("option overrides", func(t *testing.T) {
		var own bytes.Buffer
		c := api.NewWithTransport(transport, api.WithLogger(logger.NewWithWriter(logCfg, "test", &own)))
		if _, err := c.UpdateDevice(ctx, "ee:00:00:00:00:02", rename); err != nil {
			t.Fatalf("update: %v", err)
		}
		if !strings.Contains(own.String(), "device updated") {
			t.Errorf("expected record in injected log, got %q", own.String())
		}
	})

	t.Run("nil logger is silent", func(t *testing.T) {
		c := api.NewWithTransport(transport, api.WithLogger(nil))
		if _, err := c.UpdateDevice(ctx, "ee:00:00:00:00:02", rename); err != nil {
			t.Fatalf("update: %v", err)
		}
	})

	if global.Len() != 0 {
		t.Errorf("global logger should be unused, got %s", global.String())
	}
}

func TestClient_ConcurrentCallsIndependent(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	devices := api.Async(ctx, c.GetDevices)
	presets := api.Async(ctx, c.GetPresets)

	gotPresets, err := presets.Await(ctx)
	if err != nil || len(gotPresets) != 4 {
		t.Fatalf("presets: %v %d", err, len(gotPresets))
	}
	gotDevices, err := devices.Await(ctx)
	if err != nil || len(gotDevices) != 4 {
		t.Fatalf("devices: %v %d", err, len(gotDevices))
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			top, err := c.GetTopDomains(ctx, i+1, 24)
			if err != nil {
				t.Errorf("call %d: %v", i, err)
				return
			}
			results[i] = len(top)
		}()
	}
	wg.Wait()
	for i, n := range results {
		if want := min(i+1, 5); n != want {
			t.Errorf("call %d got %d rows, want %d", i, n, want)
		}
	}
}

func TestFuture_AwaitContext(t *testing.T) {
	release := make(chan struct{})
	f := api.Async(context.Background(), func(context.Context) (int, error) {
		<-release
		return 42, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline, got %v", err)
	}

	close(release)
	<-f.Done()
	v, err := f.Await(context.Background())
	if err != nil || v != 42 {
		t.Errorf("got %d, %v", v, err)
	}
}

func TestClient_Dashboard(t *testing.T) {
	c, backend := newClient(t)
	ctx := context.Background()

	snap, err := c.Dashboard(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Summary.TotalQueries != 9 || len(snap.TopBlocked) != 2 || len(snap.OverTime) == 0 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if n := backend.RequestCount(); n != 4 {
		t.Errorf("expected 4 requests, got %d", n)
	}

	backend.FailNext(http.StatusInternalServerError, "boom")
	if _, err := c.Dashboard(ctx, 24, 10); err == nil || err.Error() != "API error 500: boom" {
		t.Errorf("err = %v", err)
	}
}

func TestClient_DeviceDetail(t *testing.T) {
	c, _ := newClient(t)

	snap, err := c.DeviceDetail(context.Background(), "aa:bb:cc:dd:ee:01", 24, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Stats.TotalQueries != 4 || len(snap.TopBlocked) != 1 || snap.TopBlocked[0].Domain != "ads.doubleclick.net" {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	snap, err = c.DeviceDetail(context.Background(), "aa:bb:cc:dd:ee:04", 24, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Stats.Error != "Device not found" || len(snap.Activity) != 0 {
		t.Errorf("unexpected snapshot for unknown device %+v", snap)
	}
}
