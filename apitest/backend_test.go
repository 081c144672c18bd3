package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/piholedash/api"
	"github.com/kbukum/piholedash/component"
	"github.com/kbukum/piholedash/testutil"
)

func do(t *testing.T, b *Backend, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, b.URL()+path, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return out
}

func TestBackendLifecycle(t *testing.T) {
	b := New()
	ctx := context.Background()

	if h := b.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if b.URL() != "" {
		t.Error("expected empty URL before start")
	}
	if err := b.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := b.Start(ctx); err == nil {
		t.Error("expected error on second start")
	}
	if h := b.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}
	if err := b.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := b.Stop(ctx); err != nil {
		t.Errorf("second stop should be a no-op, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	b := NewServer(t)

	status, body := do(t, b, http.MethodGet, "/api/stats/summary?hours=24", "")
	if status != http.StatusOK {
		t.Fatalf("status %d: %s", status, body)
	}
	got := decode[api.Summary](t, body)
	want := api.Summary{TotalQueries: 9, BlockedQueries: 4, UniqueDomains: 5, UniqueClients: 3, BlockedPercentage: 44.4}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestQueryRangeValidation(t *testing.T) {
	b := NewServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/stats/summary?hours=0", http.StatusUnprocessableEntity},
		{"/api/stats/summary?hours=721", http.StatusUnprocessableEntity},
		{"/api/stats/top-domains?limit=101", http.StatusUnprocessableEntity},
		{"/api/stats/hourly-pattern?days=31", http.StatusUnprocessableEntity},
		{"/api/devices/aa:bb:cc:dd:ee:01/activity?hours=169", http.StatusUnprocessableEntity},
		{"/api/logs?per_page=201", http.StatusUnprocessableEntity},
		{"/api/logs/search", http.StatusUnprocessableEntity},
		{"/api/stats/summary?hours=abc", http.StatusUnprocessableEntity},
		{"/api/stats/summary?hours=720", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := do(t, b, http.MethodGet, tt.path, "")
			if status != tt.want {
				t.Errorf("status %d, want %d (%s)", status, tt.want, body)
			}
			if tt.want != http.StatusOK && !bytes.Contains(body, []byte(`"detail"`)) {
				t.Errorf("expected detail body, got %s", body)
			}
		})
	}
}

func TestTopBlocked(t *testing.T) {
	b := NewServer(t)

	_, body := do(t, b, http.MethodGet, "/api/stats/top-blocked", "")
	got := decode[[]api.DomainCount](t, body)
	want := []api.DomainCount{{Domain: "ads.doubleclick.net", Count: 3}, {Domain: "tracker.example.net", Count: 1}}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestOverTimeBuckets(t *testing.T) {
	b := NewServer(t)

	_, body := do(t, b, http.MethodGet, "/api/stats/over-time?hours=1", "")
	got := decode[[]api.TimeBucket](t, body)
	if len(got) == 0 {
		t.Fatal("expected buckets")
	}
	for i, bucket := range got {
		if bucket.Bucket%600 != 0 {
			t.Errorf("bucket %d not aligned: %d", i, bucket.Bucket)
		}
		if i > 0 && got[i-1].Bucket >= bucket.Bucket {
			t.Errorf("buckets not ascending at %d", i)
		}
	}
}

func TestDevices(t *testing.T) {
	b := NewServer(t)

	_, body := do(t, b, http.MethodGet, "/api/devices", "")
	devices := decode[[]api.Device](t, body)
	if len(devices) != 4 {
		t.Fatalf("expected 4 devices, got %d", len(devices))
	}
	if devices[0].MAC != "aa:bb:cc:dd:ee:01" || devices[0].Nickname == nil || *devices[0].Nickname != "Work laptop" {
		t.Errorf("expected nickname merged into most recent device, got %+v", devices[0])
	}
	if devices[1].Nickname != nil {
		t.Errorf("expected nil nickname, got %q", *devices[1].Nickname)
	}

	status, body := do(t, b, http.MethodPatch, "/api/devices/aa:bb:cc:dd:ee:02", `{"nickname":"Phone"}`)
	if status != http.StatusOK {
		t.Fatalf("update: %d %s", status, body)
	}
	upd := decode[api.DeviceUpdate](t, body)
	if upd.MAC != "aa:bb:cc:dd:ee:02" || upd.Nickname != "Phone" || upd.Icon != nil {
		t.Errorf("unexpected update response %+v", upd)
	}
	if n := b.Data().Nicknames["aa:bb:cc:dd:ee:02"]; n.Nickname != "Phone" {
		t.Errorf("nickname not stored: %+v", n)
	}

	status, _ = do(t, b, http.MethodPatch, "/api/devices/aa:bb:cc:dd:ee:02", `{}`)
	if status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for missing nickname, got %d", status)
	}
}

func TestDeviceStats(t *testing.T) {
	b := NewServer(t)

	_, body := do(t, b, http.MethodGet, "/api/devices/aa:bb:cc:dd:ee:01/stats", "")
	got := decode[api.DeviceStats](t, body)
	want := api.DeviceStats{TotalQueries: 4, BlockedQueries: 1, UniqueDomains: 3, BlockedPercentage: 25}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	_, body = do(t, b, http.MethodGet, "/api/devices/aa:bb:cc:dd:ee:04/stats", "")
	if got := decode[api.DeviceStats](t, body); got.Error != "Device not found" || got.TotalQueries != 0 {
		t.Errorf("expected not found body, got %+v", got)
	}

	for _, path := range []string{"activity", "top-domains", "top-blocked"} {
		status, body := do(t, b, http.MethodGet, "/api/devices/ff:ff:ff:ff:ff:ff/"+path, "")
		if status != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
			t.Errorf("%s: expected 200 [], got %d %s", path, status, body)
		}
	}
}

func TestDomains(t *testing.T) {
	b := NewServer(t)

	_, body := do(t, b, http.MethodGet, "/api/domains", "")
	all := decode[[]api.DomainEntry](t, body)
	if len(all) != 4 || all[0].Type != api.DomainTypeCodeWhitelist {
		t.Fatalf("expected entries ordered by type, got %+v", all)
	}

	_, body = do(t, b, http.MethodGet, "/api/domains?type=blacklist", "")
	if got := decode[[]api.DomainEntry](t, body); len(got) != 1 || got[0].Domain != "ads.doubleclick.net" {
		t.Errorf("unexpected blacklist %+v", got)
	}

	_, body = do(t, b, http.MethodGet, "/api/domains?type=bogus", "")
	if got := decode[[]api.DomainEntry](t, body); len(got) != 4 {
		t.Errorf("unknown type should list everything, got %d", len(got))
	}

	status, body := do(t, b, http.MethodPost, "/api/domains", `{"domain":"example.org","type":"wildcard"}`)
	if status != http.StatusOK {
		t.Fatalf("add wildcard: %d %s", status, body)
	}
	if resp := decode[api.StatusResponse](t, body); resp.Status != "ok" || resp.Output == "" {
		t.Errorf("unexpected add response %+v", resp)
	}
	found := false
	for _, d := range b.Data().Domains {
		if d.Domain == `(\.|^)example\.org$` && d.Type == api.DomainTypeCodeRegexBlack {
			found = true
		}
	}
	if !found {
		t.Error("wildcard should be stored as a regex blacklist entry")
	}

	status, body = do(t, b, http.MethodPost, "/api/domains", `{"domain":"x.com","type":"regex_white"}`)
	if status != http.StatusBadRequest || !strings.Contains(string(body), "Unknown domain type: regex_white") {
		t.Errorf("expected 400 for regex_white, got %d %s", status, body)
	}
}

func TestDeleteAndToggleDomain(t *testing.T) {
	b := NewServer(t)

	tests := []struct {
		name   string
		path   string
		status int
		detail string
	}{
		{"missing", "/api/domains/999", http.StatusNotFound, "Domain not found"},
		{"regex white", "/api/domains/4", http.StatusBadRequest, "Unsupported domain type code: 2"},
		{"not a number", "/api/domains/abc", http.StatusUnprocessableEntity, ""},
		{"blacklist", "/api/domains/1", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, b, http.MethodDelete, tt.path, "")
			if status != tt.status {
				t.Fatalf("status %d, want %d (%s)", status, tt.status, body)
			}
			if tt.detail != "" {
				if got := decode[map[string]string](t, body)["detail"]; got != tt.detail {
					t.Errorf("detail %q, want %q", got, tt.detail)
				}
			}
		})
	}

	status, body := do(t, b, http.MethodPatch, "/api/domains/2", `{"enabled":false}`)
	if status != http.StatusOK {
		t.Fatalf("toggle: %d %s", status, body)
	}
	resp := decode[api.StatusResponse](t, body)
	if resp.Enabled == nil || *resp.Enabled {
		t.Errorf("expected enabled=false echoed, got %+v", resp)
	}
	for _, d := range b.Data().Domains {
		if d.ID == 2 && d.IsEnabled() {
			t.Error("domain 2 should be disabled")
		}
	}
}

func TestTimedBlocks(t *testing.T) {
	var now atomic.Int64
	now.Store(FixtureNow)
	ids := []string{"block-1", "block-2"}
	b := NewServer(t,
		WithClock(func() time.Time { return time.Unix(now.Load(), 0) }),
		WithIDGenerator(func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}),
	)

	status, body := do(t, b, http.MethodPost, "/api/timed-blocks", `{"domains":["reddit.com","x.com"],"duration_minutes":5}`)
	if status != http.StatusOK {
		t.Fatalf("create: %d %s", status, body)
	}
	created := decode[[]api.TimedBlock](t, body)
	if len(created) != 2 || created[0].ID != "block-1" || created[0].ExpiresAt != FixtureNow+300 {
		t.Fatalf("unexpected blocks %+v", created)
	}

	now.Add(120)
	_, body = do(t, b, http.MethodGet, "/api/timed-blocks", "")
	active := decode[[]api.TimedBlock](t, body)
	if len(active) != 2 || active[0].RemainingSeconds != 180 {
		t.Fatalf("unexpected active blocks %+v", active)
	}

	status, _ = do(t, b, http.MethodDelete, "/api/timed-blocks/block-1", "")
	if status != http.StatusOK {
		t.Errorf("cancel: %d", status)
	}
	status, body = do(t, b, http.MethodDelete, "/api/timed-blocks/block-1", "")
	if status != http.StatusNotFound || !strings.Contains(string(body), "Timed block not found or already expired") {
		t.Errorf("expected 404 on second cancel, got %d %s", status, body)
	}

	now.Add(600)
	_, body = do(t, b, http.MethodGet, "/api/timed-blocks", "")
	if got := decode[[]api.TimedBlock](t, body); len(got) != 0 {
		t.Errorf("expected expired blocks to be lifted, got %+v", got)
	}
	for _, d := range b.Data().Domains {
		if strings.Contains(d.Domain, "reddit") || strings.Contains(d.Domain, `x\.com`) {
			t.Errorf("wildcard entry %q should have been removed", d.Domain)
		}
	}
}

func TestLogs(t *testing.T) {
	b := NewServer(t)

	_, body := do(t, b, http.MethodGet, "/api/logs?per_page=2&page=2&status=blocked", "")
	page := decode[api.QueryPage](t, body)
	if page.Total != 4 || page.Pages != 2 || page.Page != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Items[0].Timestamp < page.Items[1].Timestamp {
		t.Error("expected newest first")
	}

	_, body = do(t, b, http.MethodGet, "/api/logs?from=0&domain=example", "")
	page = decode[api.QueryPage](t, body)
	if page.Total != 7 {
		t.Errorf("expected 7 matches across all time, got %d", page.Total)
	}

	_, body = do(t, b, http.MethodGet, "/api/logs/search?q=doubleclick&hours=168", "")
	if got := decode[[]api.QueryLog](t, body); len(got) != 3 {
		t.Errorf("expected 3 search hits, got %d", len(got))
	}
}

func TestFailNextAndRecording(t *testing.T) {
	b := NewServer(t)
	b.FailNext(http.StatusServiceUnavailable, "down")

	status, body := do(t, b, http.MethodGet, "/api/devices", "")
	if status != http.StatusServiceUnavailable || string(body) != "down" {
		t.Errorf("expected injected failure, got %d %s", status, body)
	}
	status, _ = do(t, b, http.MethodGet, "/api/devices", "")
	if status != http.StatusOK {
		t.Errorf("failure should be consumed, got %d", status)
	}

	do(t, b, http.MethodPatch, "/api/domains/1", `{"enabled":true}`)
	last, ok := b.LastRequest()
	if !ok || last.Method != http.MethodPatch || string(last.Body) != `{"enabled":true}` {
		t.Errorf("unexpected last request %+v", last)
	}
	if b.RequestCount() != 3 {
		t.Errorf("expected 3 requests, got %d", b.RequestCount())
	}
}

func TestResetSnapshotRestore(t *testing.T) {
	b := NewServer(t)
	h := testutil.T(t)

	snap := h.Snapshot(b)
	do(t, b, http.MethodDelete, "/api/domains/1", "")
	if len(b.Data().Domains) != 3 {
		t.Fatalf("expected delete to apply")
	}

	h.Restore(b, snap)
	if len(b.Data().Domains) != 4 || b.RequestCount() != 0 {
		t.Errorf("restore did not roll back: %d domains, %d requests", len(b.Data().Domains), b.RequestCount())
	}

	do(t, b, http.MethodPatch, "/api/devices/aa:bb:cc:dd:ee:03", `{"nickname":"TV"}`)
	h.Reset(b)
	if _, ok := b.Data().Nicknames["aa:bb:cc:dd:ee:03"]; ok {
		t.Error("reset should drop new nicknames")
	}
	if err := b.Restore(context.Background(), "bogus"); err == nil {
		t.Error("expected error for foreign snapshot")
	}
}
