package routes

import (
	"testing"

	"github.com/kbukum/piholedash/errors"
)

func TestTable(t *testing.T) {
	all := All()
	if len(all) != 6 {
		t.Fatalf("expected 6 routes, got %d", len(all))
	}
	for _, r := range all {
		wantProps := r.Name == DeviceDetail
		if r.Props != wantProps {
			t.Errorf("%s: props = %v", r.Name, r.Props)
		}
	}
	all[0].Path = "/changed"
	if r, _ := Lookup(Dashboard); r.Path != "/" {
		t.Error("All must return a copy")
	}
	if got := (Route{Path: "/devices/:mac"}).Params(); len(got) != 1 || got[0] != "mac" {
		t.Errorf("Params() = %v", got)
	}
}

func TestLink(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		route  string
		params map[string]string
		want   string
		code   errors.ErrorCode
	}{
		{"root", "http://pi.hole:8080", Dashboard, nil, "http://pi.hole:8080/", ""},
		{"trailing slash base", "http://pi.hole/", Logs, nil, "http://pi.hole/logs", ""},
		{"relative", "", TimedBlocking, nil, "/timed-blocking", ""},
		{"device", "http://pi.hole", DeviceDetail, map[string]string{"mac": "aa:bb:cc:dd:ee:01"}, "http://pi.hole/devices/aa:bb:cc:dd:ee:01", ""},
		{"escaped", "", DeviceDetail, map[string]string{"mac": "a/b"}, "/devices/a%2Fb", ""},
		{"missing param", "", DeviceDetail, nil, "", errors.ErrCodeMissingField},
		{"unknown route", "", "Settings", nil, "", errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Link(tt.base, tt.route, tt.params)
			if tt.code != "" {
				if !errors.HasCode(err, tt.code) {
					t.Fatalf("expected %s, got %v", tt.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		path  string
		name  string
		mac   string
		found bool
	}{
		{"/", Dashboard, "", true},
		{"/devices", Devices, "", true},
		{"/devices/", Devices, "", true},
		{"/devices/aa:bb:cc:dd:ee:01", DeviceDetail, "aa:bb:cc:dd:ee:01", true},
		{"/devices/a%2Fb", DeviceDetail, "a/b", true},
		{"/devices/x/stats", "", "", false},
		{"/settings", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, params, ok := Match(tt.path)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if !ok {
				return
			}
			if r.Name != tt.name {
				t.Errorf("name = %s, want %s", r.Name, tt.name)
			}
			if params["mac"] != tt.mac {
				t.Errorf("mac = %q, want %q", params["mac"], tt.mac)
			}
		})
	}
}
