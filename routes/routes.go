package routes

import (
	"net/url"
	"strings"

	"github.com/kbukum/piholedash/errors"
)

// Route names.
const (
	Dashboard     = "Dashboard"
	Devices       = "Devices"
	DeviceDetail  = "DeviceDetail"
	Domains       = "Domains"
	TimedBlocking = "TimedBlocking"
	Logs          = "Logs"
)

// Route is one page of the dashboard.
type Route struct {
	Name string `json:"name"`
	Path string `json:"path"`
	// Props reports whether path parameters are handed to the page as properties.
	Props bool `json:"props"`
}

// Params returns the names of the ":name" segments of the path.
func (r Route) Params() []string {
	var out []string
	for _, seg := range strings.Split(r.Path, "/") {
		if strings.HasPrefix(seg, ":") {
			out = append(out, seg[1:])
		}
	}
	return out
}

var table = []Route{
	{Name: Dashboard, Path: "/"},
	{Name: Devices, Path: "/devices"},
	{Name: DeviceDetail, Path: "/devices/:mac", Props: true},
	{Name: Domains, Path: "/domains"},
	{Name: TimedBlocking, Path: "/timed-blocking"},
	{Name: Logs, Path: "/logs"},
}

// All returns the navigation table in display order.
func All() []Route {
	out := make([]Route, len(table))
	copy(out, table)
	return out
}

// Lookup returns the route named name.
func Lookup(name string) (Route, bool) {
	for _, r := range table {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Match resolves a UI path to its route and parameters.
func Match(path string) (Route, map[string]string, bool) {
	want := splitPath(path)
	for _, r := range table {
		segs := splitPath(r.Path)
		if len(segs) != len(want) {
			continue
		}
		params := map[string]string{}
		ok := true
		for i, seg := range segs {
			if strings.HasPrefix(seg, ":") {
				v, err := url.PathUnescape(want[i])
				if err != nil || v == "" {
					ok = false
					break
				}
				params[seg[1:]] = v
				continue
			}
			if seg != want[i] {
				ok = false
				break
			}
		}
		if ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

// Build fills the route's parameters, escaping each value as one segment.
func (r Route) Build(params map[string]string) (string, error) {
	segs := strings.Split(r.Path, "/")
	for i, seg := range segs {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		v := params[seg[1:]]
		if v == "" {
			return "", errors.MissingField(seg[1:])
		}
		segs[i] = url.PathEscape(v)
	}
	return strings.Join(segs, "/"), nil
}

// Link builds an absolute link to the named page under base, the address
// the dashboard is served from. An empty base yields a relative link.
func Link(base, name string, params map[string]string) (string, error) {
	r, ok := Lookup(name)
	if !ok {
		return "", errors.NotFound("Route", name)
	}
	p, err := r.Build(params)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(base, "/") + p, nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
