package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/kbukum/piholedash/httpclient"
)

// Documented argument defaults.
const (
	DefaultHours = 24
	DefaultLimit = 10
	DefaultDays  = 7
)

// Operation names, one per backend route.
const (
	OpGetSummary                = "getSummary"
	OpGetTopDomains             = "getTopDomains"
	OpGetTopBlocked             = "getTopBlocked"
	OpGetOverTime               = "getOverTime"
	OpGetHourlyPattern          = "getHourlyPattern"
	OpGetBlocklistEffectiveness = "getBlocklistEffectiveness"
	OpGetDevices                = "getDevices"
	OpUpdateDevice              = "updateDevice"
	OpGetDeviceStats            = "getDeviceStats"
	OpGetDeviceActivity         = "getDeviceActivity"
	OpGetDeviceTopDomains       = "getDeviceTopDomains"
	OpGetDeviceTopBlocked       = "getDeviceTopBlocked"
	OpGetDomains                = "getDomains"
	OpAddDomain                 = "addDomain"
	OpDeleteDomain              = "deleteDomain"
	OpToggleDomain              = "toggleDomain"
	OpGetPresets                = "getPresets"
	OpGetTimedBlocks            = "getTimedBlocks"
	OpCreateTimedBlock          = "createTimedBlock"
	OpCancelTimedBlock          = "cancelTimedBlock"
	OpGetLogs                   = "getLogs"
	OpSearchLogs                = "searchLogs"
)

// Endpoint describes one call: the operation, its method, the path with
// parameters already substituted, the ordered query and the body.
type Endpoint struct {
	Name   string
	Method string
	Path   string
	Query  httpclient.Query
	Body   any
}

// URL returns the path followed by the encoded query, if any.
func (e Endpoint) URL() string {
	return e.Query.AppendTo(e.Path)
}

// Request converts the endpoint to a transport request.
func (e Endpoint) Request() httpclient.Request {
	return httpclient.Request{
		Method: e.Method,
		Path:   e.Path,
		Query:  e.Query,
		Body:   e.Body,
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func get(name, path string, query httpclient.Query) Endpoint {
	return Endpoint{Name: name, Method: http.MethodGet, Path: path, Query: query}
}

func hoursQuery(hours int) httpclient.Query {
	return httpclient.Query{}.Add("hours", strconv.Itoa(orDefault(hours, DefaultHours)))
}

func limitQuery(limit int) httpclient.Query {
	return httpclient.Query{}.Add("limit", strconv.Itoa(orDefault(limit, DefaultLimit)))
}

func devicePath(mac string) string {
	return "/api/devices/" + url.PathEscape(mac)
}

// Stats

// SummaryEndpoint is GET /api/stats/summary?hours=.
func SummaryEndpoint(hours int) Endpoint {
	return get(OpGetSummary, "/api/stats/summary", hoursQuery(hours))
}

// TopDomainsEndpoint is GET /api/stats/top-domains?limit=&hours=.
func TopDomainsEndpoint(limit, hours int) Endpoint {
	return get(OpGetTopDomains, "/api/stats/top-domains", append(limitQuery(limit), hoursQuery(hours)...))
}

// TopBlockedEndpoint is GET /api/stats/top-blocked?limit=&hours=.
func TopBlockedEndpoint(limit, hours int) Endpoint {
	return get(OpGetTopBlocked, "/api/stats/top-blocked", append(limitQuery(limit), hoursQuery(hours)...))
}

// OverTimeEndpoint is GET /api/stats/over-time?hours=.
func OverTimeEndpoint(hours int) Endpoint {
	return get(OpGetOverTime, "/api/stats/over-time", hoursQuery(hours))
}

// HourlyPatternEndpoint is GET /api/stats/hourly-pattern?days=.
func HourlyPatternEndpoint(days int) Endpoint {
	return get(OpGetHourlyPattern, "/api/stats/hourly-pattern",
		httpclient.Query{}.Add("days", strconv.Itoa(orDefault(days, DefaultDays))))
}

// BlocklistEffectivenessEndpoint is GET /api/stats/blocklist-effectiveness.
func BlocklistEffectivenessEndpoint() Endpoint {
	return get(OpGetBlocklistEffectiveness, "/api/stats/blocklist-effectiveness", nil)
}

// Devices

// DevicesEndpoint is GET /api/devices.
func DevicesEndpoint() Endpoint {
	return get(OpGetDevices, "/api/devices", nil)
}

// UpdateDeviceEndpoint is PATCH /api/devices/{mac} with body sent verbatim.
func UpdateDeviceEndpoint(mac string, body any) Endpoint {
	return Endpoint{Name: OpUpdateDevice, Method: http.MethodPatch, Path: devicePath(mac), Body: body}
}

// DeviceStatsEndpoint is GET /api/devices/{mac}/stats?hours=.
func DeviceStatsEndpoint(mac string, hours int) Endpoint {
	return get(OpGetDeviceStats, devicePath(mac)+"/stats", hoursQuery(hours))
}

// DeviceActivityEndpoint is GET /api/devices/{mac}/activity?hours=.
func DeviceActivityEndpoint(mac string, hours int) Endpoint {
	return get(OpGetDeviceActivity, devicePath(mac)+"/activity", hoursQuery(hours))
}

// DeviceTopDomainsEndpoint is GET /api/devices/{mac}/top-domains?limit=.
func DeviceTopDomainsEndpoint(mac string, limit int) Endpoint {
	return get(OpGetDeviceTopDomains, devicePath(mac)+"/top-domains", limitQuery(limit))
}

// DeviceTopBlockedEndpoint is GET /api/devices/{mac}/top-blocked?limit=.
func DeviceTopBlockedEndpoint(mac string, limit int) Endpoint {
	return get(OpGetDeviceTopBlocked, devicePath(mac)+"/top-blocked", limitQuery(limit))
}

// Domains

// DomainsEndpoint is GET /api/domains, with ?type= only when domainType is set.
func DomainsEndpoint(domainType string) Endpoint {
	var q httpclient.Query
	if domainType != "" {
		q = q.Add("type", domainType)
	}
	return get(OpGetDomains, "/api/domains", q)
}

// AddDomainEndpoint is POST /api/domains.
func AddDomainEndpoint(body any) Endpoint {
	return Endpoint{Name: OpAddDomain, Method: http.MethodPost, Path: "/api/domains", Body: body}
}

// DeleteDomainEndpoint is DELETE /api/domains/{id}.
func DeleteDomainEndpoint(id int64) Endpoint {
	return Endpoint{Name: OpDeleteDomain, Method: http.MethodDelete, Path: "/api/domains/" + strconv.FormatInt(id, 10)}
}

// ToggleDomainEndpoint is PATCH /api/domains/{id} with body {"enabled":<bool>}.
func ToggleDomainEndpoint(id int64, enabled bool) Endpoint {
	return Endpoint{
		Name:   OpToggleDomain,
		Method: http.MethodPatch,
		Path:   "/api/domains/" + strconv.FormatInt(id, 10),
		Body:   ToggleDomainRequest{Enabled: enabled},
	}
}

// PresetsEndpoint is GET /api/domains/presets.
func PresetsEndpoint() Endpoint {
	return get(OpGetPresets, "/api/domains/presets", nil)
}

// Timed blocks

// TimedBlocksEndpoint is GET /api/timed-blocks.
func TimedBlocksEndpoint() Endpoint {
	return get(OpGetTimedBlocks, "/api/timed-blocks", nil)
}

// CreateTimedBlockEndpoint is POST /api/timed-blocks.
func CreateTimedBlockEndpoint(body any) Endpoint {
	return Endpoint{Name: OpCreateTimedBlock, Method: http.MethodPost, Path: "/api/timed-blocks", Body: body}
}

// CancelTimedBlockEndpoint is DELETE /api/timed-blocks/{id}.
func CancelTimedBlockEndpoint(id string) Endpoint {
	return Endpoint{Name: OpCancelTimedBlock, Method: http.MethodDelete, Path: "/api/timed-blocks/" + url.PathEscape(id)}
}

// Logs

// LogsEndpoint is GET /api/logs with the filtered params.
func LogsEndpoint(params Params) Endpoint {
	return get(OpGetLogs, "/api/logs", params.Query())
}

// SearchLogsEndpoint is GET /api/logs/search?q=&hours=.
func SearchLogsEndpoint(q string, hours int) Endpoint {
	return get(OpSearchLogs, "/api/logs/search", append(httpclient.Query{}.Add("q", q), hoursQuery(hours)...))
}
