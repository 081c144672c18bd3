package api

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kbukum/piholedash/errors"
	"github.com/kbukum/piholedash/httpclient"
	"github.com/kbukum/piholedash/logger"
)

// Client exposes one method per backend operation. It is safe for
// concurrent use and keeps no state between calls.
type Client struct {
	transport *httpclient.Client
	log       *logger.Logger
}

// New builds a Client on a new transport.
func New(cfg httpclient.Config, opts ...httpclient.Option) (*Client, error) {
	transport, err := httpclient.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(transport), nil
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger for mutation records. By default the Client
// logs through the transport's logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewWithTransport builds a Client on an existing transport.
func NewWithTransport(transport *httpclient.Client, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		log:       transport.Logger().WithComponent("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	return c
}

// Transport returns the underlying transport.
func (c *Client) Transport() *httpclient.Client {
	return c.transport
}

// Request is the raw transport primitive: one call to BaseURL + path with
// the default JSON content type merged under the caller's headers. The 2xx
// body is returned as JSON.
func (c *Client) Request(ctx context.Context, path string, opts ...httpclient.RequestOption) (json.RawMessage, error) {
	resp, err := c.transport.Request(ctx, path, opts...)
	if err != nil {
		return nil, err
	}
	return resp.Raw()
}

// Call executes ep and decodes the JSON result into out. out may be nil.
func (c *Client) Call(ctx context.Context, ep Endpoint, out any) error {
	resp, err := c.transport.Do(ctx, ep.Request())
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.JSON(out)
}

func call[T any](ctx context.Context, c *Client, ep Endpoint) (T, error) {
	var out T
	err := c.Call(ctx, ep, &out)
	return out, err
}

func requireMAC(mac string) error {
	if strings.TrimSpace(mac) == "" {
		return errors.MissingField("mac")
	}
	return nil
}

// Stats

// GetSummary returns query totals for the last hours.
func (c *Client) GetSummary(ctx context.Context, hours int) (*Summary, error) {
	s, err := call[Summary](ctx, c, SummaryEndpoint(hours))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetTopDomains returns the most queried domains.
func (c *Client) GetTopDomains(ctx context.Context, limit, hours int) ([]DomainCount, error) {
	return call[[]DomainCount](ctx, c, TopDomainsEndpoint(limit, hours))
}

// GetTopBlocked returns the most blocked domains.
func (c *Client) GetTopBlocked(ctx context.Context, limit, hours int) ([]DomainCount, error) {
	return call[[]DomainCount](ctx, c, TopBlockedEndpoint(limit, hours))
}

// GetOverTime returns blocked/allowed counts in ten-minute buckets.
func (c *Client) GetOverTime(ctx context.Context, hours int) ([]TimeBucket, error) {
	return call[[]TimeBucket](ctx, c, OverTimeEndpoint(hours))
}

// GetHourlyPattern returns the day-of-week by hour query heatmap.
func (c *Client) GetHourlyPattern(ctx context.Context, days int) ([]HourlyCount, error) {
	return call[[]HourlyCount](ctx, c, HourlyPatternEndpoint(days))
}

// GetBlocklistEffectiveness returns blocked counts per blocklist.
func (c *Client) GetBlocklistEffectiveness(ctx context.Context) ([]BlocklistSource, error) {
	return call[[]BlocklistSource](ctx, c, BlocklistEffectivenessEndpoint())
}

// Devices

// GetDevices lists known network devices.
func (c *Client) GetDevices(ctx context.Context) ([]Device, error) {
	return call[[]Device](ctx, c, DevicesEndpoint())
}

// UpdateDevice sets a device's nickname and icon.
func (c *Client) UpdateDevice(ctx context.Context, mac string, req UpdateDeviceRequest) (*DeviceUpdate, error) {
	if err := requireMAC(mac); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	u, err := call[DeviceUpdate](ctx, c, UpdateDeviceEndpoint(mac, req))
	if err != nil {
		return nil, err
	}
	c.log.Debug("device updated", logger.Fields("mac", mac, "nickname", req.Nickname))
	return &u, nil
}

// GetDeviceStats returns query totals for one device.
func (c *Client) GetDeviceStats(ctx context.Context, mac string, hours int) (*DeviceStats, error) {
	if err := requireMAC(mac); err != nil {
		return nil, err
	}
	s, err := call[DeviceStats](ctx, c, DeviceStatsEndpoint(mac, hours))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetDeviceActivity returns one device's blocked/allowed buckets.
func (c *Client) GetDeviceActivity(ctx context.Context, mac string, hours int) ([]TimeBucket, error) {
	if err := requireMAC(mac); err != nil {
		return nil, err
	}
	return call[[]TimeBucket](ctx, c, DeviceActivityEndpoint(mac, hours))
}

// GetDeviceTopDomains returns one device's most queried domains.
func (c *Client) GetDeviceTopDomains(ctx context.Context, mac string, limit int) ([]DomainCount, error) {
	if err := requireMAC(mac); err != nil {
		return nil, err
	}
	return call[[]DomainCount](ctx, c, DeviceTopDomainsEndpoint(mac, limit))
}

// GetDeviceTopBlocked returns one device's most blocked domains.
func (c *Client) GetDeviceTopBlocked(ctx context.Context, mac string, limit int) ([]DomainCount, error) {
	if err := requireMAC(mac); err != nil {
		return nil, err
	}
	return call[[]DomainCount](ctx, c, DeviceTopBlockedEndpoint(mac, limit))
}

// Domains

// GetDomains lists domain list entries, optionally only one list type.
func (c *Client) GetDomains(ctx context.Context, domainType string) ([]DomainEntry, error) {
	return call[[]DomainEntry](ctx, c, DomainsEndpoint(domainType))
}

// AddDomain adds a domain or regex to a list.
func (c *Client) AddDomain(ctx context.Context, req AddDomainRequest) (*StatusResponse, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	s, err := call[StatusResponse](ctx, c, AddDomainEndpoint(req))
	if err != nil {
		return nil, err
	}
	c.log.Debug("domain added", logger.Fields("domain", req.Domain, "type", req.Type))
	return &s, nil
}

// DeleteDomain removes a domain list entry.
func (c *Client) DeleteDomain(ctx context.Context, id int64) (*StatusResponse, error) {
	s, err := call[StatusResponse](ctx, c, DeleteDomainEndpoint(id))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ToggleDomain enables or disables a domain list entry.
func (c *Client) ToggleDomain(ctx context.Context, id int64, enabled bool) (*StatusResponse, error) {
	s, err := call[StatusResponse](ctx, c, ToggleDomainEndpoint(id, enabled))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetPresets returns the domain presets keyed by id.
func (c *Client) GetPresets(ctx context.Context) (map[string]Preset, error) {
	return call[map[string]Preset](ctx, c, PresetsEndpoint())
}

// Timed blocks

// GetTimedBlocks lists active timed blocks.
func (c *Client) GetTimedBlocks(ctx context.Context) ([]TimedBlock, error) {
	return call[[]TimedBlock](ctx, c, TimedBlocksEndpoint())
}

// CreateTimedBlock blocks every domain in req for its duration and returns
// the created blocks.
func (c *Client) CreateTimedBlock(ctx context.Context, req TimedBlockRequest) ([]TimedBlock, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	blocks, err := call[[]TimedBlock](ctx, c, CreateTimedBlockEndpoint(req))
	if err != nil {
		return nil, err
	}
	c.log.Debug("timed blocks created", logger.Fields("count", len(blocks), "minutes", req.DurationMinutes))
	return blocks, nil
}

// CancelTimedBlock ends a timed block early.
func (c *Client) CancelTimedBlock(ctx context.Context, id string) (*StatusResponse, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.MissingField("id")
	}
	s, err := call[StatusResponse](ctx, c, CancelTimedBlockEndpoint(id))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Logs

// GetLogs returns a page of the query log filtered by params.
func (c *Client) GetLogs(ctx context.Context, params Params) (*QueryPage, error) {
	p, err := call[QueryPage](ctx, c, LogsEndpoint(params))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// QueryLogs validates q and returns the matching page.
func (c *Client) QueryLogs(ctx context.Context, q LogQuery) (*QueryPage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return c.GetLogs(ctx, q.Params())
}

// SearchLogs returns queries whose domain contains q.
func (c *Client) SearchLogs(ctx context.Context, q string, hours int) ([]QueryLog, error) {
	if q == "" {
		return nil, errors.MissingField("q")
	}
	return call[[]QueryLog](ctx, c, SearchLogsEndpoint(q, hours))
}
