package api

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DashboardSnapshot holds the data shown on the dashboard landing page.
type DashboardSnapshot struct {
	Summary    *Summary      `json:"summary"`
	TopDomains []DomainCount `json:"top_domains"`
	TopBlocked []DomainCount `json:"top_blocked"`
	OverTime   []TimeBucket  `json:"over_time"`
}

// Dashboard loads the summary, both rankings and the over-time series
// concurrently. The first failure cancels the remaining calls and is
// returned.
func (c *Client) Dashboard(ctx context.Context, hours, limit int) (*DashboardSnapshot, error) {
	g, ctx := errgroup.WithContext(ctx)
	snap := &DashboardSnapshot{}

	g.Go(func() (err error) {
		snap.Summary, err = c.GetSummary(ctx, hours)
		return err
	})
	g.Go(func() (err error) {
		snap.TopDomains, err = c.GetTopDomains(ctx, limit, hours)
		return err
	})
	g.Go(func() (err error) {
		snap.TopBlocked, err = c.GetTopBlocked(ctx, limit, hours)
		return err
	})
	g.Go(func() (err error) {
		snap.OverTime, err = c.GetOverTime(ctx, hours)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// DeviceSnapshot holds the data shown on a device's detail page.
type DeviceSnapshot struct {
	MAC        string        `json:"mac"`
	Stats      *DeviceStats  `json:"stats"`
	Activity   []TimeBucket  `json:"activity"`
	TopDomains []DomainCount `json:"top_domains"`
	TopBlocked []DomainCount `json:"top_blocked"`
}

// DeviceDetail loads one device's stats, activity and rankings concurrently.
func (c *Client) DeviceDetail(ctx context.Context, mac string, hours, limit int) (*DeviceSnapshot, error) {
	if err := requireMAC(mac); err != nil {
		return nil, err
	}
	g, ctx := errgroup.WithContext(ctx)
	snap := &DeviceSnapshot{MAC: mac}

	g.Go(func() (err error) {
		snap.Stats, err = c.GetDeviceStats(ctx, mac, hours)
		return err
	})
	g.Go(func() (err error) {
		snap.Activity, err = c.GetDeviceActivity(ctx, mac, hours)
		return err
	})
	g.Go(func() (err error) {
		snap.TopDomains, err = c.GetDeviceTopDomains(ctx, mac, limit)
		return err
	})
	g.Go(func() (err error) {
		snap.TopBlocked, err = c.GetDeviceTopBlocked(ctx, mac, limit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
