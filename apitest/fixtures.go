package apitest

import (
	"maps"
	"slices"

	"github.com/kbukum/piholedash/api"
)

// Fixtures is the backend's data set.
type Fixtures struct {
	Devices   []api.Device
	Nicknames map[string]Nickname
	Domains   []api.DomainEntry
	Logs      []api.QueryLog
	Presets   map[string]api.Preset
	Sources   []api.BlocklistSource
	Blocks    []api.TimedBlock
}

// Nickname is the dashboard-owned naming of a device.
type Nickname struct {
	Nickname string
	Icon     *string
}

// blockedStatuses are the resolver status codes counted as blocked.
var blockedStatuses = []int{1, 4, 5, 6, 7, 8, 9, 10, 11}

// allowedStatuses and cachedStatuses back the log status filter.
var (
	allowedStatuses = []int{2, 3, 12, 13, 14}
	cachedStatuses  = []int{3}
)

func isBlocked(status int) bool {
	return slices.Contains(blockedStatuses, status)
}

// Reference timestamps for the default fixtures.
const (
	FixtureNow  int64 = 1_700_000_000
	fixtureHour int64 = 3600
)

func str(s string) *string { return &s }

// DefaultFixtures returns a small, deterministic data set: three devices,
// four domain list entries, a dozen queries and the stock presets.
func DefaultFixtures() Fixtures {
	logs := []api.QueryLog{
		{ID: 1, Timestamp: FixtureNow - 10, Type: 1, Status: 2, Domain: "example.com", Client: "192.168.1.10", Forward: str("1.1.1.1")},
		{ID: 2, Timestamp: FixtureNow - 20, Type: 1, Status: 1, Domain: "ads.doubleclick.net", Client: "192.168.1.10"},
		{ID: 3, Timestamp: FixtureNow - 30, Type: 1, Status: 1, Domain: "ads.doubleclick.net", Client: "192.168.1.11"},
		{ID: 4, Timestamp: FixtureNow - 700, Type: 1, Status: 3, Domain: "example.com", Client: "192.168.1.11"},
		{ID: 5, Timestamp: FixtureNow - 800, Type: 28, Status: 2, Domain: "news.ycombinator.com", Client: "192.168.1.10", Forward: str("1.1.1.1")},
		{ID: 6, Timestamp: FixtureNow - 900, Type: 1, Status: 4, Domain: "tracker.example.net", Client: "192.168.1.12"},
		{ID: 7, Timestamp: FixtureNow - 2*fixtureHour, Type: 1, Status: 2, Domain: "reddit.com", Client: "192.168.1.12", Forward: str("9.9.9.9")},
		{ID: 8, Timestamp: FixtureNow - 3*fixtureHour, Type: 1, Status: 1, Domain: "ads.doubleclick.net", Client: "192.168.1.12"},
		{ID: 9, Timestamp: FixtureNow - 5*fixtureHour, Type: 1, Status: 2, Domain: "example.com", Client: "192.168.1.10", Forward: str("1.1.1.1")},
		{ID: 10, Timestamp: FixtureNow - 30*fixtureHour, Type: 1, Status: 2, Domain: "old.example.org", Client: "192.168.1.10", Forward: str("1.1.1.1")},
		{ID: 11, Timestamp: FixtureNow - 30*fixtureHour, Type: 1, Status: 9, Domain: "telemetry.example.org", Client: "192.168.1.11"},
		{ID: 12, Timestamp: FixtureNow - 100*fixtureHour, Type: 1, Status: 2, Domain: "ancient.example.org", Client: "192.168.1.11", Forward: str("1.1.1.1")},
	}

	return Fixtures{
		Devices: []api.Device{
			{ID: 1, MAC: "aa:bb:cc:dd:ee:01", Interface: "eth0", FirstSeen: FixtureNow - 90*24*fixtureHour, LastQuery: FixtureNow - 10, NumQueries: 1200, Vendor: str("Apple, Inc."), IP: str("192.168.1.10"), Hostname: str("laptop")},
			{ID: 2, MAC: "aa:bb:cc:dd:ee:02", Interface: "eth0", FirstSeen: FixtureNow - 60*24*fixtureHour, LastQuery: FixtureNow - 30, NumQueries: 800, Vendor: str("Samsung"), IP: str("192.168.1.11"), Hostname: str("phone")},
			{ID: 3, MAC: "aa:bb:cc:dd:ee:03", Interface: "wlan0", FirstSeen: FixtureNow - 10*24*fixtureHour, LastQuery: FixtureNow - 900, NumQueries: 90, IP: str("192.168.1.12")},
			{ID: 4, MAC: "aa:bb:cc:dd:ee:04", Interface: "wlan0", FirstSeen: FixtureNow - 24*fixtureHour, LastQuery: FixtureNow - 24*fixtureHour, NumQueries: 0},
		},
		Nicknames: map[string]Nickname{
			"aa:bb:cc:dd:ee:01": {Nickname: "Work laptop", Icon: str("laptop")},
		},
		Domains: []api.DomainEntry{
			{ID: 1, Type: api.DomainTypeCodeBlacklist, Domain: "ads.doubleclick.net", Enabled: 1, DateAdded: FixtureNow - 5000, DateModified: FixtureNow - 5000},
			{ID: 2, Type: api.DomainTypeCodeWhitelist, Domain: "example.com", Enabled: 1, DateAdded: FixtureNow - 4000, DateModified: FixtureNow - 4000, Comment: str("never block")},
			{ID: 3, Type: api.DomainTypeCodeRegexBlack, Domain: `(\.|^)tracker\.example\.net$`, Enabled: 0, DateAdded: FixtureNow - 3000, DateModified: FixtureNow - 2000},
			{ID: 4, Type: api.DomainTypeCodeRegexWhite, Domain: `^cdn\.`, Enabled: 1, DateAdded: FixtureNow - 1000, DateModified: FixtureNow - 1000},
		},
		Logs: logs,
		Presets: map[string]api.Preset{
			"social": {Name: "Social Media", Domains: []api.PresetDomain{
				{Domain: "reddit.com", Type: api.DomainTypeWildcard},
				{Domain: "twitter.com", Type: api.DomainTypeWildcard},
				{Domain: "instagram.com", Type: api.DomainTypeWildcard},
				{Domain: `(\.|^)(reddit|redd\.it|redditstatic|redditmedia)\.`, Type: api.DomainTypeRegexBlack},
			}},
			"video": {Name: "Video Streaming", Domains: []api.PresetDomain{
				{Domain: "youtube.com", Type: api.DomainTypeWildcard},
				{Domain: "twitch.tv", Type: api.DomainTypeWildcard},
				{Domain: `(\.|^)(googlevideo|ytimg|yt3\.ggpht)\.`, Type: api.DomainTypeRegexBlack},
			}},
			"news": {Name: "News", Domains: []api.PresetDomain{
				{Domain: "news.ycombinator.com", Type: api.DomainTypeBlacklist},
				{Domain: "cnn.com", Type: api.DomainTypeWildcard},
			}},
			"gaming": {Name: "Gaming", Domains: []api.PresetDomain{
				{Domain: "store.steampowered.com", Type: api.DomainTypeBlacklist},
				{Domain: "discord.com", Type: api.DomainTypeWildcard},
			}},
		},
		Sources: []api.BlocklistSource{
			{Source: "https://raw.githubusercontent.com/StevenBlack/hosts/master/hosts", Count: 3},
			{Source: "regex", Count: 1},
		},
	}
}

// clone deep-copies f so snapshots are isolated from later mutation.
func (f Fixtures) clone() Fixtures {
	out := Fixtures{
		Devices:   slices.Clone(f.Devices),
		Nicknames: maps.Clone(f.Nicknames),
		Domains:   slices.Clone(f.Domains),
		Logs:      slices.Clone(f.Logs),
		Presets:   make(map[string]api.Preset, len(f.Presets)),
		Sources:   slices.Clone(f.Sources),
		Blocks:    slices.Clone(f.Blocks),
	}
	if out.Nicknames == nil {
		out.Nicknames = map[string]Nickname{}
	}
	for k, p := range f.Presets {
		p.Domains = slices.Clone(p.Domains)
		out.Presets[k] = p
	}
	return out
}
