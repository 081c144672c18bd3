package api

// Summary is the response of GET /api/stats/summary.
type Summary struct {
	TotalQueries      int     `json:"total_queries"`
	BlockedQueries    int     `json:"blocked_queries"`
	UniqueDomains     int     `json:"unique_domains"`
	UniqueClients     int     `json:"unique_clients"`
	BlockedPercentage float64 `json:"blocked_percentage"`
}

// DomainCount is one row of a top-domains style ranking.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// TimeBucket is a ten-minute bucket of blocked and allowed queries. Bucket is
// the bucket start as a unix timestamp.
type TimeBucket struct {
	Bucket  int64 `json:"bucket"`
	Blocked int   `json:"blocked"`
	Allowed int   `json:"allowed"`
}

// HourlyCount is one cell of the day-of-week by hour heatmap.
type HourlyCount struct {
	DayOfWeek int `json:"day_of_week"`
	Hour      int `json:"hour"`
	Count     int `json:"count"`
}

// BlocklistSource counts blocked queries attributed to one blocklist.
type BlocklistSource struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Device is a network client known to the resolver, merged with the
// dashboard's nickname data.
type Device struct {
	ID         int64   `json:"id"`
	MAC        string  `json:"mac"`
	Interface  string  `json:"interface"`
	FirstSeen  int64   `json:"first_seen"`
	LastQuery  int64   `json:"last_query"`
	NumQueries int     `json:"num_queries"`
	Vendor     *string `json:"vendor"`
	IP         *string `json:"ip"`
	Hostname   *string `json:"hostname"`
	Nickname   *string `json:"nickname"`
	Icon       *string `json:"icon"`
}

// DisplayName returns the nickname, hostname, IP or MAC, whichever is set first.
func (d Device) DisplayName() string {
	for _, s := range []*string{d.Nickname, d.Hostname, d.IP} {
		if s != nil && *s != "" {
			return *s
		}
	}
	return d.MAC
}

// DeviceUpdate is the response of PATCH /api/devices/{mac}.
type DeviceUpdate struct {
	MAC      string  `json:"mac"`
	Nickname string  `json:"nickname"`
	Icon     *string `json:"icon"`
}

// DeviceStats is the response of GET /api/devices/{mac}/stats. Error is set
// by the backend when the MAC has no known address.
type DeviceStats struct {
	TotalQueries      int     `json:"total_queries"`
	BlockedQueries    int     `json:"blocked_queries"`
	UniqueDomains     int     `json:"unique_domains"`
	BlockedPercentage float64 `json:"blocked_percentage"`
	Error             string  `json:"error,omitempty"`
}

// Domain list type codes as stored by the resolver.
const (
	DomainTypeCodeWhitelist  = 0
	DomainTypeCodeBlacklist  = 1
	DomainTypeCodeRegexWhite = 2
	DomainTypeCodeRegexBlack = 3
)

// DomainEntry is one row of the domain list.
type DomainEntry struct {
	ID           int64   `json:"id"`
	Type         int     `json:"type"`
	Domain       string  `json:"domain"`
	Enabled      int     `json:"enabled"`
	DateAdded    int64   `json:"date_added"`
	DateModified int64   `json:"date_modified"`
	Comment      *string `json:"comment"`
}

// IsEnabled reports whether the entry is active.
func (e DomainEntry) IsEnabled() bool {
	return e.Enabled != 0
}

// TypeName returns the list name for the entry's type code.
func (e DomainEntry) TypeName() string {
	switch e.Type {
	case DomainTypeCodeWhitelist:
		return DomainTypeWhitelist
	case DomainTypeCodeBlacklist:
		return DomainTypeBlacklist
	case DomainTypeCodeRegexWhite:
		return DomainTypeRegexWhite
	case DomainTypeCodeRegexBlack:
		return DomainTypeRegexBlack
	default:
		return "unknown"
	}
}

// StatusResponse is the acknowledgement returned by mutating endpoints.
// Output is set by domain creation, Enabled by domain toggling.
type StatusResponse struct {
	Status  string `json:"status"`
	Output  string `json:"output,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// PresetDomain is one entry of a preset.
type PresetDomain struct {
	Domain string `json:"domain"`
	Type   string `json:"type"`
}

// Preset is a named bundle of domains that can be blocked together.
type Preset struct {
	Name    string         `json:"name"`
	Domains []PresetDomain `json:"domains"`
}

// TimedBlock is a temporary wildcard block.
type TimedBlock struct {
	ID               string `json:"id"`
	Domain           string `json:"domain"`
	CreatedAt        int64  `json:"created_at"`
	ExpiresAt        int64  `json:"expires_at"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

// QueryLog is one resolver query.
type QueryLog struct {
	ID        int64    `json:"id"`
	Timestamp int64    `json:"timestamp"`
	Type      int      `json:"type"`
	Status    int      `json:"status"`
	Domain    string   `json:"domain"`
	Client    string   `json:"client"`
	Forward   *string  `json:"forward"`
	ReplyType *int     `json:"reply_type,omitempty"`
	ReplyTime *float64 `json:"reply_time,omitempty"`
	DNSSEC    *int     `json:"dnssec,omitempty"`
}

// QueryPage is a page of the query log.
type QueryPage struct {
	Items   []QueryLog `json:"items"`
	Total   int        `json:"total"`
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
	Pages   int        `json:"pages"`
}
