package apitest

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/kbukum/piholedash/api"
)

const (
	bucketSeconds = 600
	daySeconds    = 86400
)

// window selects the queries newer than since, optionally for one client.
func window(logs []api.QueryLog, since int64, client string) []api.QueryLog {
	var out []api.QueryLog
	for _, q := range logs {
		if q.Timestamp <= since {
			continue
		}
		if client != "" && q.Client != client {
			continue
		}
		out = append(out, q)
	}
	return out
}

// latest is the reference "now" of the data set: the newest query timestamp,
// or fallback when there are no queries.
func latest(logs []api.QueryLog, fallback int64) int64 {
	if len(logs) == 0 {
		return fallback
	}
	var m int64
	for _, q := range logs {
		m = max(m, q.Timestamp)
	}
	return m
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

func summarize(logs []api.QueryLog) api.Summary {
	domains := map[string]struct{}{}
	clients := map[string]struct{}{}
	s := api.Summary{TotalQueries: len(logs)}
	for _, q := range logs {
		if isBlocked(q.Status) {
			s.BlockedQueries++
		}
		domains[q.Domain] = struct{}{}
		clients[q.Client] = struct{}{}
	}
	s.UniqueDomains = len(domains)
	s.UniqueClients = len(clients)
	s.BlockedPercentage = percentage(s.BlockedQueries, s.TotalQueries)
	return s
}

func deviceStats(logs []api.QueryLog) api.DeviceStats {
	s := summarize(logs)
	return api.DeviceStats{
		TotalQueries:      s.TotalQueries,
		BlockedQueries:    s.BlockedQueries,
		UniqueDomains:     s.UniqueDomains,
		BlockedPercentage: s.BlockedPercentage,
	}
}

// topDomains ranks domains by query count, ties broken by name.
func topDomains(logs []api.QueryLog, limit int, blockedOnly bool) []api.DomainCount {
	counts := map[string]int{}
	for _, q := range logs {
		if blockedOnly && !isBlocked(q.Status) {
			continue
		}
		counts[q.Domain]++
	}
	out := make([]api.DomainCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, api.DomainCount{Domain: d, Count: n})
	}
	slices.SortFunc(out, func(a, b api.DomainCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Domain, b.Domain)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// overTime groups queries into ten-minute buckets in ascending order.
func overTime(logs []api.QueryLog) []api.TimeBucket {
	idx := map[int64]int{}
	out := []api.TimeBucket{}
	for _, q := range logs {
		bucket := (q.Timestamp / bucketSeconds) * bucketSeconds
		i, ok := idx[bucket]
		if !ok {
			i = len(out)
			idx[bucket] = i
			out = append(out, api.TimeBucket{Bucket: bucket})
		}
		if isBlocked(q.Status) {
			out[i].Blocked++
		} else {
			out[i].Allowed++
		}
	}
	slices.SortFunc(out, func(a, b api.TimeBucket) int { return cmp.Compare(a.Bucket, b.Bucket) })
	return out
}

// hourlyPattern counts queries per weekday (Sunday is 0) and hour, in UTC.
func hourlyPattern(logs []api.QueryLog) []api.HourlyCount {
	type key struct{ day, hour int }
	counts := map[key]int{}
	for _, q := range logs {
		t := time.Unix(q.Timestamp, 0).UTC()
		counts[key{int(t.Weekday()), t.Hour()}]++
	}
	out := make([]api.HourlyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, api.HourlyCount{DayOfWeek: k.day, Hour: k.hour, Count: n})
	}
	slices.SortFunc(out, func(a, b api.HourlyCount) int {
		if c := cmp.Compare(a.DayOfWeek, b.DayOfWeek); c != 0 {
			return c
		}
		return cmp.Compare(a.Hour, b.Hour)
	})
	return out
}

func newestFirst(logs []api.QueryLog) []api.QueryLog {
	out := slices.Clone(logs)
	slices.SortStableFunc(out, func(a, b api.QueryLog) int { return cmp.Compare(b.Timestamp, a.Timestamp) })
	return out
}

// statusSet maps a log status filter to resolver codes. Unknown filters
// select nothing so the caller can ignore them.
func statusSet(filter string) []int {
	switch filter {
	case api.LogStatusBlocked:
		return blockedStatuses
	case api.LogStatusAllowed:
		return allowedStatuses
	case api.LogStatusCached:
		return cachedStatuses
	default:
		return nil
	}
}
