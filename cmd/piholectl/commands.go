package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kbukum/piholedash/api"
	apperrors "github.com/kbukum/piholedash/errors"
	"github.com/kbukum/piholedash/routes"
	"github.com/kbukum/piholedash/version"
)

type runFunc func(ctx context.Context, e *env, args []string) (any, error)

// command is one piholectl subcommand. setup registers the command's flags
// and returns the function that runs it.
type command struct {
	name    string
	args    string
	summary string
	// nargs is the exact positional count, or -n for "at least n".
	nargs int
	// offline commands never contact the API.
	offline bool
	// mutates marks calls that are not retried.
	mutates bool
	setup   func(fs *pflag.FlagSet) runFunc
}

var errHelp = errors.New("help requested")

func (c *command) execute(ctx context.Context, e *env, args []string, stderr io.Writer) (any, error) {
	fs := pflag.NewFlagSet(c.name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	run := c.setup(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s %s [flags] %s\n\n%s\n", serviceName, c.name, c.args, c.summary)
		if fs.HasFlags() {
			fmt.Fprintf(stderr, "\nFlags:\n")
			fs.PrintDefaults()
		}
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, errHelp
		}
		return nil, errUsage
	}
	if err := positional(c, fs.Args()); err != nil {
		fmt.Fprintf(stderr, "%s %s: %v\n", serviceName, c.name, err)
		fs.Usage()
		return nil, errUsage
	}
	if c.offline || c.mutates {
		return run(ctx, e, fs.Args())
	}
	return e.retry(ctx, c.name, func(ctx context.Context) (any, error) {
		return run(ctx, e, fs.Args())
	})
}

func lookup(name string) (*command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

func result[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidFormat("id", "a positive integer")
	}
	return id, nil
}

func hoursFlag(fs *pflag.FlagSet) *int {
	return fs.Int("hours", api.DefaultHours, "look-back window in hours")
}

func limitFlag(fs *pflag.FlagSet) *int {
	return fs.Int("limit", api.DefaultLimit, "number of rows")
}

var commands = []*command{
	{
		name: "summary", summary: "Query totals for the window",
		setup: func(fs *pflag.FlagSet) runFunc {
			hours := hoursFlag(fs)
			return func(ctx context.Context, e *env, _ []string) (any, error) {
				return result(e.client.GetSummary(ctx, *hours))
			}
		},
	},
	{
		name: "top-domains", summary: "Most queried domains",
		setup: func(fs *pflag.FlagSet) runFunc {
			limit, hours := limitFlag(fs), hoursFlag(fs)
			return func(ctx context.Context, e *env, _ []string) (any, error) {
				return result(e.client.GetTopDomains(ctx, *limit, *hours))
			}
		},
	},
	{
		name: "top-blocked", summary: "Most blocked domains",
		setup: func(fs *pflag.FlagSet) runFunc {
			limit, hours := limitFlag(fs), hoursFlag(fs)
			return func(ctx context.Context, e *env, _ []string) (any, error) {
				return result(e.client.GetTopBlocked(ctx, *limit, *hours))
			}
		},
	},
	{
		name: "over-time", summary: "Blocked and allowed queries in ten-minute buckets",
		setup: func(fs *pflag.FlagSet) runFunc {
			hours := hoursFlag(fs)
			return func(ctx context.Context, e *env, _ []string) (any, error) {
				return result(e.client.GetOverTime(ctx, *hours))
			}
		},
	},
	{
		name: "hourly", summary: "Query counts by day of week and hour",
		setup: func(fs *pflag.FlagSet) runFunc {
			days := fs.Int("days", api.DefaultDays, "look-back window in days")
			return func(ctx context.Context, e *env, _ []string) (any, error) {
				return result(e.client.GetHourlyPattern(ctx, *days))
			}
		},
	},
	{
		name: "effectiveness", summary: "Blocked queries per blocklist source",
		setup: func(fs *pflag.FlagSet) runFunc {
			return func(ctx context.Context, e *env, _ []string) (any, error) {
				return result(e.client.GetBlocklistEffectiveness(ctx))
			}
		},
	},
	{
		name: "dashboard", summary: "Summary, rankings and over-time series in one snapshot",
		setup: func(fs *pflag.FlagSet) runFunc {
			hours, limit := hoursFlag(fs), limitFlag(fs)
			return func(ctx context.Context, e *env, _ []string) (any, error) {
				return result(e.client.Dashboard(ctx, *hours, *limit))
			}
		},
	},
	{
		name: "devices", summary: "Known network devices",
		setup: func(fs *pflag.FlagSet) runFunc {
			return func(ctx context.Context, e *env, _ []string) (any, error) {
				return result(e.client.GetDevices(ctx))
			}
		},
	},
	{
		name: "device", args: "<mac>", nargs: 1, summary: "Stats, activity and rankings for one device",
		setup: func(fs *pflag.FlagSet) runFunc {
			hours, limit := hoursFlag(fs), limitFlag(fs)
			return func(ctx context.Context, e *env, args []string) (any, error) {
				return result(e.client.DeviceDetail(ctx, args[0], *hours, *limit))
			}
		},
	},
	{
		name: "device-rename", args: "<mac>", nargs: 1, mutates: true, summary: "Set a device nickname and icon",
		setup: func(fs *pflag.FlagSet) runFunc {
			nickname := fs.String("nickname", "", "display name (required)")
			icon := fs.String("icon", "", "icon name")
			return func(ctx context.Context, e *env, args []string) (any, error) {
				req := api.UpdateDeviceRequest{Nickname: *nickname}
				if fs.Changed("icon") {
					req.Icon = icon
				}
				return result(e.client.UpdateDevice(ctx, args[0], req))
			}
		},
	},
	{
		name: "device-stats", args: "<mac>", nargs: 1, summary: "Query totals for one device",
		setup: func(fs *pflag.FlagSet) runFunc {
			hours := hoursFlag(fs)
			return func(ctx context.Context, e *env, args []string) (any, error) {
				return result(e.client.GetDeviceStats(ctx, args[0], *hours))
			}
		},
	},
	{
		name: "device-activity", args: "<mac>", nargs: 1, summary: "Ten-minute buckets for one device",
		setup: func(fs *pflag.FlagSet) runFunc {
			hours := hoursFlag(fs)
			return func(ctx context.Context, e *env, args []string) (any, error) {
				return result(e.client.GetDeviceActivity(ctx, args[0], *hours))
			}
		},
	},
	{
		name: "device-top-domains", args: "<mac>", nargs: 1, summary: "Most queried domains of one device",
		setup: func(fs *pflag.FlagSet) runFunc {
			limit := limitFlag(fs)
			return func(ctx context.Context, e *env, args []string) (any, error) {
				return result(e.client.GetDeviceTopDomains(ctx, args[0], *limit))
			}
		},
	},
	{
		name: "device-top-blocked", args: "<mac>", nargs: 1, summary: "Most blocked domains of one device",
		setup: func(fs *pflag.FlagSet) runFunc {
			limit := limitFlag(fs)
			return func(ctx context.Context, e *env, args []string) (any, error) {
				return result(e.client.GetDeviceTopBlocked(ctx, args[0], *limit))
			}
		},
	},
	{
		name: "domains", summary: "Domain list entries",
		setup: func(fs *pflag.FlagSet) runFunc {
			typ := fs.String("type", "", "only "+strings.Join(api.DomainTypes, ", "))
			return func(ctx context.Context, e *env, _ []string) (any, error) {
				return result(e.client.GetDomains(ctx, *typ))
			}
		},
	},
	{
		name: "domain-add", args: "<domain>", nargs: 1, mutates: true, summary: "Add a domain or regex to a list",
		setup: func(fs *pflag.FlagSet) runFunc {
			typ := fs.StringP("type", "t", api.DomainTypeBlacklist, strings.Join(api.DomainTypes, ", "))
			comment := fs.String("comment", "", "free-form comment")
			return func(ctx context.Context, e *env, args []string) (any, error) {
				req := api.AddDomainRequest{Domain: args[0], Type: *typ}
				if fs.Changed("comment") {
					req.Comment = comment
				}
				return result(e.client.AddDomain(ctx, req))
			}
		},
	},
	{
		name: "domain-rm", args: "<id>", nargs: 1, mutates: true, summary: "Delete a domain list entry",
		setup: func(fs *pflag.FlagSet) runFunc {
			return func(ctx context.Context, e *env, args []string) (any, error) {
				id, err := parseID(args[0])
				if err != nil {
					return nil, err
				}
				return result(e.client.DeleteDomain(ctx, id))
			}
		},
	},
	toggle("domain-enable", true),
	toggle("domain-disable", false),
	{
		name: "presets", summary: "Domain presets for timed blocking",
		setup: func(fs *pflag.FlagSet) runFunc {
			return func(ctx context.Context, e *env, _ []string) (any, error) {
				return result(e.client.GetPresets(ctx))
			}
		},
	},
	{
		name: "timed", summary: "Active timed blocks",
		setup: func(fs *pflag.FlagSet) runFunc {
			return func(ctx context.Context, e *env, _ []string) (any, error) {
				return result(e.client.GetTimedBlocks(ctx))
			}
		},
	},
	{
		name: "timed-add", args: "<domain>...", nargs: -1, mutates: true, summary: "Block domains for a while",
		setup: func(fs *pflag.FlagSet) runFunc {
			minutes := fs.IntP("minutes", "m", api.DefaultTimedBlockMinutes, "block duration")
			preset := fs.String("preset", "", "also block the non-regex domains of this preset")
			return func(ctx context.Context, e *env, args []string) (any, error) {
				domains := slices.Clone(args)
				if *preset != "" {
					extra, err := presetDomains(ctx, e, *preset)
					if err != nil {
						return nil, err
					}
					domains = append(domains, extra...)
				}
				return result(e.client.CreateTimedBlock(ctx, api.TimedBlockRequest{
					Domains:         domains,
					DurationMinutes: *minutes,
				}))
			}
		},
	},
	{
		name: "timed-cancel", args: "<id>", nargs: 1, mutates: true, summary: "Cancel a timed block",
		setup: func(fs *pflag.FlagSet) runFunc {
			return func(ctx context.Context, e *env, args []string) (any, error) {
				return result(e.client.CancelTimedBlock(ctx, args[0]))
			}
		},
	},
	{
		name: "logs", summary: "One page of the query log",
		setup: func(fs *pflag.FlagSet) runFunc {
			var q api.LogQuery
			fs.IntVar(&q.Page, "page", 0, "page number (from 1)")
			fs.IntVar(&q.PerPage, "per-page", 0, fmt.Sprintf("rows per page (max %d)", api.MaxLogsPerPage))
			fs.StringVar(&q.Domain, "domain", "", "domain substring")
			fs.StringVar(&q.Client, "client", "", "client IP")
			fs.StringVar(&q.Status, "status", "", "blocked, allowed or cached")
			fs.Int64Var(&q.From, "from", 0, "start (unix seconds)")
			fs.Int64Var(&q.To, "to", 0, "end (unix seconds)")
			return func(ctx context.Context, e *env, _ []string) (any, error) {
				return result(e.client.QueryLogs(ctx, q))
			}
		},
	},
	{
		name: "search", args: "<text>", nargs: 1, summary: "Search recent queries by domain",
		setup: func(fs *pflag.FlagSet) runFunc {
			hours := hoursFlag(fs)
			return func(ctx context.Context, e *env, args []string) (any, error) {
				return result(e.client.SearchLogs(ctx, args[0], *hours))
			}
		},
	},
	{
		name: "routes", offline: true, summary: "Dashboard pages",
		setup: func(fs *pflag.FlagSet) runFunc {
			return func(context.Context, *env, []string) (any, error) {
				return routes.All(), nil
			}
		},
	},
	{
		name: "link", args: "<route> [key=value...]", nargs: -1, offline: true, summary: "Print a dashboard URL",
		setup: func(fs *pflag.FlagSet) runFunc {
			return func(_ context.Context, e *env, args []string) (any, error) {
				params := make(map[string]string, len(args)-1)
				for _, kv := range args[1:] {
					k, v, ok := strings.Cut(kv, "=")
					if !ok || k == "" {
						return nil, apperrors.InvalidFormat("param", "key=value")
					}
					params[k] = v
				}
				return result(routes.Link(e.cfg.Dashboard.URL, args[0], params))
			}
		},
	},
	{
		name: "version", offline: true, summary: "Build information",
		setup: func(fs *pflag.FlagSet) runFunc {
			return func(context.Context, *env, []string) (any, error) {
				return version.Get(), nil
			}
		},
	},
}

func toggle(name string, enabled bool) *command {
	verb := "Disable"
	if enabled {
		verb = "Enable"
	}
	return &command{
		name: name, args: "<id>", nargs: 1, mutates: true, summary: verb + " a domain list entry",
		setup: func(fs *pflag.FlagSet) runFunc {
			return func(ctx context.Context, e *env, args []string) (any, error) {
				id, err := parseID(args[0])
				if err != nil {
					return nil, err
				}
				return result(e.client.ToggleDomain(ctx, id, enabled))
			}
		},
	}
}

func presetDomains(ctx context.Context, e *env, name string) ([]string, error) {
	presets, err := e.client.GetPresets(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := presets[name]
	if !ok {
		return nil, apperrors.NotFound("Preset", name)
	}
	domains := make([]string, 0, len(p.Domains))
	for _, d := range p.Domains {
		if d.Type == api.DomainTypeRegexBlack || d.Type == api.DomainTypeRegexWhite {
			continue
		}
		domains = append(domains, d.Domain)
	}
	return domains, nil
}
