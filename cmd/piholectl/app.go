package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/piholedash/api"
	"github.com/kbukum/piholedash/httpclient"
	"github.com/kbukum/piholedash/logger"
	"github.com/kbukum/piholedash/observability"
	"github.com/kbukum/piholedash/resilience"
	"github.com/kbukum/piholedash/version"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

// env is what a command runs against.
type env struct {
	cfg    *Config
	client *api.Client
	log    *logger.Logger
}

// retry runs fn with the configured number of extra attempts.
func (e *env) retry(ctx context.Context, op string, fn func(context.Context) (any, error)) (any, error) {
	cfg := resilience.Attempts(e.cfg.Retries)
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		e.log.Warn("retrying", logger.Fields(
			logger.FieldOperation, op,
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
			"backoff", backoff.String(),
		))
	}
	return resilience.Retry(ctx, cfg, fn)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var o overrides
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.StringVarP(&o.configFile, "config", "c", "", "path to config.yml")
	fs.StringVar(&o.envFile, "env-file", "", "path to a .env file")
	fs.StringVar(&o.baseURL, "base-url", "", "dashboard API base URL (API_BASE_URL)")
	fs.StringVar(&o.token, "token", "", "bearer token (API_TOKEN)")
	fs.DurationVar(&o.timeout, "timeout", 0, "per-call timeout")
	fs.IntVar(&o.retries, "retries", 0, "extra attempts for failed read-only calls")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "log every request to stderr")
	fs.Usage = func() { usage(stderr, fs) }
	o.set = fs.Changed

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		usage(stderr, fs)
		return exitUsage
	}

	cmd, ok := lookup(fs.Arg(0))
	if !ok {
		fmt.Fprintf(stderr, "%s: unknown command %q\n", serviceName, fs.Arg(0))
		usage(stderr, fs)
		return exitUsage
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)
		return exitError
	}

	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, stderr)
	logger.SetGlobalLogger(log)

	e := &env{cfg: cfg, log: log}
	if !cmd.offline {
		shutdown, err := observability.Setup(ctx, cfg.Telemetry, cfg.Name, version.Get().Short(), cfg.Environment)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)
			return exitError
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				log.Warn("telemetry shutdown failed", logger.Fields(logger.FieldError, err.Error()))
			}
		}()

		e.client, err = newClient(cfg, log)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)
			return exitError
		}
	}

	out, err := cmd.execute(ctx, e, fs.Args()[1:], stderr)
	switch {
	case errors.Is(err, errHelp):
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	case err != nil:
		log.Debug("command failed", logger.Fields(logger.FieldOperation, cmd.name, logger.FieldError, err.Error()))
		fmt.Fprintf(stderr, "%s %s: %v\n", serviceName, cmd.name, err)
		return exitError
	}
	if err := writeJSON(stdout, out); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)
		return exitError
	}
	return exitOK
}

func newClient(cfg *Config, log *logger.Logger) (*api.Client, error) {
	if cfg.API.BaseURL == "" {
		return nil, errors.New("api.base_url is required (set API_BASE_URL or --base-url)")
	}
	metrics, err := observability.NewClientMetrics(observability.Meter(serviceName))
	if err != nil {
		return nil, err
	}
	return api.New(cfg.API,
		httpclient.WithLogger(log.WithComponent("httpclient")),
		httpclient.WithMetrics(metrics),
	)
}

func writeJSON(w io.Writer, v any) error {
	if text, ok := v.(string); ok {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s [global flags] <command> [flags] [args]\n\nCommands:\n", serviceName)
	width := 0
	for _, c := range commands {
		width = max(width, len(c.name))
	}
	for _, c := range commands {
		fmt.Fprintf(w, "  %-*s  %s\n", width, c.name, c.summary)
	}
	fmt.Fprintf(w, "\nGlobal flags:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nRun '%s <command> --help' for command flags.\n", serviceName)
}

// positional checks the argument count against the command's arity.
func positional(c *command, args []string) error {
	switch {
	case c.nargs >= 0 && len(args) != c.nargs:
		return fmt.Errorf("expected %d argument(s) %s, got %d", c.nargs, strings.TrimSpace(c.args), len(args))
	case c.nargs < 0 && len(args) < -c.nargs:
		return fmt.Errorf("expected at least %d argument(s) %s", -c.nargs, strings.TrimSpace(c.args))
	}
	return nil
}
