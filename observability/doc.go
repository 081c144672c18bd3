// Package observability wires OpenTelemetry tracing and metrics for the
// dashboard client.
//
// Setup installs global OTLP/HTTP tracer and meter providers when telemetry
// is enabled and returns a shutdown function:
//
//	shutdown, err := observability.Setup(ctx, cfg, "piholectl", version.Short(), "production")
//	defer shutdown(ctx)
//
// The transport records one span and one set of client metrics per call:
//
//	m, err := observability.NewClientMetrics(observability.Meter(observability.InstrumentationName))
//	m.RecordEnd(ctx, "GET", "/api/stats/summary", 200, observability.OutcomeOK, elapsed)
package observability
