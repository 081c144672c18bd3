// Package api is the typed access layer for the dashboard backend.
//
// Each backend operation has a pure endpoint builder (SummaryEndpoint,
// ToggleDomainEndpoint, ...) that produces an Endpoint descriptor with path
// parameters escaped and documented defaults applied, and a Client method
// that issues exactly one call through httpclient and decodes the JSON
// result:
//
//	c, err := api.New(httpclient.Config{BaseURL: "http://pi.hole:8080"})
//	summary, err := c.GetSummary(ctx, 0) // hours defaults to 24
//
// Numeric arguments that are zero or negative select the default (hours=24,
// limit=10, days=7). Payloads are validated before any request is sent;
// validation failures are *errors.AppError values and never reach the
// network. HTTP failures are *httpclient.StatusError values whose message is
// "API error <status>: <body>". Transport failures pass through unmodified.
//
// Nothing in this package retries, caches or de-duplicates calls.
package api
