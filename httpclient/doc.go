// Package httpclient is the transport primitive of the dashboard client.
//
// Every call resolves the target as BaseURL + path (plain concatenation)
// followed by the encoded Query, sends Content-Type: application/json unless
// the caller overrides it, issues exactly one HTTP request and normalizes the
// outcome:
//
//   - 2xx: the raw body is returned and can be decoded as JSON
//   - non-2xx: *StatusError whose message is "API error <status>: <body>"
//   - transport failure: the error from net/http, unmodified
//
// There is no retry, caching or de-duplication in this package.
//
//	c, err := httpclient.New(httpclient.Config{BaseURL: "http://pi.hole:8080"})
//	resp, err := c.Request(ctx, "/api/devices")
//	devices, err := httpclient.DecodeJSON[[]Device](resp)
package httpclient
