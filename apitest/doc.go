// Package apitest provides an in-memory fake of the dashboard backend for
// tests and examples.
//
// The fake serves every route the api package calls from a gin engine behind
// an httptest.Server, computes statistics from a fixture query log, records
// every request it receives and can be told to fail the next calls:
//
//	backend := apitest.NewServer(t) // started, stopped on t.Cleanup
//	client, _ := api.New(httpclient.Config{BaseURL: backend.URL()})
//	backend.FailNext(http.StatusServiceUnavailable, "busy")
//
// Validation failures answer like the real backend with {"detail": "..."}.
package apitest
