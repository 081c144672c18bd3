// Package errors provides the structured error type used for failures that
// originate on the client side of the dashboard API: invalid arguments,
// payloads rejected before a request is issued, and configuration problems.
//
// Failures reported by the backend are not AppErrors; they surface as
// *httpclient.StatusError so that their message keeps the exact
// "API error <status>: <body>" form callers match on.
package errors
