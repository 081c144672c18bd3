// Package validation checks request arguments and payloads before they are
// sent to the dashboard backend.
//
// Struct tag validation uses go-playground/validator with an extra "dnsname"
// tag backed by github.com/miekg/dns.
//
// Programmatic validation collects field errors fluently:
//
//	err := validation.New().Required("q", q).Min("hours", hours, 1).Err()
//
// Both forms report failures as *errors.AppError with code INVALID_INPUT and
// a "fields" detail listing every offending field.
package validation
