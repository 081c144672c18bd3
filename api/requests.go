package api

import (
	"strings"

	"golang.org/x/net/idna"

	"github.com/kbukum/piholedash/errors"
	"github.com/kbukum/piholedash/validation"
)

// Domain list names accepted by the backend.
const (
	DomainTypeBlacklist  = "blacklist"
	DomainTypeWhitelist  = "whitelist"
	DomainTypeRegexBlack = "regex_black"
	DomainTypeRegexWhite = "regex_white"
	DomainTypeWildcard   = "wildcard"
)

// DomainTypes lists every domain list name in backend order.
var DomainTypes = []string{
	DomainTypeBlacklist,
	DomainTypeWhitelist,
	DomainTypeRegexBlack,
	DomainTypeRegexWhite,
	DomainTypeWildcard,
}

// DefaultTimedBlockMinutes is the duration used when none is given.
const DefaultTimedBlockMinutes = 30

// AddDomainRequest is the body of POST /api/domains.
type AddDomainRequest struct {
	Domain  string  `json:"domain" validate:"required"`
	Type    string  `json:"type" validate:"oneof=blacklist whitelist regex_black regex_white wildcard"`
	Comment *string `json:"comment,omitempty"`
}

// IsRegex reports whether Domain is a regular expression rather than a name.
func (r AddDomainRequest) IsRegex() bool {
	return r.Type == DomainTypeRegexBlack || r.Type == DomainTypeRegexWhite
}

// Normalize applies the default list type, converts internationalized names
// to ASCII and validates the result. Regex entries are only trimmed.
func (r AddDomainRequest) Normalize() (AddDomainRequest, error) {
	r.Domain = strings.TrimSpace(r.Domain)
	if r.Type == "" {
		r.Type = DomainTypeBlacklist
	}
	if err := validation.Validate(r); err != nil {
		return r, err
	}
	if r.IsRegex() {
		return r, nil
	}
	ascii, err := NormalizeDomain(r.Domain)
	if err != nil {
		return r, err
	}
	r.Domain = ascii
	return r, nil
}

// ToggleDomainRequest is the body of PATCH /api/domains/{id}. It always
// encodes as exactly {"enabled":<bool>}.
type ToggleDomainRequest struct {
	Enabled bool `json:"enabled"`
}

// UpdateDeviceRequest is the body of PATCH /api/devices/{mac}.
type UpdateDeviceRequest struct {
	Nickname string  `json:"nickname" validate:"required"`
	Icon     *string `json:"icon,omitempty"`
}

// Validate checks the payload.
func (r UpdateDeviceRequest) Validate() error {
	return validation.Validate(r)
}

// TimedBlockRequest is the body of POST /api/timed-blocks. The backend
// creates one wildcard block per domain.
type TimedBlockRequest struct {
	Domains         []string `json:"domains" validate:"min=1,dive,required"`
	DurationMinutes int      `json:"duration_minutes" validate:"gte=1"`
}

// Normalize applies the default duration, converts every domain to ASCII
// and validates the result.
func (r TimedBlockRequest) Normalize() (TimedBlockRequest, error) {
	if r.DurationMinutes <= 0 {
		r.DurationMinutes = DefaultTimedBlockMinutes
	}
	domains := make([]string, 0, len(r.Domains))
	for _, d := range r.Domains {
		domains = append(domains, strings.TrimSpace(d))
	}
	r.Domains = domains
	if err := validation.Validate(r); err != nil {
		return r, err
	}
	for i, d := range r.Domains {
		ascii, err := NormalizeDomain(d)
		if err != nil {
			return r, err
		}
		r.Domains[i] = ascii
	}
	return r, nil
}

var domainProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// NormalizeDomain lowercases name, converts internationalized labels to
// punycode and checks the result is a valid DNS name.
func NormalizeDomain(name string) (string, error) {
	ascii, err := domainProfile.ToASCII(strings.TrimSuffix(strings.TrimSpace(name), "."))
	if err != nil {
		return "", errors.InvalidFormat("domain", "a valid domain name").WithCause(err)
	}
	if err := validation.New().Required("domain", ascii).DomainName("domain", ascii).Err(); err != nil {
		return "", err
	}
	return ascii, nil
}
