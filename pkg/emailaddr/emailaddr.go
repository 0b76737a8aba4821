// Package emailaddr validates email addresses against a pragmatic subset
// of RFC 5322: standard local-part symbols, multi-label domains, and the
// length limits imposed by RFC 5321.
package emailaddr

import (
	"regexp"
	"strings"
)

const (
	maxAddressLen = 254
	maxLocalLen   = 64
	maxDomainLen  = 253
)

// addressRe is a simplified RFC 5322 pattern. Domain labels are limited to
// 63 characters and may not start or end with a hyphen.
var addressRe = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// IsValid reports whether addr is an acceptable email address.
//
// Beyond the pattern match, it enforces the structural rules the pattern
// alone cannot express: total length <= 254, exactly one "@", local part
// 1-64 characters, domain 1-253 characters with at least one dot that is
// neither leading nor trailing, and no consecutive dots anywhere.
func IsValid(addr string) bool {
	if addr == "" || len(addr) > maxAddressLen {
		return false
	}

	local, domain, ok := strings.Cut(addr, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}

	if len(local) == 0 || len(local) > maxLocalLen {
		return false
	}

	if len(domain) == 0 || len(domain) > maxDomainLen {
		return false
	}

	// A top-level domain is required; bare hostnames are rejected.
	if !strings.Contains(domain, ".") {
		return false
	}

	if strings.Contains(addr, "..") {
		return false
	}

	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}

	return addressRe.MatchString(addr)
}

// Validate checks a batch of addresses and returns the ones that failed.
// Each address is trimmed before validation, but failures are reported with
// the original value so callers can echo exactly what was submitted.
// An empty result means every address is valid.
func Validate(addrs []string) []string {
	var invalid []string
	for _, addr := range addrs {
		if !IsValid(strings.TrimSpace(addr)) {
			invalid = append(invalid, addr)
		}
	}
	return invalid
}
