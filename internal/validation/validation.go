// Package validation checks candidate variants before they are persisted.
// The rules mirror the popup form constraints: an enumerated protocol, a
// bare host with no scheme or path, and a short display name.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
)

// ValidateProtocol validates that a protocol is one of the enumerated
// values. The comparison is exact; the form only emits lowercase values.
func ValidateProtocol(protocol string) error {
	if protocol != domain.ProtocolHTTP && protocol != domain.ProtocolHTTPS {
		return fmt.Errorf("protocol must be %q or %q", domain.ProtocolHTTP, domain.ProtocolHTTPS)
	}
	return nil
}

// ValidateDomain validates a variant's domain: a non-empty host string
// carrying neither a scheme separator nor a path separator.
func ValidateDomain(d string) error {
	if d == "" {
		return fmt.Errorf("domain must not be empty")
	}
	if strings.Contains(d, "://") {
		return fmt.Errorf("domain must not contain a scheme separator")
	}
	if strings.Contains(d, "/") {
		return fmt.Errorf("domain must not contain a path separator")
	}
	return nil
}

// ValidateName validates a variant's display name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if utf8.RuneCountInString(name) > domain.MaxNameLength {
		return fmt.Errorf("name must be at most %d characters", domain.MaxNameLength)
	}
	return nil
}

// ValidateVariants checks each candidate variant in order and stops at the
// first failure, reporting the 1-based position of the failing variant and
// the offending field. Per variant the rules run in a fixed order:
// protocol, domain, name. Any failure aborts the whole add operation; no
// partial set is ever persisted.
func ValidateVariants(variants []domain.Variant) *ValidationError {
	if len(variants) == 0 {
		return NewValidationError("variants", "", "a variant set needs at least one variant")
	}
	for i, v := range variants {
		pos := i + 1
		if err := ValidateProtocol(v.Protocol); err != nil {
			return NewValidationError(fmt.Sprintf("variants[%d].protocol", pos), v.Protocol, err.Error())
		}
		if err := ValidateDomain(v.Domain); err != nil {
			return NewValidationError(fmt.Sprintf("variants[%d].domain", pos), v.Domain, err.Error())
		}
		if err := ValidateName(v.Name); err != nil {
			return NewValidationError(fmt.Sprintf("variants[%d].name", pos), v.Name, err.Error())
		}
	}
	return nil
}
