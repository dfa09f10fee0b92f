// Package tabs translates between tab URLs and the (protocol, host) pairs
// the matcher works with. The popup owns the live tab: it sends the tab's
// URL with each request and navigates to whatever URL comes back, so the
// server never inspects tab content, only the URL's scheme and hostname.
package tabs

import (
	"fmt"
	"net/url"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
)

// Location is the slice of a tab URL that matching cares about.
type Location struct {
	Protocol string
	Host     string
}

// Parse extracts the protocol and host from a tab URL. Only http and
// https tabs participate in matching; anything else is rejected.
func Parse(rawURL string) (Location, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Location{}, fmt.Errorf("%w: parsing tab url: %v", domain.ErrInvalidInput, err)
	}
	if u.Scheme != domain.ProtocolHTTP && u.Scheme != domain.ProtocolHTTPS {
		return Location{}, fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidInput, u.Scheme)
	}
	if u.Hostname() == "" {
		return Location{}, fmt.Errorf("%w: tab url has no host", domain.ErrInvalidInput)
	}
	return Location{Protocol: u.Scheme, Host: u.Hostname()}, nil
}

// Rewrite returns rawURL with only its scheme and host replaced; path,
// query and fragment are untouched. An explicit port on the original URL
// is dropped: the target is identified by protocol and domain alone, and
// the popup rebuilds the location from exactly those two components.
func Rewrite(rawURL, protocol, targetDomain string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: parsing tab url: %v", domain.ErrInvalidInput, err)
	}
	if u.Scheme != domain.ProtocolHTTP && u.Scheme != domain.ProtocolHTTPS {
		return "", fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidInput, u.Scheme)
	}
	u.Scheme = protocol
	u.Host = targetDomain
	return u.String(), nil
}
