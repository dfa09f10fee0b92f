// Package match implements the variant matching rules: given the active
// tab's protocol and host, decide which stored variant set the tab belongs
// to and which of its members to offer as switch targets.
//
// Matching is a linear scan over a small, user-curated list, so no index
// is kept. The scan is deterministic: collection order, first match wins.
package match

import (
	"strings"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
)

// Matcher holds the comparison options. The zero value compares hosts
// case-sensitively, the behavior the popup has always had. Domain names
// are conventionally case-insensitive; FoldHost enables folded comparison
// without changing the default.
type Matcher struct {
	FoldHost bool
}

// FindMatchingSet scans the collection in order and returns the first set
// containing a variant whose (protocol, domain) equals the tab's pair.
// If duplicate pairs exist across sets, the earlier set always wins, so
// the result is reproducible rather than arbitrary. Returns false when the
// tab belongs to no set; that is a normal state, not an error.
func (m Matcher) FindMatchingSet(protocol, host string, c *domain.Collection) (*domain.VariantSet, bool) {
	if c == nil {
		return nil, false
	}
	host = m.fold(host)
	for i := range c.Sets {
		for _, v := range c.Sets[i].Variants {
			if v.Protocol == protocol && m.fold(v.Domain) == host {
				return &c.Sets[i], true
			}
		}
	}
	return nil, false
}

// OtherVariants returns every member of set whose (protocol, domain) pair
// differs from the tab's, preserving insertion order. A nil set yields no
// variants.
func (m Matcher) OtherVariants(set *domain.VariantSet, protocol, host string) []domain.Variant {
	if set == nil {
		return nil
	}
	host = m.fold(host)
	others := make([]domain.Variant, 0, len(set.Variants))
	for _, v := range set.Variants {
		if v.Protocol == protocol && m.fold(v.Domain) == host {
			continue
		}
		others = append(others, v)
	}
	return others
}

func (m Matcher) fold(host string) string {
	if m.FoldHost {
		return strings.ToLower(host)
	}
	return host
}
