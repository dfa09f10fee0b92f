package domain

import "time"

// Protocols a variant may use. The popup form only ever offers these two.
const (
	ProtocolHTTP  = "http"
	ProtocolHTTPS = "https"
)

// MaxNameLength is the longest display name the popup form accepts.
const MaxNameLength = 30

// Variant is one named endpoint of a site: a display name plus the
// (protocol, domain) pair that identifies it.
type Variant struct {
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Domain   string `json:"domain"`
}

// VariantSet is the ordered group of variants representing all known
// environments of one logical site. Member order is creation order and is
// preserved through storage.
type VariantSet struct {
	ID        string    `json:"id"`
	Variants  []Variant `json:"variants"`
	CreatedAt time.Time `json:"created_at"`
}

// Collection is the full persisted list of variant sets for one profile.
// Set order is irrelevant to matching correctness but is kept stable for
// display and for the first-match-wins tie-break.
type Collection struct {
	Sets []VariantSet `json:"sets"`
}

// Clone returns a deep copy of the collection. Callers that hand a
// collection across the storage boundary use this so the stored state
// cannot be mutated through a retained reference.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return &Collection{}
	}
	out := &Collection{Sets: make([]VariantSet, len(c.Sets))}
	for i, set := range c.Sets {
		cp := set
		cp.Variants = make([]Variant, len(set.Variants))
		copy(cp.Variants, set.Variants)
		out.Sets[i] = cp
	}
	return out
}

// CreateVariantSetRequest is the request body for adding a variant set.
// All members of a set are entered in one submission.
type CreateVariantSetRequest struct {
	Variants []Variant `json:"variants"`
}

// MatchRequest carries the active tab's URL.
type MatchRequest struct {
	URL string `json:"url"`
}

// MatchResponse reports which set the tab belongs to and the switch
// targets to offer. Matched is null when the tab belongs to no set; that
// is a normal state, not an error.
type MatchResponse struct {
	Protocol string      `json:"protocol"`
	Host     string      `json:"host"`
	Matched  *VariantSet `json:"matched"`
	Others   []Variant   `json:"others"`
}

// SwitchRequest asks for the tab URL rewritten onto another variant.
type SwitchRequest struct {
	URL      string `json:"url"`
	Protocol string `json:"protocol"`
	Domain   string `json:"domain"`
}

// SwitchResponse carries the URL the popup should navigate the tab to.
type SwitchResponse struct {
	URL string `json:"url"`
}

// DeleteMatchedRequest identifies the set to delete by the tab URL that
// matches it.
type DeleteMatchedRequest struct {
	URL string `json:"url"`
}
