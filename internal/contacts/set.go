package contacts

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Set holds the contact evidence collected for one domain. All four
// categories are deduplicated, sorted, and never nil. Merging is a
// per-category union, so a Set only ever grows.
type Set struct {
	Emails  []string `json:"emails"`
	Phones  []string `json:"phones"`
	Socials []string `json:"socials"`
	Pages   []string `json:"contact_pages"`
}

// NewSet builds a normalized Set from raw category values
func NewSet(emails, phones, socials, pages []string) Set {
	return Set{
		Emails:  normalize(emails),
		Phones:  normalize(phones),
		Socials: normalize(socials),
		Pages:   normalize(pages),
	}
}

// Union returns the per-category set union of s and other. It is
// commutative and idempotent: merge order never changes the outcome.
func (s Set) Union(other Set) Set {
	return Set{
		Emails:  unionSlices(s.Emails, other.Emails),
		Phones:  unionSlices(s.Phones, other.Phones),
		Socials: unionSlices(s.Socials, other.Socials),
		Pages:   unionSlices(s.Pages, other.Pages),
	}
}

// MarshalText encodes the Set for storage
func (s Set) MarshalText() ([]byte, error) {
	data, err := json.Marshal(NewSet(s.Emails, s.Phones, s.Socials, s.Pages))
	if err != nil {
		return nil, fmt.Errorf("failed to encode contacts: %w", err)
	}
	return data, nil
}

// ParseSet decodes a stored Set. Empty input and absent categories decode
// to empty slices, never nil.
func ParseSet(data []byte) (Set, error) {
	if len(data) == 0 {
		return NewSet(nil, nil, nil, nil), nil
	}

	var s Set
	if err := json.Unmarshal(data, &s); err != nil {
		return Set{}, fmt.Errorf("failed to decode contacts: %w", err)
	}
	return NewSet(s.Emails, s.Phones, s.Socials, s.Pages), nil
}

// normalize sorts and deduplicates, mapping nil to an empty slice
func normalize(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func unionSlices(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return normalize(merged)
}
