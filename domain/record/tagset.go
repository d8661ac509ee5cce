package record

import (
	"sort"
	"strings"
)

// TagSet is a sorted, deduplicated set of lowercased tags. The zero value
// is an empty set.
type TagSet struct {
	tags []string
}

// NewTagSet builds a TagSet from raw tag strings, lowercasing, deduplicating,
// and sorting lexicographically.
func NewTagSet(raw ...string) TagSet {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return TagSet{tags: out}
}

// Strings returns a defensive copy of the tags in sorted order.
func (t TagSet) Strings() []string {
	return append([]string(nil), t.tags...)
}

// Len returns the number of tags.
func (t TagSet) Len() int { return len(t.tags) }

// Contains reports whether tag is a member.
func (t TagSet) Contains(tag string) bool {
	for _, v := range t.tags {
		if v == tag {
			return true
		}
	}
	return false
}
