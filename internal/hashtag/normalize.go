package hashtag

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxTags is the per-post tag limit used when none is configured.
const DefaultMaxTags = 10

// Normalize returns the canonical form of tag: surrounding whitespace
// trimmed, NFC, lower case, inner whitespace runs replaced by "_".
func Normalize(tag string) string {
	t := norm.NFC.String(strings.TrimSpace(tag))
	// Casers keep state between calls and must not be shared.
	t = cases.Lower(language.Und).String(t)
	return strings.Join(strings.Fields(t), "_")
}

// NormalizeSet normalizes tags, drops empty results and duplicates (first
// occurrence wins) and keeps at most max tags. max < 1 means
// DefaultMaxTags.
func NormalizeSet(tags []string, max int) []string {
	if max < 1 {
		max = DefaultMaxTags
	}
	out := make([]string, 0, min(len(tags), max))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if len(out) == max {
			break
		}
		n := Normalize(tag)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Diff is the set of changes that turns the stored tags of a post into
// the requested ones.
type Diff struct {
	Insert []string `json:"insert"`
	Delete []string `json:"delete"`
}

// IsEmpty reports whether d changes nothing.
func (d Diff) IsEmpty() bool {
	return len(d.Insert) == 0 && len(d.Delete) == 0
}

// Plan compares the normalized requested set with stored. Insert keeps
// request order and Delete keeps stored order.
func Plan(requested, stored []string, max int) Diff {
	want := NormalizeSet(requested, max)

	have := make(map[string]bool, len(stored))
	for _, s := range stored {
		have[s] = true
	}
	wanted := make(map[string]bool, len(want))
	for _, w := range want {
		wanted[w] = true
	}

	d := Diff{Insert: []string{}, Delete: []string{}}
	for _, w := range want {
		if !have[w] {
			d.Insert = append(d.Insert, w)
		}
	}
	dropped := make(map[string]bool)
	for _, s := range stored {
		if !wanted[s] && !dropped[s] {
			dropped[s] = true
			d.Delete = append(d.Delete, s)
		}
	}
	return d
}
