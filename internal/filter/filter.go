// Package filter applies compiled synonym maps to token streams and builds
// those maps on demand for each configured analysis chain.
package filter

import (
	"strings"

	"github.com/Aman-CERP/indexsyn/internal/synonym"
)

// Name is the token filter name under which the synonym filter registers.
const Name = "index_synonym_graph"

// Filter rewrites token sequences with a synonym map.
type Filter struct {
	m *synonym.Map
}

// New returns a filter over m. A nil or empty map passes tokens through.
func New(m *synonym.Map) *Filter {
	return &Filter{m: m}
}

// Map returns the underlying synonym map.
func (f *Filter) Map() *synonym.Map {
	return f.m
}

// PassThrough reports whether the filter leaves every stream unchanged.
func (f *Filter) PassThrough() bool {
	return f.m.Empty()
}

// Apply scans tokens left to right, replacing the longest matching span at
// each position with its synonyms. Every element of the result lists the
// alternatives for one span; multi-token alternatives are space-joined.
// Unmatched tokens stand alone.
func (f *Filter) Apply(tokens []string) [][]string {
	out := make([][]string, 0, len(tokens))
	if f.PassThrough() {
		for _, tok := range tokens {
			out = append(out, []string{tok})
		}
		return out
	}

	for i := 0; i < len(tokens); {
		match, ok := f.m.Lookup(tokens[i:])
		if !ok {
			out = append(out, []string{tokens[i]})
			i++
			continue
		}

		alts := make([]string, 0, len(match.Outputs)+1)
		seen := make(map[string]bool, len(match.Outputs)+1)
		add := func(s string) {
			if !seen[s] {
				seen[s] = true
				alts = append(alts, s)
			}
		}
		if match.IncludeOrig {
			add(strings.Join(tokens[i:i+match.Length], " "))
		}
		for _, o := range match.Outputs {
			add(strings.Join(o, " "))
		}
		out = append(out, alts)
		i += match.Length
	}
	return out
}
