package synonym

import (
	"strings"

	"github.com/Aman-CERP/indexsyn/internal/fst"
)

// Map is a compiled synonym dictionary. It is immutable and safe for
// concurrent use.
type Map struct {
	fst        *fst.Transducer
	words      []string
	maxContext int
}

// EmptyMap returns a map without entries.
func EmptyMap() *Map {
	t, _ := fst.NewBuilder().Build()
	return &Map{fst: t}
}

// Empty reports whether the map has no entries. Filters over an empty map
// pass tokens through unchanged.
func (m *Map) Empty() bool {
	return m == nil || m.fst.Empty()
}

// Lookup finds the longest prefix of tokens with synonyms.
func (m *Map) Lookup(tokens []string) (fst.Match, bool) {
	if m.Empty() {
		return fst.Match{}, false
	}
	return m.fst.LongestMatch(tokens)
}

// Synonyms returns the outputs for exactly the space-separated tokens of
// text, each output rendered with single spaces.
func (m *Map) Synonyms(text string) ([]string, bool) {
	tokens := strings.Fields(text)
	if m.Empty() || len(tokens) == 0 {
		return nil, false
	}
	match, ok := m.fst.Get(tokens)
	if !ok {
		return nil, false
	}
	out := make([]string, len(match.Outputs))
	for i, o := range match.Outputs {
		out[i] = strings.Join(o, " ")
	}
	return out, true
}

// Len returns the number of input keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return m.fst.Len()
}

// Words returns the distinct outputs, tokens separated by spaces.
func (m *Map) Words() []string {
	if m == nil {
		return nil
	}
	return m.words
}

// MaxHorizontalContext returns the most tokens any input or output spans.
func (m *Map) MaxHorizontalContext() int {
	if m == nil {
		return 0
	}
	return m.maxContext
}

// Transducer exposes the compiled automaton.
func (m *Map) Transducer() *fst.Transducer {
	if m == nil {
		return nil
	}
	return m.fst
}

// Walk visits every key in sorted order.
func (m *Map) Walk(fn func(input []string, match fst.Match) bool) {
	if m.Empty() {
		return
	}
	m.fst.Walk(fn)
}
