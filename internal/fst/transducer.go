package fst

import "sort"

type state struct {
	first int32 // index of the first outgoing arc
	count int32
	final bool
	out   int32 // output set index, -1 when not final
}

type arc struct {
	label  uint32
	target int32
}

type outputSet struct {
	outputs     [][]string
	includeOrig bool
}

// Match is the result of a successful lookup.
type Match struct {
	// Length is the number of input tokens consumed.
	Length int
	// Outputs are the output token sequences in weight order. They are shared
	// with the transducer and must not be modified.
	Outputs [][]string
	// IncludeOrig asks the consumer to keep the matched input tokens too.
	IncludeOrig bool
}

// Transducer is an immutable compiled synonym automaton. It is safe for
// concurrent use.
type Transducer struct {
	states  []state
	arcs    []arc
	outs    []outputSet
	root    int32
	syms    *symbols
	entries int
	maxLen  int
}

// Empty reports whether the transducer has no entries. Every lookup on an
// empty transducer misses.
func (t *Transducer) Empty() bool {
	return t == nil || t.root < 0
}

// Len returns the number of entries compiled in.
func (t *Transducer) Len() int {
	if t == nil {
		return 0
	}
	return t.entries
}

// NumStates returns the number of states after minimization.
func (t *Transducer) NumStates() int {
	if t == nil {
		return 0
	}
	return len(t.states)
}

// NumArcs returns the number of transitions.
func (t *Transducer) NumArcs() int {
	if t == nil {
		return 0
	}
	return len(t.arcs)
}

// NumSymbols returns the number of distinct input tokens.
func (t *Transducer) NumSymbols() int {
	if t == nil {
		return 0
	}
	return t.syms.len()
}

// MaxInputLength returns the token count of the longest input sequence.
func (t *Transducer) MaxInputLength() int {
	if t == nil {
		return 0
	}
	return t.maxLen
}

// LongestMatch finds the longest prefix of tokens that is an input
// sequence. It returns false if no prefix matches.
func (t *Transducer) LongestMatch(tokens []string) (Match, bool) {
	if t.Empty() {
		return Match{}, false
	}

	s := t.root
	best, bestOut := 0, int32(-1)
	for i, tok := range tokens {
		id, ok := t.syms.id(tok)
		if !ok {
			break
		}
		s = t.step(s, id)
		if s < 0 {
			break
		}
		if st := t.states[s]; st.final {
			best, bestOut = i+1, st.out
		}
	}
	if bestOut < 0 {
		return Match{}, false
	}
	return t.match(best, bestOut), true
}

// Get returns the entry for exactly tokens.
func (t *Transducer) Get(tokens []string) (Match, bool) {
	m, ok := t.LongestMatch(tokens)
	if !ok || m.Length != len(tokens) {
		return Match{}, false
	}
	return m, true
}

// Walk calls fn for every entry in sorted input order until fn returns false.
func (t *Transducer) Walk(fn func(input []string, m Match) bool) {
	if t.Empty() {
		return
	}
	var path []uint32
	var visit func(s int32) bool
	visit = func(s int32) bool {
		st := t.states[s]
		if st.final && !fn(t.tokens(path), t.match(len(path), st.out)) {
			return false
		}
		for _, a := range t.arcs[st.first : st.first+st.count] {
			path = append(path, a.label)
			if !visit(a.target) {
				return false
			}
			path = path[:len(path)-1]
		}
		return true
	}
	visit(t.root)
}

// step follows the arc labelled id out of s, or returns -1.
func (t *Transducer) step(s int32, id uint32) int32 {
	st := t.states[s]
	arcs := t.arcs[st.first : st.first+st.count]
	i := sort.Search(len(arcs), func(i int) bool { return arcs[i].label >= id })
	if i < len(arcs) && arcs[i].label == id {
		return arcs[i].target
	}
	return -1
}

func (t *Transducer) match(length int, out int32) Match {
	o := t.outs[out]
	return Match{Length: length, Outputs: o.outputs, IncludeOrig: o.includeOrig}
}

func (t *Transducer) tokens(key []uint32) []string {
	out := make([]string, len(key))
	for i, id := range key {
		out[i] = t.syms.name(id)
	}
	return out
}
