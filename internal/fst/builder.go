// Package fst compiles synonym entries into a minimal acyclic transducer
// over token sequences and answers longest-match lookups against it.
//
// States and arcs live in flat slices addressed by index. The graph is
// written once by Builder.Build and never modified afterwards.
package fst

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEmptyInput is returned for an entry without input tokens.
	ErrEmptyInput = errors.New("entry has no input tokens")
	// ErrDuplicateInput is returned when two entries share an input sequence.
	ErrDuplicateInput = errors.New("duplicate input sequence")
)

// Output is one output token sequence. Weight orders the outputs of an
// entry; lower comes first.
type Output struct {
	Terms  []string
	Weight int
}

// Entry maps one input token sequence to its outputs.
type Entry struct {
	Input       []string
	Outputs     []Output
	IncludeOrig bool
}

// Builder collects entries for a single Build.
type Builder struct {
	entries []Entry
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add queues an entry. Entries may be added in any order.
func (b *Builder) Add(e Entry) error {
	if len(e.Input) == 0 {
		return ErrEmptyInput
	}
	b.entries = append(b.entries, e)
	return nil
}

// Len returns the number of queued entries.
func (b *Builder) Len() int {
	return len(b.entries)
}

// keyed is an entry with its input translated to symbol ids.
type keyed struct {
	key []uint32
	out int32
}

// Build sorts the entries and compiles them in a single pass. Zero entries
// yield an empty transducer.
func (b *Builder) Build() (*Transducer, error) {
	var all []string
	for _, e := range b.entries {
		all = append(all, e.Input...)
	}
	syms, err := newSymbols(all)
	if err != nil {
		return nil, err
	}

	t := &Transducer{root: -1, syms: syms, entries: len(b.entries)}
	outIndex := make(map[string]int32)

	keys := make([]keyed, 0, len(b.entries))
	for _, e := range b.entries {
		key := make([]uint32, len(e.Input))
		for i, tok := range e.Input {
			id, _ := syms.id(tok)
			key[i] = id
		}
		if len(key) > t.maxLen {
			t.maxLen = len(key)
		}
		keys = append(keys, keyed{key: key, out: t.internOutputs(e, outIndex)})
	}
	sort.Slice(keys, func(i, j int) bool {
		return compareKeys(keys[i].key, keys[j].key) < 0
	})
	for i := 1; i < len(keys); i++ {
		if compareKeys(keys[i-1].key, keys[i].key) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateInput, t.tokens(keys[i].key))
		}
	}

	if len(keys) > 0 {
		c := newCompiler(t)
		for _, k := range keys {
			c.add(k.key, k.out)
		}
		t.root = c.finish()
	}
	return t, nil
}

// internOutputs stores the output set of e, sharing identical sets.
func (t *Transducer) internOutputs(e Entry, index map[string]int32) int32 {
	outs := append([]Output(nil), e.Outputs...)
	sort.SliceStable(outs, func(i, j int) bool { return outs[i].Weight < outs[j].Weight })

	sig := make([]byte, 0, 8)
	if e.IncludeOrig {
		sig = append(sig, 1)
	} else {
		sig = append(sig, 0)
	}
	sig = binary.LittleEndian.AppendUint32(sig, uint32(len(outs)))
	terms := make([][]string, len(outs))
	for i, o := range outs {
		terms[i] = o.Terms
		sig = binary.LittleEndian.AppendUint32(sig, uint32(len(o.Terms)))
		for _, term := range o.Terms {
			sig = binary.LittleEndian.AppendUint32(sig, uint32(len(term)))
			sig = append(sig, term...)
		}
	}

	if id, ok := index[string(sig)]; ok {
		return id
	}
	id := int32(len(t.outs))
	t.outs = append(t.outs, outputSet{outputs: terms, includeOrig: e.IncludeOrig})
	index[string(sig)] = id
	return id
}

func compareKeys(a, b []uint32) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// node is a state still under construction.
type node struct {
	arcs  []arc
	final bool
	out   int32
}

// compiler performs incremental construction of a minimal acyclic automaton
// from keys given in sorted order. path[i] is the open node reached after i
// symbols of the previous key; everything off that path is frozen.
type compiler struct {
	t        *Transducer
	path     []*node
	prev     []uint32
	registry map[string]int32
}

func newCompiler(t *Transducer) *compiler {
	return &compiler{
		t:        t,
		path:     []*node{{out: -1}},
		registry: make(map[string]int32),
	}
}

func (c *compiler) add(key []uint32, out int32) {
	p := 0
	for p < len(key) && p < len(c.prev) && key[p] == c.prev[p] {
		p++
	}
	c.freezeTo(p)
	for range key[p:] {
		c.path = append(c.path, &node{out: -1})
	}
	last := c.path[len(key)]
	last.final = true
	last.out = out
	c.prev = key
}

// freezeTo freezes open nodes deeper than depth, linking each to its parent.
func (c *compiler) freezeTo(depth int) {
	for i := len(c.path) - 1; i > depth; i-- {
		id := c.freeze(c.path[i])
		parent := c.path[i-1]
		parent.arcs = append(parent.arcs, arc{label: c.prev[i-1], target: id})
	}
	c.path = c.path[:depth+1]
}

func (c *compiler) finish() int32 {
	c.freezeTo(0)
	return c.freeze(c.path[0])
}

// freeze returns the id of an equivalent frozen state, adding n if none exists.
func (c *compiler) freeze(n *node) int32 {
	sig := signature(n)
	if id, ok := c.registry[sig]; ok {
		return id
	}
	t := c.t
	id := int32(len(t.states))
	t.states = append(t.states, state{
		first: int32(len(t.arcs)),
		count: int32(len(n.arcs)),
		final: n.final,
		out:   n.out,
	})
	t.arcs = append(t.arcs, n.arcs...)
	c.registry[sig] = id
	return id
}

func signature(n *node) string {
	buf := make([]byte, 0, 5+8*len(n.arcs))
	if n.final {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(n.out))
	for _, a := range n.arcs {
		buf = binary.LittleEndian.AppendUint32(buf, a.label)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(a.target))
	}
	return string(buf)
}
