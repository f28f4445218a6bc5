package fst

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func out(w int, terms ...string) Output {
	return Output{Terms: terms, Weight: w}
}

func build(t *testing.T, entries ...Entry) *Transducer {
	t.Helper()
	b := NewBuilder()
	for _, e := range entries {
		require.NoError(t, b.Add(e))
	}
	tr, err := b.Build()
	require.NoError(t, err)
	return tr
}

func TestBuild_EmptyTransducer(t *testing.T) {
	// Given: no entries
	tr, err := NewBuilder().Build()

	// Then: a well-defined empty value that never matches
	require.NoError(t, err)
	assert.True(t, tr.Empty())
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 0, tr.NumArcs())

	_, ok := tr.LongestMatch([]string{"anything"})
	assert.False(t, ok)
	_, ok = tr.LongestMatch(nil)
	assert.False(t, ok)

	walked := 0
	tr.Walk(func([]string, Match) bool { walked++; return true })
	assert.Zero(t, walked)
}

func TestNilTransducer_IsEmpty(t *testing.T) {
	var tr *Transducer
	assert.True(t, tr.Empty())
	_, ok := tr.LongestMatch([]string{"a"})
	assert.False(t, ok)
}

func TestAdd_RejectsEmptyInput(t *testing.T) {
	err := NewBuilder().Add(Entry{Outputs: []Output{out(0, "x")}})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestBuild_RejectsDuplicateInput(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Add(Entry{Input: []string{"a", "b"}, Outputs: []Output{out(0, "x")}}))
	require.NoError(t, b.Add(Entry{Input: []string{"a", "b"}, Outputs: []Output{out(0, "y")}}))

	_, err := b.Build()
	assert.True(t, errors.Is(err, ErrDuplicateInput))
}

func TestLongestMatch_PrefersLongestKey(t *testing.T) {
	// Given: overlapping keys "new", "new york", "new york city"
	tr := build(t,
		Entry{Input: []string{"new", "york", "city"}, Outputs: []Output{out(0, "nyc")}},
		Entry{Input: []string{"new"}, Outputs: []Output{out(0, "novel")}},
		Entry{Input: []string{"new", "york"}, Outputs: []Output{out(0, "ny")}},
	)

	tests := []struct {
		tokens []string
		length int
		want   string
	}{
		{[]string{"new", "york", "city", "hall"}, 3, "nyc"},
		{[]string{"new", "york", "state"}, 2, "ny"},
		{[]string{"new", "jersey"}, 1, "novel"},
		{[]string{"new"}, 1, "novel"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.tokens), func(t *testing.T) {
			m, ok := tr.LongestMatch(tt.tokens)
			require.True(t, ok)
			assert.Equal(t, tt.length, m.Length)
			assert.Equal(t, [][]string{{tt.want}}, m.Outputs)
		})
	}
}

func TestLongestMatch_NoMatch(t *testing.T) {
	tr := build(t, Entry{Input: []string{"new", "york"}, Outputs: []Output{out(0, "ny")}})

	for _, tokens := range [][]string{{"old"}, {"york"}, {"new"}, {"new", "jersey"}, {}} {
		_, ok := tr.LongestMatch(tokens)
		assert.False(t, ok, "%v", tokens)
	}
}

func TestGet_ExactOnly(t *testing.T) {
	tr := build(t, Entry{Input: []string{"a"}, Outputs: []Output{out(0, "b")}})

	_, ok := tr.Get([]string{"a"})
	assert.True(t, ok)
	_, ok = tr.Get([]string{"a", "c"})
	assert.False(t, ok)
}

func TestOutputs_OrderedByWeight(t *testing.T) {
	tr := build(t, Entry{
		Input:       []string{"quick"},
		Outputs:     []Output{out(2, "rapid"), out(0, "fast"), out(1, "speedy")},
		IncludeOrig: true,
	})

	m, ok := tr.LongestMatch([]string{"quick"})
	require.True(t, ok)
	assert.True(t, m.IncludeOrig)
	assert.Equal(t, [][]string{{"fast"}, {"speedy"}, {"rapid"}}, m.Outputs)
}

func TestBuild_SharesSuffixes(t *testing.T) {
	// Given: keys that differ only in their first token and share outputs
	shared := []Output{out(0, "x")}
	tr := build(t,
		Entry{Input: []string{"a", "tail"}, Outputs: shared},
		Entry{Input: []string{"b", "tail"}, Outputs: shared},
		Entry{Input: []string{"c", "tail"}, Outputs: shared},
	)

	// Then: root, one shared middle state and one shared final state
	assert.Equal(t, 3, tr.NumStates())
	assert.Equal(t, 4, tr.NumArcs())
	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, 4, tr.NumSymbols())
	assert.Equal(t, 2, tr.MaxInputLength())
}

func TestBuild_DistinctOutputsNotMerged(t *testing.T) {
	tr := build(t,
		Entry{Input: []string{"a"}, Outputs: []Output{out(0, "x")}},
		Entry{Input: []string{"b"}, Outputs: []Output{out(0, "y")}},
	)

	ma, _ := tr.Get([]string{"a"})
	mb, _ := tr.Get([]string{"b"})
	assert.Equal(t, [][]string{{"x"}}, ma.Outputs)
	assert.Equal(t, [][]string{{"y"}}, mb.Outputs)
	assert.Equal(t, 3, tr.NumStates())
}

func TestBuild_OutputSetsWithSeparatorBytesStayDistinct(t *testing.T) {
	tests := []struct {
		name string
		x, y []Output
	}{
		{
			name: "0xff moved across terms",
			x:    []Output{out(0, "a\xff"), out(1, "b")},
			y:    []Output{out(0, "a"), out(1, "\xffb")},
		},
		{
			name: "nul inside a term",
			x:    []Output{out(0, "a\x00b")},
			y:    []Output{out(0, "a", "b")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: two keys whose output sets differ only in byte layout
			tr := build(t,
				Entry{Input: []string{"x"}, Outputs: tt.x},
				Entry{Input: []string{"y"}, Outputs: tt.y},
			)

			// Then: each key keeps its own outputs
			mx, ok := tr.Get([]string{"x"})
			require.True(t, ok)
			my, ok := tr.Get([]string{"y"})
			require.True(t, ok)
			for i, o := range tt.x {
				assert.Equal(t, o.Terms, mx.Outputs[i])
			}
			for i, o := range tt.y {
				assert.Equal(t, o.Terms, my.Outputs[i])
			}
		})
	}
}

func TestWalk_SortedOrder(t *testing.T) {
	tr := build(t,
		Entry{Input: []string{"b"}, Outputs: []Output{out(0, "1")}},
		Entry{Input: []string{"a", "z"}, Outputs: []Output{out(0, "2")}},
		Entry{Input: []string{"a"}, Outputs: []Output{out(0, "3")}},
	)

	var keys [][]string
	tr.Walk(func(input []string, _ Match) bool {
		keys = append(keys, input)
		return true
	})
	assert.Equal(t, [][]string{{"a"}, {"a", "z"}, {"b"}}, keys)
}

func TestWalk_StopsEarly(t *testing.T) {
	tr := build(t,
		Entry{Input: []string{"a"}, Outputs: []Output{out(0, "1")}},
		Entry{Input: []string{"b"}, Outputs: []Output{out(0, "2")}},
	)

	n := 0
	tr.Walk(func([]string, Match) bool { n++; return false })
	assert.Equal(t, 1, n)
}

func TestBuild_ManyKeysAllReachable(t *testing.T) {
	var entries []Entry
	for i := 0; i < 200; i++ {
		entries = append(entries, Entry{
			Input:   []string{fmt.Sprintf("w%d", i%17), fmt.Sprintf("t%d", i)},
			Outputs: []Output{out(0, fmt.Sprintf("o%d", i%5))},
		})
	}
	tr := build(t, entries...)

	for i := 0; i < 200; i++ {
		m, ok := tr.Get([]string{fmt.Sprintf("w%d", i%17), fmt.Sprintf("t%d", i)})
		require.True(t, ok, i)
		assert.Equal(t, fmt.Sprintf("o%d", i%5), m.Outputs[0][0])
	}
	_, ok := tr.Get([]string{"w0", "t1"})
	assert.False(t, ok)
}

func TestSymbols_ByteOrderIDs(t *testing.T) {
	s, err := newSymbols([]string{"pear", "apple", "fig", "apple"})
	require.NoError(t, err)

	assert.Equal(t, 3, s.len())
	for i, name := range []string{"apple", "fig", "pear"} {
		id, ok := s.id(name)
		require.True(t, ok)
		assert.Equal(t, uint32(i), id)
		assert.Equal(t, name, s.name(id))
	}
	_, ok := s.id("kiwi")
	assert.False(t, ok)
}
