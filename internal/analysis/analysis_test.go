package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	assert.NoError(t, Check("a", []string{"a"}))

	err := Check("the", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTerm))
	assert.Contains(t, err.Error(), "was completely eliminated by analyzer")

	err = Check("x", []string{"x", ""})
	assert.True(t, errors.Is(err, ErrInvalidTerm))
	assert.Contains(t, err.Error(), "zero-length token")
}

func TestMapping_FallsBackToWhitespace(t *testing.T) {
	m := Mapping{"USA": {"united", "states"}}

	toks, err := m.Analyze("USA")
	require.NoError(t, err)
	assert.Equal(t, []string{"united", "states"}, toks)

	toks, err = m.Analyze("i pod")
	require.NoError(t, err)
	assert.Equal(t, []string{"i", "pod"}, toks)
}

func TestWhitespace_KeepsPunctuation(t *testing.T) {
	toks, err := Whitespace.Analyze("  I-Pod  Touch ")
	require.NoError(t, err)
	assert.Equal(t, []string{"i-pod", "touch"}, toks)
}

func TestNewBleve_DefaultAnalyzer(t *testing.T) {
	// Given: the default analyzer
	a, err := NewBleve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAnalyzer, a.Name())

	// When: analyzing a mixed-case multi-word term
	toks, err := a.Analyze("Wi Fi Router")

	// Then: lowercased word tokens
	require.NoError(t, err)
	assert.Equal(t, []string{"wi", "fi", "router"}, toks)
}

func TestNewBleve_WhitespaceAnalyzer(t *testing.T) {
	a, err := NewBleve(WhitespaceAnalyzer)
	require.NoError(t, err)

	toks, err := a.Analyze("I-Pod")
	require.NoError(t, err)
	assert.Equal(t, []string{"i-pod"}, toks)
}

func TestNewBleve_Keyword(t *testing.T) {
	a, err := NewBleve("keyword")
	require.NoError(t, err)

	toks, err := a.Analyze("New York")
	require.NoError(t, err)
	assert.Equal(t, []string{"New York"}, toks)
}

func TestNewBleve_UnknownAnalyzer(t *testing.T) {
	_, err := NewBleve("no_such_analyzer")
	assert.Error(t, err)
}

func TestBleve_StopWordsViolateContract(t *testing.T) {
	a, err := NewBleve("standard")
	require.NoError(t, err)

	tests := []struct {
		term   string
		reason string
	}{
		{"the", "was completely eliminated by analyzer"},
		{"the fox", "position increment != 1"},
		{"fox and hound", "position increment != 1"},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			_, err := a.Analyze(tt.term)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTerm))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestBleve_TokensSkipsContract(t *testing.T) {
	a, err := NewBleve("standard")
	require.NoError(t, err)

	assert.Equal(t, []string{"fox"}, a.Tokens("the fox"))
	assert.Empty(t, a.Tokens("the"))
}

func TestNewBleveCustom(t *testing.T) {
	a, err := NewBleveCustom("ws_only", "whitespace")
	require.NoError(t, err)

	toks, err := a.Analyze("Mixed Case")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mixed", "Case"}, toks)
}
