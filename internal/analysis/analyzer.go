// Package analysis supplies the text analyzers used to normalize synonym
// terms before they are compiled.
package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTerm is returned when a term cannot be turned into a usable
// token sequence. Lenient parsing skips rules whose terms fail this way.
var ErrInvalidTerm = errors.New("invalid synonym term")

// Analyzer turns a raw term into an ordered sequence of normalized tokens.
// Implementations must be safe to call repeatedly; they may be shared by
// concurrent parse sessions.
type Analyzer interface {
	Analyze(term string) ([]string, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(term string) ([]string, error)

// Analyze implements Analyzer.
func (f AnalyzerFunc) Analyze(term string) ([]string, error) {
	return f(term)
}

// Invalid builds an ErrInvalidTerm error for term.
func Invalid(term, reason string) error {
	return fmt.Errorf("%w: term: %s %s", ErrInvalidTerm, term, reason)
}

// Check enforces the token contract on an analyzer result: at least one
// token, and no empty tokens.
func Check(term string, tokens []string) error {
	if len(tokens) == 0 {
		return Invalid(term, "was completely eliminated by analyzer")
	}
	for _, tok := range tokens {
		if tok == "" {
			return Invalid(term, "analyzed to a zero-length token")
		}
	}
	return nil
}

// Mapping is a fixed term -> tokens table. Terms not in the table are
// split on whitespace.
type Mapping map[string][]string

// Analyze implements Analyzer.
func (m Mapping) Analyze(term string) ([]string, error) {
	if toks, ok := m[term]; ok {
		return toks, nil
	}
	return strings.Fields(term), nil
}

// Whitespace splits on whitespace and lowercases. It keeps punctuation,
// so "i-pod" stays one token.
var Whitespace = AnalyzerFunc(func(term string) ([]string, error) {
	return strings.Fields(strings.ToLower(term)), nil
})
