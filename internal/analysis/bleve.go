package analysis

import (
	"fmt"

	bleveanalysis "github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/registry"

	// Analyzers selectable by name.
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

const (
	// DefaultAnalyzer splits on unicode word boundaries and lowercases.
	DefaultAnalyzer = "synonym"
	// WhitespaceAnalyzer splits on whitespace and lowercases.
	WhitespaceAnalyzer = "synonym_whitespace"
)

// Bleve runs terms through a bleve analyzer chain and checks the result
// against the token contract: no empty tokens, consecutive positions, at
// least one token.
type Bleve struct {
	name    string
	analyze func([]byte) bleveanalysis.TokenStream
}

// NewBleve resolves a bleve analyzer by name. Besides the analyzers bleve
// registers ("standard", "simple", "keyword", ...), DefaultAnalyzer and
// WhitespaceAnalyzer are available.
func NewBleve(name string) (*Bleve, error) {
	if name == "" {
		name = DefaultAnalyzer
	}
	cache := registry.NewCache()
	if err := defineBuiltins(cache); err != nil {
		return nil, err
	}
	a, err := cache.AnalyzerNamed(name)
	if err != nil {
		return nil, fmt.Errorf("unknown analyzer %q: %w", name, err)
	}
	return &Bleve{name: name, analyze: a.Analyze}, nil
}

// NewBleveCustom defines a custom analyzer from a tokenizer and token
// filters registered with bleve.
func NewBleveCustom(name, tokenizer string, filters ...string) (*Bleve, error) {
	cache := registry.NewCache()
	a, err := cache.DefineAnalyzer(name, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     tokenizer,
		"token_filters": filters,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to define analyzer %q: %w", name, err)
	}
	return &Bleve{name: name, analyze: a.Analyze}, nil
}

func defineBuiltins(cache *registry.Cache) error {
	defs := []struct {
		name      string
		tokenizer string
	}{
		{DefaultAnalyzer, unicode.Name},
		{WhitespaceAnalyzer, whitespace.Name},
	}
	for _, d := range defs {
		_, err := cache.DefineAnalyzer(d.name, map[string]interface{}{
			"type":          custom.Name,
			"tokenizer":     d.tokenizer,
			"token_filters": []string{lowercase.Name},
		})
		if err != nil {
			return fmt.Errorf("failed to define analyzer %q: %w", d.name, err)
		}
	}
	return nil
}

// Name returns the analyzer name.
func (b *Bleve) Name() string {
	return b.name
}

// Analyze implements Analyzer.
func (b *Bleve) Analyze(term string) ([]string, error) {
	stream := b.analyze([]byte(term))
	tokens := make([]string, 0, len(stream))
	last := 0
	for _, tok := range stream {
		if len(tok.Term) == 0 {
			return nil, Invalid(term, "analyzed to a zero-length token")
		}
		if tok.Position-last != 1 {
			return nil, Invalid(term, "analyzed to a token with position increment != 1")
		}
		last = tok.Position
		tokens = append(tokens, string(tok.Term))
	}
	if err := Check(term, tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// Tokens runs the analyzer without contract checks. It is used to tokenize
// query text for lookups.
func (b *Bleve) Tokens(text string) []string {
	stream := b.analyze([]byte(text))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		out = append(out, string(tok.Term))
	}
	return out
}

var _ Analyzer = (*Bleve)(nil)
