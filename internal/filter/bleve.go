package filter

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

// active is the factory bleve-registered filters build their maps with.
var active atomic.Pointer[Factory]

func init() {
	if err := registry.RegisterTokenFilter(Name, tokenFilterConstructor); err != nil {
		panic(err)
	}
}

// RegisterBleve makes f the factory behind the bleve token filter named
// Name. Analyzer definitions may set "index", "analyzer", "expand" and
// "lenient" on the filter.
func RegisterBleve(f *Factory) {
	active.Store(f)
}

func tokenFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	f := active.Load()
	if f == nil {
		return nil, fmt.Errorf("%s: no synonym factory registered", Name)
	}

	s := f.DefaultSettings()
	if v, ok := config["index"].(string); ok && v != "" {
		s.Index = v
	}
	if v, ok := config["analyzer"].(string); ok && v != "" {
		s.Analyzer = v
	}
	if v, ok := config["expand"].(bool); ok {
		s.Expand = v
	}
	if v, ok := config["lenient"].(bool); ok {
		s.Lenient = v
	}

	flt, err := f.Create(context.Background(), s)
	if err != nil {
		return nil, err
	}
	return &bleveFilter{f: flt}, nil
}

// bleveFilter implements analysis.TokenFilter. A matched span is replaced
// by its synonyms, each starting at the span's position. The span itself is
// kept only when the entry includes the original or maps to itself.
type bleveFilter struct {
	f *Filter
}

// Filter implements analysis.TokenFilter.
func (b *bleveFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	if b.f.PassThrough() || len(input) == 0 {
		return input
	}

	terms := make([]string, len(input))
	for i, tok := range input {
		terms[i] = string(tok.Term)
	}

	out := make(analysis.TokenStream, 0, len(input))
	for i := 0; i < len(input); {
		match, ok := b.f.m.Lookup(terms[i:])
		if !ok {
			out = append(out, input[i])
			i++
			continue
		}

		span := input[i : i+match.Length]
		spanTerms := terms[i : i+match.Length]
		keep := match.IncludeOrig
		for _, o := range match.Outputs {
			keep = keep || slices.Equal(o, spanTerms)
		}
		if keep {
			out = append(out, span...)
		}
		first, last := span[0], span[len(span)-1]
		for _, o := range match.Outputs {
			if slices.Equal(o, spanTerms) {
				continue
			}
			for k, term := range o {
				out = append(out, &analysis.Token{
					Term:     []byte(term),
					Start:    first.Start,
					End:      last.End,
					Position: first.Position + k,
					Type:     first.Type,
				})
			}
		}
		i += match.Length
	}
	return out
}
