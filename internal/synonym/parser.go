// Package synonym turns synonym rule text into a compiled Map.
//
// A Parser owns one parse session: rules are parsed line by line, their
// terms normalized through the configured analyzer, expanded according to
// the Policy and accumulated until Build compiles them. A Parser is not
// safe for concurrent use; independent sessions share nothing.
package synonym

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/indexsyn/internal/analysis"
	synerrors "github.com/Aman-CERP/indexsyn/internal/errors"
	"github.com/Aman-CERP/indexsyn/internal/rules"
)

// DefaultIndex is the index synonym documents are read from.
const DefaultIndex = ".synonyms"

// Options configures a Parser.
type Options struct {
	Policy   Policy
	Analyzer analysis.Analyzer
	// Index names the source index (default DefaultIndex).
	Index  string
	Logger *slog.Logger
}

// Stats describes a parse session.
type Stats struct {
	// Loaded counts rule blobs parsed, one per field value.
	Loaded int
	// Inputs counts distinct input keys.
	Inputs int
	// Accepted counts recorded (input, output) pairs.
	Accepted int
	// Duplicates counts pairs dropped by deduplication.
	Duplicates int
	// Discarded counts pairs dropped because the analyzer rejected a term.
	Discarded int
}

// Parser accumulates synonym rules for one build.
type Parser struct {
	policy Policy
	index  string
	norm   *Normalizer
	acc    *Accumulator
	logger *slog.Logger

	loaded int
	err    error
}

// NewParser creates a parse session.
func NewParser(opts Options) (*Parser, error) {
	if opts.Analyzer == nil {
		return nil, errors.New("synonym parser needs an analyzer")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	index := opts.Index
	if index == "" {
		index = DefaultIndex
	}
	return &Parser{
		policy: opts.Policy,
		index:  index,
		norm:   NewNormalizer(opts.Analyzer, opts.Policy.Lenient, logger),
		acc:    NewAccumulator(opts.Policy),
		logger: logger,
	}, nil
}

// Index returns the source index name.
func (p *Parser) Index() string {
	return p.index
}

// ParseText parses one blob of newline-delimited rules. A syntax error or
// a strict-mode normalization error fails the whole session.
func (p *Parser) ParseText(text string) error {
	if p.err != nil {
		return p.err
	}
	if err := rules.ParseText(text, p.addRule); err != nil {
		return p.fail(err)
	}
	p.loaded++
	return nil
}

func (p *Parser) addRule(r *rules.Rule) error {
	inputs, err := p.normalize(r.Inputs, r.Line)
	if err != nil {
		return err
	}
	var outputs []string
	if r.Explicit {
		if outputs, err = p.normalize(r.Outputs, r.Line); err != nil {
			return err
		}
	}
	p.policy.Pairs(inputs, outputs, r.Explicit, func(in, out string, includeOrig bool) {
		p.acc.Add(in, out, includeOrig)
	})
	return nil
}

func (p *Parser) normalize(terms []string, line int) ([]string, error) {
	out := make([]string, len(terms))
	for i, term := range terms {
		n, err := p.norm.Normalize(term, line)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// fail records err as the session error, converting grammar errors.
func (p *Parser) fail(err error) error {
	var se *rules.SyntaxError
	if errors.As(err, &se) {
		err = synerrors.SyntaxError(se.Line, se.Text, se)
	}
	var ue *synerrors.SynError
	if errors.As(err, &ue) {
		ue.WithDetail("index", p.index)
	}
	p.err = err
	return err
}

// Stats returns the session counters.
func (p *Parser) Stats() Stats {
	return Stats{
		Loaded:     p.loaded,
		Inputs:     p.acc.Inputs(),
		Accepted:   p.acc.Accepted(),
		Duplicates: p.acc.Duplicates(),
		Discarded:  p.acc.Discarded(),
	}
}

// Loaded returns the number of rule blobs parsed.
func (p *Parser) Loaded() int {
	return p.loaded
}

// Build compiles everything parsed so far. It fails if the session failed.
func (p *Parser) Build() (*Map, error) {
	if p.err != nil {
		return nil, p.err
	}
	m, err := p.acc.Build()
	if err != nil {
		return nil, synerrors.InternalError(fmt.Sprintf("compile synonyms from %s", p.index), err)
	}
	p.logger.Info("synonym_map_built",
		slog.String("index", p.index),
		slog.Int("inputs", m.Len()),
		slog.Int("words", len(m.Words())),
		slog.Int("states", m.Transducer().NumStates()),
		slog.Int("arcs", m.Transducer().NumArcs()))
	return m, nil
}
