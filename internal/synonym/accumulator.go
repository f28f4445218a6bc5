package synonym

import (
	"github.com/Aman-CERP/indexsyn/internal/fst"
)

type entry struct {
	ords        []int
	includeOrig bool
}

// Accumulator records (input, output) pairs of normalized terms and turns
// them into transducer entries. Outputs are interned in a words table.
type Accumulator struct {
	policy Policy

	entries map[string]*entry
	words   []string
	wordIDs map[string]int

	accepted   int
	duplicates int
	discarded  int
	maxContext int
}

// NewAccumulator returns an empty accumulator applying policy.
func NewAccumulator(policy Policy) *Accumulator {
	return &Accumulator{
		policy:  policy,
		entries: make(map[string]*entry),
		wordIDs: make(map[string]int),
	}
}

// Add records that input maps to output. It returns false when the pair is
// discarded by the policy or is a duplicate.
func (a *Accumulator) Add(input, output string, includeOrig bool) bool {
	if !a.policy.Accept(input, output) {
		a.discarded++
		return false
	}

	ord, ok := a.wordIDs[output]
	if !ok {
		ord = len(a.words)
		a.words = append(a.words, output)
		a.wordIDs[output] = ord
	}

	e := a.entries[input]
	if e == nil {
		e = &entry{}
		a.entries[input] = e
	}
	if a.policy.Dedup {
		for _, o := range e.ords {
			if o == ord {
				e.includeOrig = e.includeOrig || includeOrig
				a.duplicates++
				return false
			}
		}
	}
	e.ords = append(e.ords, ord)
	e.includeOrig = e.includeOrig || includeOrig
	a.accepted++

	if n := len(Tokens(input)); n > a.maxContext {
		a.maxContext = n
	}
	if n := len(Tokens(output)); n > a.maxContext {
		a.maxContext = n
	}
	return true
}

// Accepted returns the number of recorded pairs.
func (a *Accumulator) Accepted() int { return a.accepted }

// Duplicates returns the number of pairs dropped by deduplication.
func (a *Accumulator) Duplicates() int { return a.duplicates }

// Discarded returns the number of pairs dropped because a term was rejected.
func (a *Accumulator) Discarded() int { return a.discarded }

// Inputs returns the number of distinct inputs.
func (a *Accumulator) Inputs() int { return len(a.entries) }

// Build compiles the recorded pairs.
func (a *Accumulator) Build() (*Map, error) {
	b := fst.NewBuilder()
	for input, e := range a.entries {
		outs := make([]fst.Output, len(e.ords))
		for i, ord := range e.ords {
			outs[i] = fst.Output{Terms: Tokens(a.words[ord]), Weight: i}
		}
		if err := b.Add(fst.Entry{Input: Tokens(input), Outputs: outs, IncludeOrig: e.includeOrig}); err != nil {
			return nil, err
		}
	}
	t, err := b.Build()
	if err != nil {
		return nil, err
	}

	words := make([]string, len(a.words))
	for i, w := range a.words {
		words[i] = Display(w)
	}
	return &Map{fst: t, words: words, maxContext: a.maxContext}, nil
}
