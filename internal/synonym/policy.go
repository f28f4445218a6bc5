package synonym

// Policy holds the expansion, deduplication and leniency switches of a
// parse session.
type Policy struct {
	// Expand maps every term of an equivalence group to every term of the
	// group. Without it the group collapses onto its first term.
	Expand bool
	// Dedup drops an output already recorded for the same input.
	Dedup bool
	// Lenient skips rules whose terms the analyzer rejects.
	Lenient bool
}

// DefaultPolicy expands groups, deduplicates and is strict.
func DefaultPolicy() Policy {
	return Policy{Expand: true, Dedup: true}
}

// Pairs calls add for every (input, output) pair a rule contributes.
// inputs and outputs are normalized terms; outputs is nil for equivalence
// groups.
func (p Policy) Pairs(inputs, outputs []string, explicit bool, add func(input, output string, includeOrig bool)) {
	switch {
	case explicit:
		for _, in := range inputs {
			for _, out := range outputs {
				add(in, out, false)
			}
		}
	case p.Expand:
		for _, in := range inputs {
			for _, out := range inputs {
				add(in, out, false)
			}
		}
	default:
		for _, in := range inputs {
			add(in, inputs[0], false)
		}
	}
}

// Accept reports whether a pair may be recorded. Terms a lenient
// normalizer rejected are "".
func (p Policy) Accept(input, output string) bool {
	return input != "" && output != ""
}
