package synonym

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/indexsyn/internal/analysis"
	synerrors "github.com/Aman-CERP/indexsyn/internal/errors"
)

// WordSeparator joins the tokens of a multi-token term. Analyzers never
// emit it.
const WordSeparator = "\x00"

// Normalizer runs raw terms through an analyzer.
type Normalizer struct {
	analyzer analysis.Analyzer
	lenient  bool
	logger   *slog.Logger
}

// NewNormalizer returns a normalizer. In lenient mode rejected terms
// normalize to "" instead of failing.
func NewNormalizer(a analysis.Analyzer, lenient bool, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{analyzer: a, lenient: lenient, logger: logger}
}

// Normalize returns the analyzed form of term, tokens joined with
// WordSeparator. line is reported in errors and warnings.
func (n *Normalizer) Normalize(term string, line int) (string, error) {
	tokens, err := n.analyzer.Analyze(term)
	if err == nil {
		err = analysis.Check(term, tokens)
	}
	if err == nil {
		for _, tok := range tokens {
			if strings.Contains(tok, WordSeparator) {
				err = analysis.Invalid(term, "analyzed to a token containing the word separator")
				break
			}
		}
	}
	if err == nil {
		return strings.Join(tokens, WordSeparator), nil
	}

	if !errors.Is(err, analysis.ErrInvalidTerm) {
		return "", fmt.Errorf("analyzer failed on term %q: %w", term, err)
	}
	if n.lenient {
		n.logger.Warn("synonym_rule_ignored",
			slog.String("term", term),
			slog.Int("line", line),
			slog.String("reason", err.Error()))
		return "", nil
	}
	return "", synerrors.NormalizationError(term, line, err)
}

// Tokens splits a normalized term back into its tokens.
func Tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, WordSeparator)
}

// Display renders a normalized term with spaces between tokens.
func Display(normalized string) string {
	return strings.ReplaceAll(normalized, WordSeparator, " ")
}
