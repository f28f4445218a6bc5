package rules

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MappingSep separates the input side of an explicit mapping from its output side.
	MappingSep = "=>"
	// TermSep separates terms on either side of a rule.
	TermSep = ","
	// Escape makes the next character literal.
	Escape = '\\'
	// Comment starts a comment when it is the first character of a line.
	Comment = '#'
)

// ErrSyntax is matched by every SyntaxError.
var ErrSyntax = errors.New("synonym rule syntax error")

// SyntaxError reports a malformed rule line. It is fatal regardless of
// lenient mode.
type SyntaxError struct {
	Line   int
	Text   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Is lets errors.Is(err, ErrSyntax) match.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// Rule is one parsed line. Terms are unescaped and trimmed but not analyzed.
type Rule struct {
	Line int
	Text string
	// Inputs holds the left side of an explicit mapping, or the whole group.
	Inputs []string
	// Outputs holds the right side of an explicit mapping; nil for groups.
	Outputs []string
	// Explicit is true when the line contained MappingSep.
	Explicit bool
}

// ParseLine parses a single line. Comments and blank lines yield (nil, nil).
func ParseLine(lineNo int, line string) (*Rule, error) {
	line = strings.TrimSuffix(line, "\r")
	if len(line) == 0 || line[0] == Comment || strings.TrimSpace(line) == "" {
		return nil, nil
	}

	sides := Split(line, MappingSep)
	if len(sides) > 2 {
		return nil, &SyntaxError{Line: lineNo, Text: line, Reason: "more than one explicit mapping specified on the same line"}
	}

	if len(sides) == 2 || strings.Contains(stripEscaped(line), MappingSep) {
		if len(sides) != 2 {
			return nil, &SyntaxError{Line: lineNo, Text: line, Reason: "explicit mapping has an empty side"}
		}
		inputs := terms(sides[0])
		outputs := terms(sides[1])
		if len(inputs) == 0 || len(outputs) == 0 {
			return nil, &SyntaxError{Line: lineNo, Text: line, Reason: "explicit mapping has an empty side"}
		}
		return &Rule{Line: lineNo, Text: line, Inputs: inputs, Outputs: outputs, Explicit: true}, nil
	}

	group := terms(line)
	if len(group) == 0 {
		return nil, &SyntaxError{Line: lineNo, Text: line, Reason: "rule has no terms"}
	}
	return &Rule{Line: lineNo, Text: line, Inputs: group}, nil
}

// ParseText parses newline-delimited rules, calling fn for each rule in order.
// Line numbers start at 1. The first error from parsing or from fn stops the scan.
func ParseText(text string, fn func(*Rule) error) error {
	lineNo := 0
	for len(text) > 0 {
		lineNo++
		var line string
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line, text = text[:i], text[i+1:]
		} else {
			line, text = text, ""
		}

		r, err := ParseLine(lineNo, line)
		if err != nil {
			return err
		}
		if r == nil {
			continue
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// Split cuts s around every unescaped occurrence of sep. An escape and the
// character it protects stay together in the piece. Empty pieces are dropped.
func Split(s, sep string) []string {
	var out []string
	var sb strings.Builder
	for pos := 0; pos < len(s); {
		if strings.HasPrefix(s[pos:], sep) {
			if sb.Len() > 0 {
				out = append(out, sb.String())
				sb.Reset()
			}
			pos += len(sep)
			continue
		}
		ch := s[pos]
		pos++
		sb.WriteByte(ch)
		if ch == Escape && pos < len(s) {
			sb.WriteByte(s[pos])
			pos++
		}
	}
	if sb.Len() > 0 {
		out = append(out, sb.String())
	}
	return out
}

// Unescape removes escape characters, keeping the character each one protects.
// A trailing lone escape is dropped.
func Unescape(s string) string {
	if strings.IndexByte(s, Escape) < 0 {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == Escape {
			if i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// terms splits one side of a rule into trimmed, unescaped, non-blank terms.
func terms(side string) []string {
	pieces := Split(side, TermSep)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if t := strings.TrimSpace(Unescape(p)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// stripEscaped drops every escape and its protected character.
func stripEscaped(s string) string {
	if strings.IndexByte(s, Escape) < 0 {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == Escape {
			i++
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
