package errors

import (
	stderrors "errors"
	"fmt"
)

// SynError is the structured error type for indexsyn.
// It carries enough context (index, rule text, term) to diagnose a failed build.
type SynError struct {
	// Code is the unique error code (e.g., "ERR_401_RULE_SYNTAX").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Source, Rule, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SynError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SynError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with SynError.
func (e *SynError) Is(target error) bool {
	if t, ok := target.(*SynError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SynError) WithDetail(key, value string) *SynError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *SynError) WithSuggestion(suggestion string) *SynError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SynError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *SynError {
	return &SynError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a SynError from an existing error.
// The error's message becomes the SynError message.
func Wrap(code string, err error) *SynError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SynError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// SyntaxError creates a rule grammar error for one rule line.
func SyntaxError(line int, text string, cause error) *SynError {
	return New(ErrCodeRuleSyntax, fmt.Sprintf("invalid synonym rule at line %d", line), cause).
		WithDetail("line", fmt.Sprint(line)).
		WithDetail("rule", text)
}

// NormalizationError creates an error for a term the analyzer rejected.
func NormalizationError(term string, line int, cause error) *SynError {
	return New(ErrCodeTermNormalization, fmt.Sprintf("term %q rejected by analyzer at line %d", term, line), cause).
		WithDetail("term", term).
		WithDetail("line", fmt.Sprint(line)).
		WithSuggestion("fix the rule or enable lenient mode to skip unusable terms")
}

// SourceUnavailable creates the non-fatal missing-index error.
func SourceUnavailable(index string) *SynError {
	return New(ErrCodeSourceUnavailable, fmt.Sprintf("synonym index %s does not exist", index), nil).
		WithDetail("index", index)
}

// SourceFailure creates a fatal error for a failed connection or query.
func SourceFailure(index string, cause error) *SynError {
	return New(ErrCodeSourceFailure, fmt.Sprintf("failed to load synonyms from index %s", index), cause).
		WithDetail("index", index)
}

// NestedFieldError creates the fatal error for a document field that holds
// an object instead of rule text.
func NestedFieldError(index string, cause error) *SynError {
	return New(ErrCodeNestedField, fmt.Sprintf("unsupported field value in synonym index %s", index), cause).
		WithDetail("index", index).
		WithSuggestion("store rules as strings or lists of strings")
}

// BuildFailed creates the aggregated failure reported by the filter factory.
func BuildFailed(index string, cause error) *SynError {
	return New(ErrCodeBuildFailed, "failed to build synonyms", cause).
		WithDetail("index", index)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SynError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity anywhere in its chain.
func IsFatal(err error) bool {
	var se *SynError
	if stderrors.As(err, &se) {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code of the outermost SynError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var se *SynError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category of the outermost SynError in the chain.
func GetCategory(err error) Category {
	var se *SynError
	if stderrors.As(err, &se) {
		return se.Category
	}
	return ""
}

// HasCode reports whether any SynError in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if se, ok := err.(*SynError); ok && se.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}
