// Package errors provides structured error handling for indexsyn.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (local files, local indexes)
//   - 3XX: Synonym source errors (cluster, connection)
//   - 4XX: Rule errors (grammar, normalization)
//   - 5XX: Internal and build errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and local index errors.
	CategoryIO Category = "IO"
	// CategorySource indicates errors talking to the synonym source.
	CategorySource Category = "SOURCE"
	// CategoryRule indicates malformed or unusable synonym rules.
	CategoryRule Category = "RULE"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal aborts the synonym build.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeLocked       = "ERR_202_LOCKED"
	ErrCodeCorruptIndex = "ERR_203_CORRUPT_INDEX"

	// Source errors (300-399)
	ErrCodeSourceUnavailable = "ERR_301_SOURCE_UNAVAILABLE"
	ErrCodeSourceFailure     = "ERR_302_SOURCE_FAILURE"
	ErrCodeNestedField       = "ERR_303_NESTED_FIELD"

	// Rule errors (400-499)
	ErrCodeRuleSyntax        = "ERR_401_RULE_SYNTAX"
	ErrCodeTermNormalization = "ERR_402_TERM_NORMALIZATION"

	// Internal errors (500-599)
	ErrCodeInternal    = "ERR_501_INTERNAL"
	ErrCodeBuildFailed = "ERR_502_BUILD_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "401" from "ERR_401_RULE_SYNTAX")
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategorySource
	case '4':
		return CategoryRule
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// A missing synonym index only degrades the filter to a pass-through.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeSourceUnavailable:
		return SeverityWarning
	case ErrCodeRuleSyntax, ErrCodeSourceFailure, ErrCodeBuildFailed, ErrCodeNestedField, ErrCodeCorruptIndex:
		return SeverityFatal
	}
	return SeverityError
}
