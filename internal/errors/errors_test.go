package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TS01: Error wrapping preserves original error
func TestSynError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("connection refused")

	// When: wrapping as a source failure
	synErr := SourceFailure(".synonyms", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, synErr)
	assert.Equal(t, originalErr, errors.Unwrap(synErr))
	assert.True(t, errors.Is(synErr, originalErr))
}

func TestSynError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *SynError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(ErrCodeConfigNotFound, "config file not found", nil),
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "with cause",
			err:      New(ErrCodeSourceFailure, "failed to load synonyms", errors.New("timeout")),
			expected: "[ERR_302_SOURCE_FAILURE] failed to load synonyms: timeout",
		},
		{
			name:     "wrapped keeps single message",
			err:      Wrap(ErrCodeInternal, errors.New("boom")),
			expected: "[ERR_501_INTERNAL] boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestSynError_Is_MatchesByCode(t *testing.T) {
	err1 := SyntaxError(1, "a => ", nil)
	err2 := SyntaxError(7, "=> b", nil)

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, SourceUnavailable("x")))
}

func TestCategoryAndSeverity_DerivedFromCode(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{ErrCodeFileNotFound, CategoryIO, SeverityError},
		{ErrCodeSourceUnavailable, CategorySource, SeverityWarning},
		{ErrCodeSourceFailure, CategorySource, SeverityFatal},
		{ErrCodeRuleSyntax, CategoryRule, SeverityFatal},
		{ErrCodeTermNormalization, CategoryRule, SeverityError},
		{ErrCodeBuildFailed, CategoryInternal, SeverityFatal},
		{"short", CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestSyntaxError_CarriesRuleContext(t *testing.T) {
	err := SyntaxError(3, "a => b => c", errors.New("more than one explicit mapping"))

	assert.Equal(t, "3", err.Details["line"])
	assert.Equal(t, "a => b => c", err.Details["rule"])
	assert.Contains(t, err.Error(), "line 3")
	assert.True(t, IsFatal(err))
}

func TestNormalizationError_CarriesTerm(t *testing.T) {
	err := NormalizationError("the", 2, errors.New("eliminated"))

	assert.Equal(t, "the", err.Details["term"])
	assert.NotEmpty(t, err.Suggestion)
	assert.False(t, IsFatal(err))
}

func TestGetCode_FindsCodeThroughWrapping(t *testing.T) {
	inner := SourceFailure("idx", errors.New("refused"))
	wrapped := fmt.Errorf("loading: %w", inner)

	assert.Equal(t, ErrCodeSourceFailure, GetCode(wrapped))
	assert.Equal(t, CategorySource, GetCategory(wrapped))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}

func TestHasCode_WalksWholeChain(t *testing.T) {
	// Given: a build failure wrapping a syntax error
	err := BuildFailed("idx", SyntaxError(1, "=>", nil))

	// Then: both codes are visible
	assert.True(t, HasCode(err, ErrCodeBuildFailed))
	assert.True(t, HasCode(err, ErrCodeRuleSyntax))
	assert.False(t, HasCode(err, ErrCodeSourceFailure))
	assert.False(t, HasCode(nil, ErrCodeSourceFailure))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestFormatForCLI_IncludesDetailsAndHint(t *testing.T) {
	err := NormalizationError("the", 4, errors.New("was completely eliminated by analyzer"))

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: term \"the\" rejected by analyzer at line 4")
	assert.Contains(t, out, "Cause: was completely eliminated by analyzer")
	assert.Contains(t, out, "  line: 4\n  term: the\n")
	assert.Contains(t, out, "Hint: ")
	assert.Contains(t, out, "Code: ERR_402_TERM_NORMALIZATION")
}

func TestFormatForCLI_WrapsPlainErrors(t *testing.T) {
	out := FormatForCLI(errors.New("plain failure"))

	assert.Contains(t, out, "Error: plain failure")
	assert.Contains(t, out, ErrCodeInternal)
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON_RoundTripsFields(t *testing.T) {
	data, err := FormatJSON(SourceFailure("idx", errors.New("refused")))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeSourceFailure, decoded["code"])
	assert.Equal(t, "SOURCE", decoded["category"])
	assert.Equal(t, "refused", decoded["cause"])
}

func TestFormatForLog_FlattensDetails(t *testing.T) {
	attrs := FormatForLog(SourceUnavailable(".synonyms"))

	assert.Equal(t, ErrCodeSourceUnavailable, attrs["error_code"])
	assert.Equal(t, ".synonyms", attrs["detail_index"])
	assert.Equal(t, map[string]any{"error": "x"}, FormatForLog(errors.New("x")))
}
