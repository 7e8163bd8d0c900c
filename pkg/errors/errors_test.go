// Package errors_test provides unit tests for the AppError type, factory
// functions, and error-chain helpers defined in pkg/errors.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/interview-intel/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Newf
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.ErrCodeInternal, "unexpected failure"},
		{"taxonomy invalid", errors.ErrCodeTaxonomyInvalid, "category weight must be positive"},
		{"malformed record", errors.ErrCodeRecordMissingCompany, "record 42 has no company"},
		{"insufficient sample", errors.ErrCodeInsufficientSample, "2 documents, need 3"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail, "Detail should be empty for bare New()")
			assert.Nil(t, ae.Cause, "Cause should be nil for bare New()")
		})
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	t.Parallel()

	ae := errors.Newf(errors.ErrCodeInsufficientSample, "sample size %d below minimum %d", 2, 3)
	require.NotNil(t, ae)
	assert.Equal(t, "sample size 2 below minimum 3", ae.Message)
}

func TestNew_StackIsPopulated(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeInternal, "test")
	require.NotNil(t, ae)
	assert.Contains(t, ae.Stack, "errors_test.go")
}

// ─────────────────────────────────────────────────────────────────────────────
// Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	result := errors.Wrap(nil, errors.ErrCodeInternal, "should not matter")
	assert.Nil(t, result)
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("yaml: line 3: mapping values are not allowed")
	wrapped := errors.Wrap(root, errors.ErrCodeConfigInvalid, "failed to parse config")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeConfigInvalid, wrapped.Code)
	assert.Equal(t, "failed to parse config", wrapped.Message)
	assert.Equal(t, root, wrapped.Cause)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeTaxonomyInvalid, "empty category")
	outer := errors.Wrap(inner, errors.ErrCodeUnknown, "adding context")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeTaxonomyInvalid, outer.Code,
		"Wrap with ErrCodeUnknown should inherit the inner AppError's code")
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeTaxonomyInvalid, "empty category")
	outer := errors.Wrap(inner, errors.ErrCodeInternal, "unexpected state")

	assert.Equal(t, errors.ErrCodeInternal, outer.Code,
		"explicit non-Unknown code must override the inner code")
}

// ─────────────────────────────────────────────────────────────────────────────
// Error formatting
// ─────────────────────────────────────────────────────────────────────────────

func TestError_FormatWithAndWithoutDetail(t *testing.T) {
	t.Parallel()

	bare := errors.New(errors.ErrCodeRecordEmptyText, "record has no report text")
	assert.Equal(t, "[REC_003] record has no report text", bare.Error())

	detailed := bare.WithDetail("id=rec-17")
	assert.Equal(t, "[REC_003] record has no report text: id=rec-17", detailed.Error())
}

func TestError_WorksWithFmtVerbs(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeTrendFailed, "series rejected")
	rendered := fmt.Sprintf("got: %v", ae)
	assert.True(t, strings.Contains(rendered, "TRD_002"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Builder methods
// ─────────────────────────────────────────────────────────────────────────────

func TestWithDetail_ClonesInsteadOfMutating(t *testing.T) {
	t.Parallel()

	orig := errors.New(errors.ErrCodeRecordInvalid, "record failed validation")
	clone := orig.WithDetail("company missing")

	assert.Empty(t, orig.Detail, "original must stay untouched")
	assert.Equal(t, "company missing", clone.Detail)
	assert.Equal(t, orig.Code, clone.Code)
}

func TestWithDetail_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("anything"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}

func TestWithCause_AttachesCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("strconv: invalid syntax")
	ae := errors.Configuration("bad decay half-life").WithCause(cause)

	assert.Equal(t, cause, stderrors.Unwrap(ae))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_FindsCodeAnywhereInChain(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeInsufficientSample, "sample too small")
	mid := errors.Wrap(inner, errors.ErrCodeScoringFailed, "confidence unavailable")
	outer := fmt.Errorf("run aborted: %w", mid)

	assert.True(t, errors.IsCode(outer, errors.ErrCodeInsufficientSample))
	assert.True(t, errors.IsCode(outer, errors.ErrCodeScoringFailed))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeTrendFailed))
}

func TestIsConfiguration_CoversAllConfigCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"config invalid", errors.Configuration("bad"), true},
		{"taxonomy missing", errors.New(errors.ErrCodeTaxonomyMissing, "no taxonomy"), true},
		{"taxonomy invalid", errors.Taxonomy("empty category"), true},
		{"wrapped config", fmt.Errorf("startup: %w", errors.Configuration("bad")), true},
		{"record error", errors.MalformedRecord("no company"), false},
		{"plain error", stderrors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, errors.IsConfiguration(tc.err))
		})
	}
}

func TestIsMalformedRecord_MatchesRecordModuleOnly(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsMalformedRecord(errors.New(errors.ErrCodeRecordInvalidDate, "zero date")))
	assert.True(t, errors.IsMalformedRecord(errors.MalformedRecord("rejected")))
	assert.False(t, errors.IsMalformedRecord(errors.Internal("boom")))
}

func TestIsInsufficientData_CoversScoringAndTrend(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsInsufficientData(errors.InsufficientData("n=2")))
	assert.True(t, errors.IsInsufficientData(errors.New(errors.ErrCodeInsufficientBuckets, "3 buckets")))
	assert.False(t, errors.IsInsufficientData(errors.Internal("boom")))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.ErrCodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.ErrCodeUnknown, errors.GetCode(stderrors.New("plain")))

	ae := errors.New(errors.ErrCodeExtractionFailed, "boom")
	assert.Equal(t, errors.ErrCodeExtractionFailed, errors.GetCode(fmt.Errorf("wrap: %w", ae)))
}
