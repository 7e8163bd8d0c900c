package errors

import "strings"

// ErrorCode is a string identifier for a specific error condition.  Codes are
// prefixed with the module they belong to ("CFG_001", "REC_002") so that logs
// and metrics can be grouped per module without parsing messages.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Module prefixes used by ModuleForCode.
const (
	ModuleCommon     = "COMMON"
	ModuleConfig     = "CFG"
	ModuleRecord     = "REC"
	ModuleExtraction = "EXT"
	ModuleScoring    = "SCR"
	ModuleTrend      = "TRD"
	ModuleInsights   = "INS"
	ModuleRun        = "RUN"
)

// Common error codes.
const (
	ErrCodeOK             ErrorCode = "OK"
	ErrCodeUnknown        ErrorCode = "COMMON_000"
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeInvalidParam   ErrorCode = "COMMON_002"
	ErrCodeCanceled       ErrorCode = "COMMON_003"
	ErrCodeNotImplemented ErrorCode = "COMMON_004"
)

// Configuration error codes.  These are the only fatal class: an engine with
// an unusable configuration or taxonomy must not execute any run.
const (
	ErrCodeConfigInvalid   ErrorCode = "CFG_001"
	ErrCodeTaxonomyMissing ErrorCode = "CFG_002"
	ErrCodeTaxonomyInvalid ErrorCode = "CFG_003"
)

// Record ingestion error codes.  A record carrying one of these is skipped
// and tallied in the run report, never fatal to the corpus analysis.
const (
	ErrCodeRecordMissingCompany ErrorCode = "REC_001"
	ErrCodeRecordInvalidDate    ErrorCode = "REC_002"
	ErrCodeRecordEmptyText      ErrorCode = "REC_003"
	ErrCodeRecordInvalid        ErrorCode = "REC_004"
)

// Extraction error codes.
const (
	ErrCodeExtractionFailed ErrorCode = "EXT_001"
)

// Scoring error codes.  ErrCodeInsufficientSample is handled inside the
// scorer (confidence forced to zero) and never returned to callers.
const (
	ErrCodeInsufficientSample ErrorCode = "SCR_001"
	ErrCodeScoringFailed      ErrorCode = "SCR_002"
)

// Trend error codes.  ErrCodeInsufficientBuckets is handled inside the
// analyzer (STABLE, not significant) and never returned to callers.
const (
	ErrCodeInsufficientBuckets ErrorCode = "TRD_001"
	ErrCodeTrendFailed         ErrorCode = "TRD_002"
)

// Insights error codes.
const (
	ErrCodeInsightsFailed ErrorCode = "INS_001"
)

// Run orchestration error codes.
const (
	ErrCodeRunFailed ErrorCode = "RUN_001"
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeOK:             "ok",
	ErrCodeUnknown:        "unknown error",
	ErrCodeInternal:       "internal error",
	ErrCodeInvalidParam:   "invalid parameter",
	ErrCodeCanceled:       "operation canceled",
	ErrCodeNotImplemented: "not implemented",

	ErrCodeConfigInvalid:   "invalid configuration",
	ErrCodeTaxonomyMissing: "domain taxonomy missing",
	ErrCodeTaxonomyInvalid: "domain taxonomy invalid",

	ErrCodeRecordMissingCompany: "record has no company",
	ErrCodeRecordInvalidDate:    "record has no valid date",
	ErrCodeRecordEmptyText:      "record has no report text",
	ErrCodeRecordInvalid:        "record failed validation",

	ErrCodeExtractionFailed: "topic extraction failed",

	ErrCodeInsufficientSample: "sample too small for confidence estimation",
	ErrCodeScoringFailed:      "statistical scoring failed",

	ErrCodeInsufficientBuckets: "too few buckets for trend detection",
	ErrCodeTrendFailed:         "trend analysis failed",

	ErrCodeInsightsFailed: "recommendation generation failed",

	ErrCodeRunFailed: "analysis run failed",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsFatal reports whether code belongs to the fatal configuration class.
// Everything else degrades gracefully (skip, tally, or force-zero).
func IsFatal(code ErrorCode) bool {
	return ModuleForCode(code) == ModuleConfig
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
