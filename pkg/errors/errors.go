// Package errors provides the unified error type and factory functions for
// the interview-intel analytics engine.  Every layer (domain, intelligence,
// application, interfaces) uses AppError as the single carrier for structured
// error information, enabling consistent logging, metric labels, and
// caller-side classification.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call-stack string starting two frames
// above the caller (skipping captureStack itself and New/Wrap).
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		// Trim standard-library noise to keep traces readable.
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError — the canonical engine error type
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the single structured error type used throughout the engine.
// It satisfies the standard error interface and supports Go 1.13+ error
// wrapping so that errors.Is / errors.As / errors.Unwrap work transparently
// across all layers.
//
// Usage:
//
//	return errors.New(errors.ErrCodeTaxonomyInvalid, "category weight must be positive")
//	return errors.Wrap(loadErr, errors.ErrCodeConfigInvalid, "failed to read config file")
//	return errors.MalformedRecord("record has no company").WithDetail("id=" + rec.ID)
type AppError struct {
	// Code is the typed error code that uniquely identifies the failure
	// category.
	Code ErrorCode

	// Message is the primary human-readable description of the error.
	Message string

	// Detail carries supplementary context (record IDs, term names, sample
	// sizes) that aids debugging without bloating the primary message.
	Detail string

	// Cause is the underlying error that triggered this AppError, enabling
	// errors.Is / errors.As traversal of the full error chain.
	Cause error

	// Stack contains the formatted call-stack captured at the point of error
	// creation.  It is intentionally not included in Error() output; callers
	// that need it (structured logging) inspect the field directly.
	Stack string
}

// Error implements the standard error interface.
// Format: "[<code>] <message>: <detail>", the detail segment omitted when
// Detail is empty.
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error, enabling errors.Is and errors.As
// to traverse the full error chain.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ─────────────────────────────────────────────────────────────────────────────
// Fluent builder methods
// ─────────────────────────────────────────────────────────────────────────────

// WithDetail returns a shallow copy of the receiver with Detail set to the
// supplied string.  It is safe to call on a nil pointer (returns nil).
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
// Use this to attach a lower-level error to an already-constructed AppError
// without going through Wrap.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Primary factory functions
// ─────────────────────────────────────────────────────────────────────────────

// New constructs a fresh AppError with the given code and message.
// A call-stack snapshot is captured automatically.
//
// New is the preferred factory for errors that originate in the current layer
// without an underlying cause from a lower layer.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Newf constructs a fresh AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(1),
	}
}

// Wrap constructs an AppError that wraps an existing error.
// If err is nil, Wrap returns nil so it can be used inline:
//
//	return errors.Wrap(buildTaxonomy(cfg), errors.ErrCodeTaxonomyInvalid, "taxonomy rejected")
//
// When err is already an *AppError and code is ErrCodeUnknown the original
// code is preserved, so cross-layer propagation never loses the original
// classification.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	// Preserve original code when the caller is just adding context.
	if code == ErrCodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Error-chain inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any error in err's chain is an *AppError with the
// given code.  It is the idiomatic way to check domain failure modes:
//
//	if errors.IsCode(err, errors.ErrCodeTaxonomyInvalid) { ... }
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsConfiguration reports whether any error in err's chain is a startup
// configuration failure (CFG module).  Configuration errors are the only
// fatal class: the engine refuses to construct and no run executes.
func IsConfiguration(err error) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ModuleForCode(ae.Code) == ModuleConfig {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsMalformedRecord reports whether any error in err's chain classifies a
// rejected input record (REC module).  Such records are skipped and tallied,
// never fatal.
func IsMalformedRecord(err error) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ModuleForCode(ae.Code) == ModuleRecord {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsInsufficientData reports whether err marks a sample too small for a
// statistical procedure.  These errors stay inside the engine: confidence is
// forced to zero or the trend is reported STABLE instead.
func IsInsufficientData(err error) bool {
	return IsCode(err, ErrCodeInsufficientSample) || IsCode(err, ErrCodeInsufficientBuckets)
}

// GetCode extracts the ErrorCode from the first *AppError found in err's
// chain.  If no *AppError is present, ErrCodeUnknown is returned.
//
// Useful in logging layers that need a single code to emit as a metric label
// without coupling to specific domain errors.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeUnknown
}

// ─────────────────────────────────────────────────────────────────────────────
// Convenience factory functions for the engine's error taxonomy
// ─────────────────────────────────────────────────────────────────────────────

// Configuration constructs an ErrCodeConfigInvalid AppError.  The caller is
// expected to abort startup; no analysis run may execute after one of these.
func Configuration(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConfigInvalid,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Taxonomy constructs an ErrCodeTaxonomyInvalid AppError for an unusable
// domain taxonomy at initialization.
func Taxonomy(message string) *AppError {
	return &AppError{
		Code:    ErrCodeTaxonomyInvalid,
		Message: message,
		Stack:   captureStack(1),
	}
}

// MalformedRecord constructs an ErrCodeRecordInvalid AppError for an input
// record that fails boundary validation.
func MalformedRecord(message string) *AppError {
	return &AppError{
		Code:    ErrCodeRecordInvalid,
		Message: message,
		Stack:   captureStack(1),
	}
}

// InsufficientData constructs an ErrCodeInsufficientSample AppError.  It is
// consumed inside the scoring layer and never surfaces to callers.
func InsufficientData(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInsufficientSample,
		Message: message,
		Stack:   captureStack(1),
	}
}

// InvalidParam constructs an ErrCodeInvalidParam AppError for caller misuse
// of the public API (nil topic, unknown company, negative series).
func InvalidParam(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidParam,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Internal constructs an ErrCodeInternal AppError.  Use for unexpected
// failures where no more specific code applies; always log the cause.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Stack:   captureStack(1),
	}
}
