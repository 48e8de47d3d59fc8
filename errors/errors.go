// Package errors provides error handling for codegen.
//
// It re-exports github.com/cockroachdb/errors so every package wraps and
// inspects errors the same way, and declares the sentinels that classify
// generation failures:
//
//	if errors.Is(err, errors.ErrTamperDetected) {
//	    // generated output was edited by hand
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing hints and details
var (
	WithHint       = crdb.WithHint
	WithHintf      = crdb.WithHintf
	WithDetail     = crdb.WithDetail
	WithDetailf    = crdb.WithDetailf
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinels for the failure classes of a generation run.
// Wrap or Mark them to add context while keeping errors.Is working.
var (
	// ErrUsage indicates an invalid or incomplete command line invocation
	ErrUsage = New("usage error")

	// ErrMalformedRegion indicates stray, nested or unterminated markers
	ErrMalformedRegion = New("malformed region")

	// ErrCompile indicates a snippet that does not compile
	ErrCompile = New("snippet compile error")

	// ErrExecution indicates a failure while a snippet runs
	ErrExecution = New("snippet execution error")

	// ErrTamperDetected indicates a protected output region was edited by hand
	ErrTamperDetected = New("generated output has been edited")

	// ErrNotFound indicates a lookup that found nothing
	ErrNotFound = New("not found")

	// ErrPropertyRequired indicates a required property is absent
	ErrPropertyRequired = New("required property not defined")

	// ErrInvalidConfig indicates a configuration that cannot be used
	ErrInvalidConfig = New("invalid configuration")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsUsage reports whether err is or wraps ErrUsage.
func IsUsage(err error) bool {
	return err != nil && Is(err, ErrUsage)
}

// NewUsageError creates a usage error with a formatted message.
func NewUsageError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrUsage)
}

// NewNotFoundError creates a not-found error with a formatted message.
func NewNotFoundError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrNotFound)
}
