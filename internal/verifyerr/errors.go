// Package verifyerr defines the failure taxonomy for fixcheck.
//
// Every verification failure maps to exactly one Kind, so callers and
// reports can tell a count mismatch from a regression without parsing
// messages. Failures are never retried by the engine.
package verifyerr

import (
	"errors"
	"fmt"
)

// Kind is a stable failure category.
type Kind string

const (
	// Format: annotated source has the wrong number of markers.
	Format Kind = "FORMAT"
	// Ambiguity: the caller omitted a diagnostic id or action title
	// while several candidates exist.
	Ambiguity Kind = "AMBIGUITY"
	// AnalyzerAmbiguity: single-fix mode needs an analyzer with
	// exactly one supported diagnostic id.
	AnalyzerAmbiguity Kind = "ANALYZER_AMBIGUITY"
	// UnsupportedID: an expectation names an id the analyzer does not
	// support, or the provider cannot fix any analyzer id.
	UnsupportedID Kind = "UNSUPPORTED_ID"

	CountMismatch     Kind = "COUNT_MISMATCH"
	AmbiguousPosition Kind = "AMBIGUOUS_POSITION"
	PositionMismatch  Kind = "POSITION_MISMATCH"
	MessageMismatch   Kind = "MESSAGE_MISMATCH"

	NoFixableDiagnostic        Kind = "NO_FIXABLE_DIAGNOSTIC"
	MultipleFixableDiagnostics Kind = "MULTIPLE_FIXABLE_DIAGNOSTICS"
	NoCodeAction               Kind = "NO_CODE_ACTION"
	NoChange                   Kind = "NO_CHANGE"
	Regression                 Kind = "REGRESSION"
	NoProgress                 Kind = "NO_PROGRESS"
	CodeMismatch               Kind = "CODE_MISMATCH"

	// CompilationErrors: the input does not compile and the settings
	// do not allow it.
	CompilationErrors Kind = "COMPILATION_ERRORS"
	// UnexpectedDiagnostics: a Valid or NoFix run found diagnostics or
	// actions where none were expected.
	UnexpectedDiagnostics Kind = "UNEXPECTED_DIAGNOSTICS"
	// Collaborator: the builder, reference resolver, analyzer, or
	// provider failed. The original error is preserved as Cause.
	Collaborator Kind = "COLLABORATOR"
)

// Error is the structured error type for all verification failures.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or ""
// when err is nil or carries no Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err's chain contains an *Error of kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
