// Package domainerrors defines the error taxonomy services return to transports.
//
// Every error that crosses a service boundary carries a Code. Transports map codes
// to status lines; callers branch on codes with HasCode instead of string matching.
package domainerrors

import (
	"errors"
)

// Code is a stable, machine-readable error identifier surfaced to API callers.
type Code string

const (
	CodeUnauthorized        Code = "unauthenticated"
	CodeForbidden           Code = "forbidden"
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeInvalidState        Code = "invalid_state"
	CodeAlreadySubmitted    Code = "already_submitted"
	CodeInvalidRole         Code = "invalid_role"
	CodeNoEvidence          Code = "no_evidence"
	CodeInvalidDocumentKind Code = "invalid_document_kind"
	CodeUploadFailed        Code = "upload_failed"
	CodeAmbiguousRole       Code = "ambiguous_role"
	CodeBadRequest          Code = "bad_request"
	CodeValidation          Code = "validation_error"
	CodeInvalidInput        Code = "invalid_input"
	CodeInvariantViolation  Code = "invariant_violation"
	CodeTimeout             Code = "timeout"
	CodeInternal            Code = "internal_error"
)

// Error is a coded domain error. Err keeps the underlying cause for logs; it is
// never rendered to API callers.
type Error struct {
	Code    Code
	Message string
	Err     error
	// Current is the lifecycle state observed when a transition lost.
	Current string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// Conflict is a CodeConflict error that also reports the state the caller
// raced against.
func Conflict(message, current string) error {
	return &Error{Code: CodeConflict, Message: message, Current: current}
}

// CurrentStateOf returns the first recorded state in err's chain, or "".
func CurrentStateOf(err error) string {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return ""
		}
		if de.Current != "" {
			return de.Current
		}
		err = de.Err
	}
	return ""
}

// HasCode reports whether any coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or an empty string.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
