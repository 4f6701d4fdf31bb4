package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in the journey, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeUnauthorized Code = "unauthorized"
	CodeConflict     Code = "conflict"

	// Journey state errors: operation illegal in the current state, or the session expired.
	CodeInvalidState   Code = "invalid_state"
	CodeSessionExpired Code = "session_expired"

	// Vendor errors. CodeVendorUnavailable is retriable by the caller.
	CodeVendorFailure     Code = "vendor_failure"
	CodeVendorUnavailable Code = "vendor_unavailable"

	// CodeIncompleteEvidence is returned while mandatory vendor checks are missing or pending.
	CodeIncompleteEvidence Code = "incomplete_evidence"

	// OAuth 2.0 error codes (RFC 6749 §5.2)
	CodeInvalidGrant   Code = "invalid_grant"   // Invalid/expired/used authorization code
	CodeInvalidClient  Code = "invalid_client"  // Client assertion failed
	CodeInvalidRequest Code = "invalid_request" // Missing required parameter or malformed request
	CodeAccessDenied   Code = "access_denied"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost domain error, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
