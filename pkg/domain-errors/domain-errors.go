package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in client orchestration terms, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeInvalidInput Code = "invalid_input"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeTimeout      Code = "timeout"

	// Orchestration taxonomy
	CodeAuthenticationFailed Code = "authentication_failed"       // Interactive sign-in did not complete
	CodeServiceProvisioning  Code = "service_provisioning_failed" // Registry build could not construct a handle
	CodeRemoteCallFailed     Code = "remote_call_failed"          // Failure envelope or transport error
	CodeDecodeViolation      Code = "decode_violation"            // Response did not match the expected encoding
	CodeStaleHandle          Code = "stale_handle"                // Handle used after its session changed
)

// Coder is implemented by structured errors that carry a domain code without
// being an *Error themselves.
type Coder interface {
	DomainCode() Code
}

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across session, registry, and transport layers.
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

// DomainCode implements Coder.
func (e *Error) DomainCode() Code {
	return e.Code
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
// If the wrapped error already carries a domain code, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	if existing, ok := CodeOf(err); ok {
		return &Error{Code: existing, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the first domain code found in the error chain.
func CodeOf(err error) (Code, bool) {
	var c Coder
	if errors.As(err, &c) {
		return c.DomainCode(), true
	}
	return "", false
}

// HasCode checks if an error carries the given domain code.
func HasCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// Matches reports whether target is a domain error with the given code.
// Structured errors use it to implement Is against code sentinels.
func Matches(target error, code Code) bool {
	t, ok := target.(*Error)
	return ok && t.Code == code
}
