package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes have the form SL-{AREA}-{NNNN}; the numeric part mirrors the
// closest HTTP status.
type DomainError struct {
	Code    string // Error code (e.g., "SL-TLS-5030")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support; two DomainErrors match by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps cause, using its text as the details.
func (e *DomainError) Wrap(cause error) *DomainError {
	if cause == nil {
		return e.WithCause(nil)
	}
	return e.WithDetails(cause.Error()).WithCause(cause)
}

// Describe returns the message and details without the code, for callers
// that render errors to end users.
func (e *DomainError) Describe() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Identity Errors (TLS)
// ============================================================================

var (
	// ErrIdentityUnavailable indicates no client certificate has been loaded yet.
	ErrIdentityUnavailable = NewDomainError("SL-TLS-5030", "client identity not available")
)

// ============================================================================
// Network Errors (NET)
// ============================================================================

var (
	// ErrRemoteUnreachable indicates the remote peer could not be reached.
	ErrRemoteUnreachable = NewDomainError("SL-NET-5020", "remote peer unreachable")

	// ErrRemoteTimeout indicates the remote peer did not answer in time.
	ErrRemoteTimeout = NewDomainError("SL-NET-5040", "remote peer timed out")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("SL-SYS-5000", "internal server error")

	// ErrNotFound indicates an unknown route.
	ErrNotFound = NewDomainError("SL-SYS-4040", "not found")

	// ErrMethodNotAllowed indicates the route does not accept the method.
	ErrMethodNotAllowed = NewDomainError("SL-SYS-4050", "method not allowed")
)
