// Package errors provides coded errors for the zencall engine.
package errors

import (
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

const (
	// ErrCodeUnknown represents an unknown error
	ErrCodeUnknown ErrorCode = 1000

	// Call errors (2000-2999)
	ErrCodeCallNotFound      ErrorCode = 2000
	ErrCodeCallNotBound      ErrorCode = 2001
	ErrCodeCallEnded         ErrorCode = 2002
	ErrCodeInvalidTransition ErrorCode = 2003
	ErrCodeCallLimitReached  ErrorCode = 2004

	// Participant/session errors (3000-3999)
	ErrCodeParticipantNotFound ErrorCode = 3000
	ErrCodeParticipantExists   ErrorCode = 3001
	ErrCodeSessionNotFound     ErrorCode = 3002
	ErrCodeNotSpeakerLayout    ErrorCode = 3003

	// Backend errors (4000-4999)
	ErrCodeBackendUnavailable ErrorCode = 4000
	ErrCodeCommandRejected    ErrorCode = 4001
	ErrCodeSubscribeFailed    ErrorCode = 4002
	ErrCodeConnectionFailed   ErrorCode = 4003
	ErrCodeTimeout            ErrorCode = 4004

	// Profile errors (5000-5999)
	ErrCodeProfileNotFound ErrorCode = 5000
	ErrCodeProfileResolve  ErrorCode = 5001
	ErrCodeCacheError      ErrorCode = 5002

	// Consent errors (6000-6999)
	ErrCodeConsentRejected ErrorCode = 6000

	// Configuration errors (7000-7999)
	ErrCodeInvalidConfig ErrorCode = 7000
	ErrCodeMissingConfig ErrorCode = 7001
)

// Error represents a custom error with code and message
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and message
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsErrorCode checks if the error has the given error code
func IsErrorCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	if e, ok := err.(*Error); ok {
		return e.Code == code
	}

	return false
}

// GetErrorCode returns the error code from an error, or ErrCodeUnknown if not found
func GetErrorCode(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	if e, ok := err.(*Error); ok {
		return e.Code
	}

	return ErrCodeUnknown
}

// NewParticipantNotFoundError creates a participant not found error
func NewParticipantNotFoundError(peerID string) *Error {
	return New(ErrCodeParticipantNotFound, fmt.Sprintf("participant not found: %s", peerID))
}

// NewCommandRejectedError creates a backend command rejection error
func NewCommandRejectedError(command string, cause error) *Error {
	return Wrap(ErrCodeCommandRejected, fmt.Sprintf("backend rejected %s", command), cause)
}

// NewProfileResolveError creates a profile resolution error
func NewProfileResolveError(peerID string, cause error) *Error {
	return Wrap(ErrCodeProfileResolve, fmt.Sprintf("failed to resolve profile: %s", peerID), cause)
}

// NewConnectionFailedError creates a backend connection error
func NewConnectionFailedError(cause error) *Error {
	return Wrap(ErrCodeConnectionFailed, "backend connection failed", cause)
}

// NewInvalidConfigError creates an invalid configuration error
func NewInvalidConfigError(message string) *Error {
	return New(ErrCodeInvalidConfig, message)
}
