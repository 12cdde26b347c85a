package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeDailyQuota    ErrorType = "daily_quota"
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeParsing       ErrorType = "parsing"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeServerError   ErrorType = "server_error"
	ErrorTypePartialBatch  ErrorType = "partial_batch"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error represents a scraping error with type information. Platform and
// Code are optional; Code carries the HTTP status when one exists.
type Error struct {
	Type     ErrorType
	Platform string
	Message  string
	Code     int
	Err      error
}

func (e *Error) Error() string {
	prefix := string(e.Type)
	if e.Platform != "" {
		prefix = fmt.Sprintf("%s: %s", e.Platform, e.Type)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", prefix, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error.
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Newf creates a typed error with a formatted message.
func Newf(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a type and message to an underlying error.
func Wrap(err error, t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// WithPlatform tags the error with the platform it came from.
func (e *Error) WithPlatform(platform string) *Error {
	e.Platform = platform
	return e
}

// WithCode attaches an HTTP status code.
func (e *Error) WithCode(code int) *Error {
	e.Code = code
	return e
}

// TypeOf extracts the ErrorType from an error chain, ErrorTypeUnknown if
// the chain holds no typed error.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether the error chain contains a typed error of type t.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeConfiguration, ErrorTypeValidation, ErrorTypeDailyQuota,
		ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing, ErrorTypePartialBatch:
		return false
	default:
		return false
	}
}

// IsRetryableError checks retryability through an error chain.
func IsRetryableError(err error) bool {
	return IsRetryable(TypeOf(err))
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 400, 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}

// FromStatusCode maps an HTTP response to a typed error.
func FromStatusCode(platform string, statusCode int, detail string) *Error {
	var t ErrorType
	var msg string
	switch {
	case statusCode == 400:
		t, msg = ErrorTypeValidation, "request rejected"
	case statusCode == 401 || statusCode == 403:
		t, msg = ErrorTypeAuth, "authentication failed"
	case statusCode == 404:
		t, msg = ErrorTypeNotFound, "content not found"
	case statusCode == 429:
		t, msg = ErrorTypeRateLimit, "rate limit exceeded"
	case statusCode >= 500:
		t, msg = ErrorTypeServerError, "server error"
	default:
		t, msg = ErrorTypeUnknown, "unexpected status"
	}
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, detail)
	}
	return &Error{Type: t, Platform: platform, Message: msg, Code: statusCode}
}
