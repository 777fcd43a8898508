package entities

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a source failure
type ErrorKind string

const (
	// ConfigError is a missing or invalid credential or endpoint. Not retryable.
	ConfigError ErrorKind = "config_error"
	// NetworkError is a timeout, refused connection or rate limit. Transient.
	NetworkError ErrorKind = "network_error"
	// UpstreamError is a provider-side 4xx/5xx or error payload.
	UpstreamError ErrorKind = "upstream_error"
	// ValidationError is malformed input or a malformed upstream record.
	ValidationError ErrorKind = "validation_error"
)

// SourceError is the error returned by every source adapter
type SourceError struct {
	Kind    ErrorKind
	Source  string
	Message string
	Timeout bool
	Err     error
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Source, e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a ConfigError for source
func NewConfigError(source, message string) *SourceError {
	return &SourceError{Kind: ConfigError, Source: source, Message: message}
}

// NewNetworkError creates a NetworkError for source
func NewNetworkError(source, message string, err error) *SourceError {
	return &SourceError{Kind: NetworkError, Source: source, Message: message, Err: err}
}

// NewTimeoutError creates a NetworkError flagged as a timeout
func NewTimeoutError(source string, err error) *SourceError {
	return &SourceError{Kind: NetworkError, Source: source, Message: "request timed out", Timeout: true, Err: err}
}

// NewUpstreamError creates an UpstreamError for source
func NewUpstreamError(source, message string, err error) *SourceError {
	return &SourceError{Kind: UpstreamError, Source: source, Message: message, Err: err}
}

// NewValidationError creates a ValidationError for source
func NewValidationError(source, message string) *SourceError {
	return &SourceError{Kind: ValidationError, Source: source, Message: message}
}

// AsSourceError extracts a SourceError from an error chain
func AsSourceError(err error) (*SourceError, bool) {
	var se *SourceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// KindOf returns the error kind, or UpstreamError for unclassified errors
func KindOf(err error) ErrorKind {
	if se, ok := AsSourceError(err); ok {
		return se.Kind
	}
	return UpstreamError
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	se, ok := AsSourceError(err)
	return ok && se.Kind == kind
}

// UserMessage is the text shown for a domain-level failure. Wrapped causes are
// left out so raw upstream payloads never reach the caller.
func UserMessage(err error) string {
	if se, ok := AsSourceError(err); ok {
		return se.Message
	}
	return "unexpected error"
}
