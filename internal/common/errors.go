package common

import (
	"errors"
	"fmt"
)

// Common error types used across the application
var (
	// ErrInvalidConfiguration indicates configuration issues
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrBusClosed is returned when an event is sent after the event bus was closed
	ErrBusClosed = errors.New("event bus closed")
	// ErrContentTooLarge indicates a response body above the configured limit
	ErrContentTooLarge = errors.New("content too large")
)

// WrapError wraps an error with additional context information
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context information
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message
func NewError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// ValidationError represents validation errors with field-specific information
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// PatternError is returned when an ignore pattern does not compile.
type PatternError struct {
	Pattern string
	Wrapped error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid ignore pattern '%s': %v", e.Pattern, e.Wrapped)
}

func (e *PatternError) Unwrap() error {
	return e.Wrapped
}

// NewPatternError creates a new pattern error
func NewPatternError(pattern string, wrapped error) *PatternError {
	return &PatternError{Pattern: pattern, Wrapped: wrapped}
}

// TransportError represents a failed fetch: either the request did not complete
// (StatusCode is 0) or the server answered with a non-2xx status.
type TransportError struct {
	URL        string
	StatusCode int
	Body       string
	Wrapped    error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP request to %s failed with status %d and body: %s", e.URL, e.StatusCode, e.Body)
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("HTTP request to %s failed: %v", e.URL, e.Wrapped)
	}
	return fmt.Sprintf("HTTP request to %s failed", e.URL)
}

func (e *TransportError) Unwrap() error {
	return e.Wrapped
}

// HasStatus reports whether the server produced a response.
func (e *TransportError) HasStatus() bool {
	return e.StatusCode != 0
}

// NewTransportError creates a transport error for a request that never produced a usable response
func NewTransportError(url string, wrapped error) *TransportError {
	return &TransportError{URL: url, Wrapped: wrapped}
}

// NewHTTPErrorWithURL creates a transport error for a non-2xx response
func NewHTTPErrorWithURL(statusCode int, body, url string) *TransportError {
	return &TransportError{URL: url, StatusCode: statusCode, Body: body}
}

// FormatError is returned when a response declared as JSON cannot be parsed.
type FormatError struct {
	URL     string
	Wrapped error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid JSON from %s: %v", e.URL, e.Wrapped)
}

func (e *FormatError) Unwrap() error {
	return e.Wrapped
}

// ChannelError wraps a failure of a notification channel handler.
type ChannelError struct {
	Handler string
	Op      string
	Wrapped error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel '%s' failed during %s: %v", e.Handler, e.Op, e.Wrapped)
}

func (e *ChannelError) Unwrap() error {
	return e.Wrapped
}

// NewChannelError creates a new channel error
func NewChannelError(handler, op string, wrapped error) *ChannelError {
	return &ChannelError{Handler: handler, Op: op, Wrapped: wrapped}
}

// FatalBusError is returned by a watcher when a failure could not be reported
// because the event bus no longer accepts events. Both errors are kept.
type FatalBusError struct {
	URL         string
	Cause       error
	DeliveryErr error
}

func (e *FatalBusError) Error() string {
	return fmt.Sprintf("watcher failed with [%v] while checking %s, and then failed again with [%v] while sending failure notification",
		e.Cause, e.URL, e.DeliveryErr)
}

func (e *FatalBusError) Unwrap() []error {
	return []error{e.Cause, e.DeliveryErr}
}

// StatusAndBody extracts the HTTP status and body carried by err, if any.
func StatusAndBody(err error) (*int, *string) {
	var transportErr *TransportError
	if !errors.As(err, &transportErr) || !transportErr.HasStatus() {
		return nil, nil
	}
	status := transportErr.StatusCode
	body := transportErr.Body
	return &status, &body
}
