package tts

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Common TTS errors
var (
	// ErrNoEngineConfigured indicates no TTS backend has been selected
	ErrNoEngineConfigured = errors.New("no TTS engine configured - specify --engine gtts, elevenlabs, piper or google")

	// ErrInvalidEngine indicates an unknown backend was specified
	ErrInvalidEngine = errors.New("invalid TTS engine specified")

	// ErrBackend is matched by every *BackendError
	ErrBackend = errors.New("speech backend failed")

	// ErrConfig is matched by every *ConfigError
	ErrConfig = errors.New("invalid configuration")

	// ErrEmptyText indicates a request without anything to say
	ErrEmptyText = errors.New("text cannot be empty")
)

// BackendError reports a failed synthesis call: transport failure, timeout,
// subprocess failure or a non-success response from the vendor.
type BackendError struct {
	// Backend is the engine name, e.g. "elevenlabs".
	Backend string

	// Status is the HTTP status code for network backends, 0 otherwise.
	Status int

	// Message is the vendor's error body or a short description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface
func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s backend", e.Backend)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *BackendError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrBackend.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

// Retryable reports whether repeating the same call may succeed.
func (e *BackendError) Retryable() bool {
	var netErr net.Error
	switch {
	case e.Status == http.StatusTooManyRequests,
		e.Status == http.StatusRequestTimeout,
		e.Status >= 500:
		return true
	case errors.Is(e.Cause, context.DeadlineExceeded):
		return true
	case errors.As(e.Cause, &netErr) && netErr.Timeout():
		return true
	default:
		return false
	}
}

// NewBackendError creates a backend error wrapping cause.
func NewBackendError(backend, message string, cause error) *BackendError {
	return &BackendError{
		Backend: backend,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError reports an invalid setting, detected before any work starts.
type ConfigError struct {
	Field string
	Msg   string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Msg
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// Is reports whether target is ErrConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError creates a configuration error for field.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// IsRetryable returns true if err is a retryable *BackendError.
func IsRetryable(err error) bool {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Retryable()
	}
	return false
}
