// Package errors provides structured error types shared by the LifeOS server and client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout       = errors.New("operation timed out")
	ErrAuthFailure   = errors.New("authentication failed")
	ErrRateLimit     = errors.New("rate limit exceeded")
	ErrNotFound      = errors.New("resource not found")
	ErrDenied        = errors.New("access denied")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnavailable   = errors.New("service unavailable")
)

// APIError represents a failed call to the LifeOS REST API.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %s: %v", e.Service, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError creates a new API error.
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{Service: service, StatusCode: statusCode, Message: message}
}

// StatusSentinel maps an HTTP status onto the matching sentinel, or nil.
func StatusSentinel(status int) error {
	switch status {
	case 400, 422:
		return ErrInvalidInput
	case 401:
		return ErrAuthFailure
	case 403:
		return ErrDenied
	case 404:
		return ErrNotFound
	case 408, 504:
		return ErrTimeout
	case 429:
		return ErrRateLimit
	case 502, 503:
		return ErrUnavailable
	}
	return nil
}

// IsRetryable returns true if the error is likely transient and worth retrying.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimit) || errors.Is(err, ErrUnavailable)
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
