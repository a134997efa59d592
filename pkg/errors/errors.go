package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Upstream API errors
//
// The social-metrics provider returns distinct failure classes that
// operators care about; they are classified here but handled uniformly
// as isolated per-symbol failures at the call site.

var (
	// ErrUpstreamCredentials indicates the upstream API rejected our key
	ErrUpstreamCredentials = errors.New("invalid upstream API credentials")

	// ErrUpstreamRateLimit indicates the upstream API rate limit was hit
	ErrUpstreamRateLimit = errors.New("upstream rate limit exceeded")

	// ErrUpstreamUnavailable indicates the upstream API is down
	ErrUpstreamUnavailable = errors.New("upstream API unavailable")

	// ErrUpstream indicates a generic upstream API failure
	ErrUpstream = errors.New("upstream API error")
)

// Pipeline errors

var (
	// ErrNoJobID indicates a pipeline run was requested without a job identifier
	ErrNoJobID = errors.New("no job ID provided")

	// ErrNoMetrics indicates no usable metrics data was returned for a symbol
	ErrNoMetrics = errors.New("no usable metrics data")
)

// DomainError wraps an error with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
