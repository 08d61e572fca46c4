// Package errors provides structured errors for synthesis operations and
// their mapping to HTTP responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents internal error codes for synthesis operations
type ErrorCode int

const (
	// Success
	ErrCodeOK ErrorCode = 0

	// Client errors (4xx equivalent)
	ErrCodeInvalidArgument  ErrorCode = 1000
	ErrCodeJobNotFound      ErrorCode = 1001
	ErrCodeRunNotFound      ErrorCode = 1002
	ErrCodeUnknownCondition ErrorCode = 1003
	ErrCodeScenarioRejected ErrorCode = 1004
	ErrCodeRateLimited      ErrorCode = 1005

	// Server errors (5xx equivalent)
	ErrCodeInternal          ErrorCode = 2000
	ErrCodeUnavailable       ErrorCode = 2001
	ErrCodeDiskFull          ErrorCode = 2002
	ErrCodeDiskThrottled     ErrorCode = 2003
	ErrCodeRenderFailed      ErrorCode = 2004
	ErrCodeDatasetFailed     ErrorCode = 2005
	ErrCodeQueueFull         ErrorCode = 2006
	ErrCodeResourceExhausted ErrorCode = 2007
)

// SynthError represents a structured error with code and context
type SynthError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

// Error implements the error interface
func (e *SynthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *SynthError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error code to an HTTP status code
func (e *SynthError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeOK:
		return http.StatusOK
	case ErrCodeInvalidArgument, ErrCodeUnknownCondition, ErrCodeScenarioRejected:
		return http.StatusBadRequest
	case ErrCodeJobNotFound, ErrCodeRunNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimited, ErrCodeQueueFull, ErrCodeResourceExhausted:
		return http.StatusTooManyRequests
	case ErrCodeDiskFull, ErrCodeDiskThrottled, ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new SynthError
func New(code ErrorCode, message string, cause error) *SynthError {
	return &SynthError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Cause:   cause,
	}
}

// WithDetail adds a detail to the error
func (e *SynthError) WithDetail(key string, value interface{}) *SynthError {
	e.Details[key] = value
	return e
}

// Convenience constructors for common errors

func InvalidArgument(message string, cause error) *SynthError {
	return New(ErrCodeInvalidArgument, message, cause)
}

func JobNotFound(jobID string) *SynthError {
	return New(ErrCodeJobNotFound, fmt.Sprintf("job not found: %s", jobID), nil).
		WithDetail("job_id", jobID)
}

func RunNotFound(runID string) *SynthError {
	return New(ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", runID), nil).
		WithDetail("run_id", runID)
}

func UnknownCondition(kind, value string) *SynthError {
	return New(ErrCodeUnknownCondition, fmt.Sprintf("unknown %s condition %q", kind, value), nil).
		WithDetail("kind", kind).
		WithDetail("value", value)
}

func ScenarioRejected(reason string) *SynthError {
	return New(ErrCodeScenarioRejected, fmt.Sprintf("scenario rejected: %s", reason), nil).
		WithDetail("reason", reason)
}

func InternalError(message string, cause error) *SynthError {
	return New(ErrCodeInternal, message, cause)
}

func Unavailable(message string, cause error) *SynthError {
	return New(ErrCodeUnavailable, message, cause)
}

func DiskFull(usagePercent float64, availableBytes uint64) *SynthError {
	return New(ErrCodeDiskFull, fmt.Sprintf("disk full: %.2f%% used, %d bytes available", usagePercent, availableBytes), nil).
		WithDetail("usage_percent", usagePercent).
		WithDetail("available_bytes", availableBytes)
}

func DiskThrottled(usagePercent float64) *SynthError {
	return New(ErrCodeDiskThrottled, fmt.Sprintf("dataset writes throttled: %.2f%% used", usagePercent), nil).
		WithDetail("usage_percent", usagePercent)
}

func RenderFailed(message string, cause error) *SynthError {
	return New(ErrCodeRenderFailed, message, cause)
}

func DatasetFailed(message string, cause error) *SynthError {
	return New(ErrCodeDatasetFailed, message, cause)
}

func QueueFull(depth, limit int) *SynthError {
	return New(ErrCodeQueueFull, fmt.Sprintf("job queue full: %d/%d", depth, limit), nil).
		WithDetail("depth", depth).
		WithDetail("limit", limit)
}

// IsSynthError checks if an error is a SynthError
func IsSynthError(err error) bool {
	var se *SynthError
	return errors.As(err, &se)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var se *SynthError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}
