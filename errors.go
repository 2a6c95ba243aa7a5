package thumbgen

import (
	"errors"
	"fmt"
	"time"
)

// ErrNetwork is matched by every transport-level failure (see FetchError).
var ErrNetwork = errors.New("network error")

// ErrInvalidCredential is matched when a provider rejects a credential check.
var ErrInvalidCredential = errors.New("invalid credential")

// ErrStorageNotConfigured is returned when storage operations are attempted
// without a configured storage backend.
var ErrStorageNotConfigured = errors.New("storage not configured")

// ValidationError is returned before any network activity when a generation
// request is missing a precondition. Field names the failed precondition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// FetchError is returned when a remote resource is unreachable or answers
// with a non-success status.
type FetchError struct {
	URL        string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports FetchError as a network failure.
func (e *FetchError) Is(target error) bool {
	return target == ErrNetwork
}

// DecodeError is returned when bytes cannot be interpreted as the declared
// media type, or when encoded text is not valid base64.
type DecodeError struct {
	MIMEType string
	Reason   string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.MIMEType == "" {
		return "decode image: " + e.Reason
	}
	return fmt.Sprintf("decode %s: %s", e.MIMEType, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ProviderResponseError is returned when a provider call succeeded at the
// transport level but carried no usable image.
type ProviderResponseError struct {
	Provider Provider
	Model    string
	Reason   string
}

func (e *ProviderResponseError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Provider, e.Model, e.Reason)
}

// RateLimitError is returned when a rate limit is hit.
type RateLimitError struct {
	RetryAfter time.Duration
	LimitType  string
	Model      string
	Err        error // Underlying error from the provider
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %s limit, retry after %v",
		e.Model, e.LimitType, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// AggregateError is returned when every attempt of a run failed.
// Err is the first recorded attempt failure, if any.
type AggregateError struct {
	Attempts int
	Err      error
}

func (e *AggregateError) Error() string {
	if e.Err == nil {
		return "failed to generate thumbnails"
	}
	return "failed to generate thumbnails: " + e.Err.Error()
}

func (e *AggregateError) Unwrap() error {
	return e.Err
}
