// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package listing

import (
	"errors"
	"fmt"
)

// ErrNoImages is wrapped by the ValidationError for an empty upload
var ErrNoImages = errors.New("at least one image is required")

// ValidationError rejects input before any network call
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid request: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// NetworkError is a transport failure or timeout. The call was attempted
// once and may be retried by the caller.
type NetworkError struct {
	Err     error
	Timeout bool
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return "analysis service timed out: " + e.Err.Error()
	}
	return "analysis service unreachable: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error   { return e.Err }
func (e *NetworkError) Retryable() bool { return true }

// ServiceError is a non-2xx response from the analysis service
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("analysis service returned %d: %s", e.StatusCode, e.Body)
}

// DecodeError means the response body was not a JSON object
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "invalid response from analysis service: " + e.Err.Error()
}
func (e *DecodeError) Unwrap() error { return e.Err }

// SchemaError means the response parsed but lacks the listing field
type SchemaError struct {
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("analysis service response is missing %q", e.Field)
}
