package redmine

import (
	"errors"
	"fmt"
	"strings"
)

// AuthError indicates the API key was rejected (HTTP 401).
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("redmine auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ConnectionError indicates a network-level failure (DNS, timeout, TLS,
// connection reset) or a non-auth HTTP failure while reading.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("redmine connection error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("redmine connection error: %s", e.Message)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err (or any error in its chain) is a
// ConnectionError.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// ValidationError indicates the server rejected a well-formed request with
// HTTP 422. Errors holds every field error reported by the server, in
// server order.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("redmine validation error: %s", strings.Join(e.Errors, ", "))
}

// IsValidationError reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// APIError indicates a non-2xx status on a mutating call that is neither an
// auth failure nor a validation rejection.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("redmine API error: status %d", e.StatusCode)
}

// IsAPIError reports whether err (or any error in its chain) is an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
