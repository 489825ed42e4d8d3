package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired means the refresh credential itself was rejected.
	// The user has to be told and sent back to login.
	ErrSessionExpired = errors.New("SESSION_EXPIRED")

	// ErrUnauthorized means no usable token could be obtained or kept
	// across one retry.
	ErrUnauthorized = errors.New("UNAUTHORIZED")

	// ErrAPI is matched by every *APIError.
	ErrAPI = errors.New("API_ERROR")
)

// APIError is a non-success response from a data endpoint.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API_ERROR: %s %s (status: %d): %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("API_ERROR: %s %s (status: %d)", e.Method, e.Path, e.Status)
}

func (e *APIError) Unwrap() error { return ErrAPI }
