package api

import (
	"fmt"
	"net/http"
)

// APIError represents an HTTP-level failure from the pCloudy API.
type APIError struct {
	StatusCode int
	Body       string
}

// Error returns a human-readable error message.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("pCloudy API error (HTTP %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("pCloudy API error (HTTP %d): %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// AuthenticationError indicates a well-formed auth response that carried no
// usable token.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Reason
}

// EnvelopeError indicates a response missing the expected result wrapper or
// an expected field within it.
type EnvelopeError struct {
	Endpoint string
	Reason   string
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Reason)
}

// LocalValidationError indicates a client-side precondition failure, such as
// an upload path that does not point at a regular file. No network call was
// made.
type LocalValidationError struct {
	Reason string
}

func (e *LocalValidationError) Error() string {
	return e.Reason
}
