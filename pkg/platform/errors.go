package platform

import (
	"fmt"
	"net/http"
	"strings"
)

// AuthError indicates the credential exchange failed. Always fatal.
type AuthError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// APIError indicates a non-2xx HTTP response from the platform.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("platform returned %d: %s", e.StatusCode, truncate(e.Body, 300))
}

// Temporary reports whether the response suggests a retriable condition.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError ||
		e.StatusCode == http.StatusTooManyRequests
}

// ErrorEntry is one application-level error in a GraphQL response.
type ErrorEntry struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLError indicates the response body carried an errors array.
type GraphQLError struct {
	Entries []ErrorEntry
}

// Error implements the error interface.
func (e *GraphQLError) Error() string {
	msgs := make([]string, 0, len(e.Entries))
	for _, entry := range e.Entries {
		msgs = append(msgs, entry.Message)
	}
	return fmt.Sprintf("graphql errors: %s", strings.Join(msgs, "; "))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
