package internal

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized matches any APIError carrying a 401 status
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenMalformed is returned when a token cannot be split or decoded
	ErrTokenMalformed = errors.New("token is malformed")

	// ErrTokenNoExpiry is returned when a token decodes but carries no exp claim
	ErrTokenNoExpiry = errors.New("token has no exp claim")

	// ErrNotAuthenticated is returned by commands that need a session when there is none
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrNoteNotFound is returned when a note id is not among its application's notes
	ErrNoteNotFound = errors.New("note not found")
)

// StorageError represents errors accessing the credential database
type StorageError struct {
	Path string
	Op   string // "open", "read", "write", "clear"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// TokenDecodeError represents a token whose claims could not be read
type TokenDecodeError struct {
	Reason string
	Err    error
}

func (e *TokenDecodeError) Error() string {
	return fmt.Sprintf("token decode error: %s: %v", e.Reason, e.Err)
}

func (e *TokenDecodeError) Unwrap() error {
	return e.Err
}

// APIError represents a failed request against the backend.
// StatusCode is 0 when no response was received.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Fields     map[string]string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("api error: %s %s: %v", e.Method, e.Path, e.Err)
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Fields) > 0 {
		msg = msg + " (" + formatFields(e.Fields) + ")"
	}
	return fmt.Sprintf("api error: %s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// ValidationError holds per-field messages for input rejected before any request is sent
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + formatFields(e.Fields)
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

func formatFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+fields[name])
	}
	return strings.Join(parts, "; ")
}
