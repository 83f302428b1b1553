// Package gist provides a document store backed by a single file inside a
// GitHub Gist.
package gist

import (
	"errors"
	"fmt"
)

// File represents a file entry of a gist response.
type File struct {
	Filename  string `json:"filename,omitempty"`
	Size      int64  `json:"size,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Content   string `json:"content"`
}

// Gist represents the subset of the gist resource used by the client.
type Gist struct {
	ID        string          `json:"id"`
	UpdatedAt string          `json:"updated_at,omitempty"`
	Files     map[string]File `json:"files"`
}

// UpdateRequest is the PATCH /gists/{id} payload.
type UpdateRequest struct {
	Files map[string]FileContent `json:"files"`
}

// FileContent carries the new content of one file.
type FileContent struct {
	Content string `json:"content"`
}

// User represents the authenticated account returned by GET /user.
type User struct {
	Login string `json:"login"`
}

// ErrorResponse represents an error body returned by the API.
type ErrorResponse struct {
	Message          string `json:"message"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

var (
	// ErrMissingGistID is returned when the client is configured without a gist.
	ErrMissingGistID = errors.New("gist ID is required")

	// ErrFileNotFound is returned when the gist has no file with the configured name.
	ErrFileNotFound = errors.New("file not found in gist")
)

// AuthFailureReason distinguishes rejected credentials from unreachable endpoints.
type AuthFailureReason string

const (
	ReasonInvalidCredential AuthFailureReason = "InvalidCredential"
	ReasonConnectionFailure AuthFailureReason = "ConnectionFailure"
)

// AuthenticationError is returned by NewClient when the credential cannot be verified.
type AuthenticationError struct {
	Reason AuthFailureReason
	Err    error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (%s): %v", e.Reason, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// IsInvalidCredential reports whether err is an AuthenticationError caused by the credential itself.
func IsInvalidCredential(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae) && ae.Reason == ReasonInvalidCredential
}

// APIError represents a non-success HTTP response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gist API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("gist API error (status %d): %s", e.StatusCode, e.Message)
}
