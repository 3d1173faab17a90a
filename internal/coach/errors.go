package coach

import "fmt"

// ConfigurationError indicates a required credential or endpoint is
// missing. It is raised before any I/O is attempted.
type ConfigurationError struct {
	Setting string
	Hint    string
}

func (e *ConfigurationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("configuration error: %s is not set (%s)", e.Setting, e.Hint)
	}
	return fmt.Sprintf("configuration error: %s is not set", e.Setting)
}

// NotFoundError indicates a requested entity does not exist. Message
// carries a user-facing call to action where one applies (e.g. "upload
// a resume first").
type NotFoundError struct {
	Entity  string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s not found: %s", e.Entity, e.Message)
	}
	return fmt.Sprintf("%s not found", e.Entity)
}

// UpstreamError wraps a non-success response from the LLM endpoint.
// The provider's message is passed through untouched.
type UpstreamError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream error (status %d): %s: %v", e.StatusCode, e.Message, e.Cause)
	}
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// PersistenceError wraps a failure from the backing store. The adapter
// performs no retries; callers decide what to surface.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// UnsupportedMediaTypeError is raised when a declared-unsupported media
// type also fails the naive text decode.
type UnsupportedMediaTypeError struct {
	MediaType string
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("unsupported media type: %s", e.MediaType)
}
