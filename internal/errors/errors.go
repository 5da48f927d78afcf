package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for the colorgrep system
type ErrorType string

const (
	// Search errors
	ErrorTypeSearch  ErrorType = "search"
	ErrorTypeTool    ErrorType = "tool"
	ErrorTypeTimeout ErrorType = "timeout"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeFile         ErrorType = "file"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Panel protocol errors
	ErrorTypeProtocol ErrorType = "protocol"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// SearchError represents a failed search request
type SearchError struct {
	Type       ErrorType
	Pattern    string
	Underlying error
	Timestamp  time.Time
}

// NewSearchError creates a new search error
func NewSearchError(pattern string, err error) *SearchError {
	return &SearchError{
		Type:       ErrorTypeSearch,
		Pattern:    pattern,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *SearchError) Error() string {
	return fmt.Sprintf("search failed for pattern %q: %v", e.Pattern, e.Underlying)
}

// Unwrap returns the underlying error
func (e *SearchError) Unwrap() error {
	return e.Underlying
}

// ToolError describes a failure of the external search tool process:
// it could not be started, exited with an error status, or ran past its deadline.
type ToolError struct {
	Type       ErrorType
	Tool       string
	ExitCode   int
	Stderr     string
	Underlying error
	Timestamp  time.Time
}

// NewToolError creates a new tool error
func NewToolError(tool string, exitCode int, stderr string, err error) *ToolError {
	return &ToolError{
		Type:       ErrorTypeTool,
		Tool:       tool,
		ExitCode:   exitCode,
		Stderr:     stderr,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewTimeoutError creates a tool error for a search that exceeded its deadline
func NewTimeoutError(tool string, timeout time.Duration) *ToolError {
	return &ToolError{
		Type:       ErrorTypeTimeout,
		Tool:       tool,
		ExitCode:   -1,
		Underlying: fmt.Errorf("search timed out after %d seconds", int(timeout.Seconds())),
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ToolError) Error() string {
	if e.Type == ErrorTypeTimeout {
		return fmt.Sprintf("%s: %v", e.Tool, e.Underlying)
	}
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d: %v", e.Tool, e.ExitCode, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ToolError) Unwrap() error {
	return e.Underlying
}

// IsTimeout reports whether the tool was stopped by its deadline
func (e *ToolError) IsTimeout() bool {
	return e.Type == ErrorTypeTimeout
}

// FileError represents a file-related error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFile
	switch {
	case isPermissionError(err):
		errorType = ErrorTypePermission
	case stderrors.Is(err, fs.ErrNotExist):
		errorType = ErrorTypeFileNotFound
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// isPermissionError checks if the error is a permission error
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, fs.ErrPermission) {
		return true
	}
	errStr := err.Error()
	return errStr == "permission denied" || errStr == "access denied"
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// ProtocolError is returned when a panel message cannot be decoded or
// does not match the schema of its command.
type ProtocolError struct {
	Type       ErrorType
	Command    string
	Underlying error
	Timestamp  time.Time
}

// NewProtocolError creates a new protocol error
func NewProtocolError(command string, err error) *ProtocolError {
	return &ProtocolError{
		Type:       ErrorTypeProtocol,
		Command:    command,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("invalid message: %v", e.Underlying)
	}
	return fmt.Sprintf("invalid %q message: %v", e.Command, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ProtocolError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}
