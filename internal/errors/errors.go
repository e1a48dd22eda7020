// Package errors provides a lightweight structured error type (DocPubError)
// for category-based classification across the build pipeline and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a DocPub error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Build and processing errors
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryRender     ErrorCategory = "render"
	CategoryLinkCheck  ErrorCategory = "linkcheck"

	// External system integration errors
	CategoryPublish ErrorCategory = "publish"
	CategoryNetwork ErrorCategory = "network"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// DocPubError is a structured error with category, severity, and context
type DocPubError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for DocPubError
type ContextFields map[string]any

// Error implements the error interface
func (e *DocPubError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *DocPubError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DocPubError) WithContext(key string, value any) *DocPubError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new DocPubError
func New(category ErrorCategory, severity ErrorSeverity, message string) *DocPubError {
	return &DocPubError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new DocPubError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *DocPubError {
	return &DocPubError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapError wraps an existing error with default error severity
func WrapError(err error, category ErrorCategory, message string) *DocPubError {
	return &DocPubError{
		Category: category,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if dpe, ok := err.(*DocPubError); ok {
		return dpe.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a DocPubError
func GetCategory(err error) ErrorCategory {
	if dpe, ok := err.(*DocPubError); ok {
		return dpe.Category
	}
	return CategoryInternal
}
