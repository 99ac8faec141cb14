// Package errors provides a lightweight structured error type (StructGenError)
// for category-based classification and retry semantics in the pipeline and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a StructGen error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"

	// Schema source resolution errors
	CategorySchema  ErrorCategory = "schema"
	CategoryNetwork ErrorCategory = "network"
	CategoryGit     ErrorCategory = "git"

	// Pipeline stage errors
	CategoryGeneration ErrorCategory = "generation"
	CategoryCompile    ErrorCategory = "compile"
	CategoryLoad       ErrorCategory = "load"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryWatch    ErrorCategory = "watch"
	CategoryCleanup  ErrorCategory = "cleanup"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// StructGenError is a structured error with category, retryability, and context
type StructGenError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for StructGenError
type ContextFields map[string]any

// Error implements the error interface
func (e *StructGenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *StructGenError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *StructGenError) WithContext(key string, value any) *StructGenError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new StructGenError
func New(category ErrorCategory, severity ErrorSeverity, message string) *StructGenError {
	return &StructGenError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new StructGenError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *StructGenError {
	return &StructGenError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// Retryable creates a new retryable StructGenError
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *StructGenError {
	return &StructGenError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// WrapRetryable creates a new retryable StructGenError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *StructGenError {
	return &StructGenError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if sge, ok := err.(*StructGenError); ok {
		return sge.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if sge, ok := err.(*StructGenError); ok {
		return sge.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a StructGenError
func GetCategory(err error) ErrorCategory {
	if sge, ok := err.(*StructGenError); ok {
		return sge.Category
	}
	return CategoryInternal
}

// ValidationError creates a new validation error for bad CLI or config input
func ValidationError(message string) *StructGenError {
	return &StructGenError{
		Category:  CategoryValidation,
		Severity:  SeverityWarning,
		Message:   message,
		Retryable: false,
	}
}

// WatchError creates a new watch-loop error
func WatchError(message string) *StructGenError {
	return &StructGenError{
		Category:  CategoryWatch,
		Severity:  SeverityError,
		Message:   message,
		Retryable: false,
	}
}

// WrapError wraps an existing error with a new StructGenError
func WrapError(err error, category ErrorCategory, message string) *StructGenError {
	return &StructGenError{
		Category:  category,
		Severity:  SeverityError,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}
