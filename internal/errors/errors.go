// Package errors provides a lightweight structured error type (BlogError)
// for category-based classification across the composition engine, the
// metadata cache, and the render pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a blogsmith error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig   ErrorCategory = "config"
	CategoryMetadata ErrorCategory = "metadata"

	// Extension composition errors
	CategoryExtension ErrorCategory = "extension"

	// Metadata cache errors
	CategoryCache ErrorCategory = "cache"

	// Build and output errors
	CategoryRender     ErrorCategory = "render"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// BlogError is a structured error with category, severity, and context
type BlogError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BlogError
type ContextFields map[string]any

// Error implements the error interface
func (e *BlogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BlogError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BlogError) WithContext(key string, value any) *BlogError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new BlogError
func New(category ErrorCategory, severity ErrorSeverity, message string) *BlogError {
	return &BlogError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new BlogError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *BlogError {
	return &BlogError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// CategoryOf returns the category of err, or CategoryInternal for
// unclassified errors.
func CategoryOf(err error) ErrorCategory {
	var be *BlogError
	if stderrors.As(err, &be) {
		return be.Category
	}
	return CategoryInternal
}

// is reports whether err carries the given category anywhere in its chain.
func is(err error, cat ErrorCategory) bool {
	var be *BlogError
	if stderrors.As(err, &be) {
		return be.Category == cat
	}
	return false
}

// Configuration constructs the error raised when a config-bound property has
// no value and no default. Raised lazily at first property access.
func Configuration(key string) *BlogError {
	return New(CategoryConfig, SeverityError, fmt.Sprintf("required config key %q is not set", key)).
		WithContext("key", key)
}

// Resolution constructs the fatal error raised during composition when a
// declared extension name cannot be located.
func Resolution(name string) *BlogError {
	return New(CategoryExtension, SeverityFatal, fmt.Sprintf("extension %q not found", name)).
		WithContext("extension", name)
}

// CacheIO wraps a cache file read/write failure. Never swallowed: silent data
// loss in metadata caches is worse than a visible failure.
func CacheIO(err error, cachename string, message string) *BlogError {
	return Wrap(err, CategoryCache, SeverityError, message).
		WithContext("cache", cachename)
}

// IsConfiguration reports whether err is a missing-config-key error.
func IsConfiguration(err error) bool { return is(err, CategoryConfig) }

// IsResolution reports whether err is an extension resolution error.
func IsResolution(err error) bool { return is(err, CategoryExtension) }

// IsCacheIO reports whether err is a cache I/O error.
func IsCacheIO(err error) bool { return is(err, CategoryCache) }
