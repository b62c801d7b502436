// Package errors provides centralized error handling with category and context metadata.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

const (
	CategoryValidation        ErrorCategory = "validation"
	CategoryFileIO            ErrorCategory = "file-io"
	CategoryDatabase          ErrorCategory = "database"
	CategoryConfiguration     ErrorCategory = "configuration"
	CategoryGeneric           ErrorCategory = "generic"
	CategoryNotFound          ErrorCategory = "not-found"
	CategoryConflict          ErrorCategory = "conflict"
	CategoryForeignKey        ErrorCategory = "foreign-key"
	CategoryUnsupportedFormat ErrorCategory = "unsupported-format"
	CategoryCorruptEntry      ErrorCategory = "corrupt-entry"
	CategoryWorker            ErrorCategory = "worker-pool"
	CategoryAnalysis          ErrorCategory = "analysis"
	CategoryHashing           ErrorCategory = "hashing"
	CategoryCancellation      ErrorCategory = "cancellation"
)

// ComponentUnknown is used when the component cannot be determined.
const ComponentUnknown = "unknown"

// Sentinel errors for the repository and pipeline failure taxonomy.
// These are wrapped by EnhancedError so callers can test with errors.Is.
var (
	ErrDuplicateCaseNumber  = stderrors.New("case number already exists")
	ErrForeignKeyViolation  = stderrors.New("owning case does not exist")
	ErrCaseNotFound         = stderrors.New("case not found")
	ErrFileNotFound         = stderrors.New("evidence file not found")
	ErrUnsupportedFormat    = stderrors.New("unsupported extraction format")
	ErrStoreNotInitialized  = stderrors.New("case store is not initialized")
	ErrNoAnalyzerRegistered = stderrors.New("no analyzer registered")
)

// EnhancedError wraps an error with additional context and metadata
type EnhancedError struct {
	Err       error          // Original error
	Component string         // Component where the error occurred
	Category  ErrorCategory  // Error category for better grouping
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is implements error type checking. Two enhanced errors match when their
// categories match; otherwise matching falls through to the wrapped error.
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return Is(ee.Err, target)
}

// GetCategory returns the error category
func (ee *EnhancedError) GetCategory() string {
	return string(ee.Category)
}

// GetContext returns a copy of the error context
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	contextCopy := make(map[string]any, len(ee.Context))
	maps.Copy(contextCopy, ee.Context)
	return contextCopy
}

// ErrorBuilder provides a fluent interface for creating enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error builder wrapping err
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates a new formatted error builder
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category for better grouping
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds context data to the error
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// FileContext adds file-specific context
func (eb *ErrorBuilder) FileContext(filePath string, fileSize int64) *ErrorBuilder {
	if filePath != "" {
		eb.Context("file_path", filePath)
	}
	if fileSize > 0 {
		eb.Context("file_size", fileSize)
	}
	return eb
}

// Timing adds performance timing context
func (eb *ErrorBuilder) Timing(operation string, duration time.Duration) *ErrorBuilder {
	eb.Context("operation", operation)
	eb.Context("duration_ms", duration.Milliseconds())
	return eb
}

// Build creates the EnhancedError
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		Component: eb.component,
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
	if ee.Component == "" {
		ee.Component = ComponentUnknown
	}
	if ee.Category == "" {
		ee.Category = CategoryGeneric
	}
	return ee
}

// --- Standard library compatibility ---

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join returns an error wrapping the given errors.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// IsCategory checks whether err carries the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	if As(err, &ee) {
		return ee.Category == category
	}
	return false
}

// IsNotFound checks whether err represents a missing case or file.
func IsNotFound(err error) bool {
	return Is(err, ErrCaseNotFound) || Is(err, ErrFileNotFound) || IsCategory(err, CategoryNotFound)
}
