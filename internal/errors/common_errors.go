package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeRetrieval   ErrorType = "RETRIEVAL"
	ErrTypeParsing     ErrorType = "PARSING"
	ErrTypeDataQuality ErrorType = "DATA_QUALITY"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
	ErrTypeConfig      ErrorType = "CONFIG"
)

// Sentinels for errors.Is. Any AppError of the same type matches.
var (
	ErrRetrieval   = &AppError{Type: ErrTypeRetrieval, Message: "data source unavailable"}
	ErrParsing     = &AppError{Type: ErrTypeParsing, Message: "data could not be parsed"}
	ErrDataQuality = &AppError{Type: ErrTypeDataQuality, Message: "data quality check failed"}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same Type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewRetrievalError reports an unreachable or unreadable data source.
func NewRetrievalError(source string, cause error) *AppError {
	return NewAppError(ErrTypeRetrieval, fmt.Sprintf("failed to retrieve %s", source), cause).
		WithContext("source", source)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewDataQualityError reports a value outside its declared vocabulary.
func NewDataQualityError(table, column, value string, row int) *AppError {
	return NewAppError(ErrTypeDataQuality,
		fmt.Sprintf("%s row %d: %s value %q is not in the vocabulary", table, row, column, value), nil).
		WithContext("table", table).
		WithContext("column", column).
		WithContext("row", row).
		WithContext("value", value)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error. cause is typically a sentinel
// callers match with errors.Is.
func NewNotFoundError(resource string, cause error) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
