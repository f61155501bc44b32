// Package errors provides custom error types for the masterlink system.
// These errors enable programmatic error checking with errors.Is and
// errors.As and carry enough context to explain why a linkage run failed.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// As is an alias for the standard library errors.As.
var As = errors.As

// Common sentinel errors for the masterlink system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupported indicates a batch requested an operation the linker does not perform
	ErrUnsupported = errors.New("unsupported operation")

	// ErrMissingConfig indicates a source referenced at runtime has no registry entry
	ErrMissingConfig = errors.New("missing configuration")

	// ErrStoreRead indicates that reading from the backing store failed
	ErrStoreRead = errors.New("store read failed")

	// ErrLocked indicates another linkage run currently holds the run lock
	ErrLocked = errors.New("linkage run already in progress")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// UnsupportedOperationError is returned when a batch carries work the linker
// cannot perform, such as updates to already-linked records.
type UnsupportedOperationError struct {
	Operation string
	Sources   []string
}

// Error implements the error interface
func (e *UnsupportedOperationError) Error() string {
	if len(e.Sources) > 0 {
		return fmt.Sprintf("unsupported operation %s (sources: %s)", e.Operation, strings.Join(e.Sources, ", "))
	}
	return fmt.Sprintf("unsupported operation %s", e.Operation)
}

// Is implements errors.Is support
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupported
}

// NewUnsupportedOperationError creates a new UnsupportedOperationError
func NewUnsupportedOperationError(operation string, sources ...string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Operation: operation, Sources: sources}
}

// MissingConfigurationError is returned when a source has no registry entry.
type MissingConfigurationError struct {
	Source string
}

// Error implements the error interface
func (e *MissingConfigurationError) Error() string {
	return fmt.Sprintf("source %q is not configured in the registry", e.Source)
}

// Is implements errors.Is support
func (e *MissingConfigurationError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewMissingConfigurationError creates a new MissingConfigurationError
func NewMissingConfigurationError(source string) *MissingConfigurationError {
	return &MissingConfigurationError{Source: source}
}

// StoreError represents a failed read against the backing store.
type StoreError struct {
	Operation string // "open", "read", "snapshot", "scan"
	Table     string
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("store %s of table %s: %v", e.Operation, e.Table, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreRead
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, table string, err error) *StoreError {
	return &StoreError{Operation: operation, Table: table, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "lock"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnsupported checks if an error is an unsupported operation error
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// IsMissingConfig checks if an error reports an unconfigured source
func IsMissingConfig(err error) bool {
	return errors.Is(err, ErrMissingConfig)
}

// IsStoreRead checks if an error is a store read failure
func IsStoreRead(err error) bool {
	return errors.Is(err, ErrStoreRead)
}

// IsLocked checks if an error reports a concurrent linkage run
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapStore wraps an error as a StoreError
func WrapStore(operation, table string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(operation, table, err)
}
