// Package errors provides custom error types for the ribbonsync system.
// These errors let discovery, caching and reconciliation report per-entity
// failures that callers check with errors.Is and errors.As, so a single bad
// file or UI element never aborts a whole package.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is, As and Join re-export the standard library helpers so callers only
// need to import this package.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Common sentinel errors for the ribbonsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNameFormat indicates a file name that does not follow the naming grammar
	ErrNameFormat = errors.New("unrecognized name format")

	// ErrMissingScript indicates a command without a backing script
	ErrMissingScript = errors.New("missing script")

	// ErrUnknownAssembly indicates a link target that is not loaded
	ErrUnknownAssembly = errors.New("unknown assembly")

	// ErrDuplicateIdentity indicates two siblings sharing an identity
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrCacheMiss indicates a cache snapshot that cannot be used
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheWrite indicates a snapshot that could not be persisted
	ErrCacheWrite = errors.New("cache write failed")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NameFormatError reports a basename that does not decode under the grammar
// expected for its position.
type NameFormatError struct {
	Name   string
	Kind   string // expected entity kind, e.g. "group" or "command"
	Reason string
}

// Error implements the error interface
func (e *NameFormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot decode %q as %s: %s", e.Name, e.Kind, e.Reason)
	}
	return fmt.Sprintf("cannot decode %q as %s", e.Name, e.Kind)
}

// Is implements errors.Is support
func (e *NameFormatError) Is(target error) bool {
	return target == ErrNameFormat
}

// NewNameFormatError creates a new NameFormatError
func NewNameFormatError(name, kind, reason string) *NameFormatError {
	return &NameFormatError{Name: name, Kind: kind, Reason: reason}
}

// MissingScriptError reports a command item that has no script to run.
type MissingScriptError struct {
	Command string
	Path    string
}

// Error implements the error interface
func (e *MissingScriptError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("command %s declared by %s has no backing script", e.Command, e.Path)
	}
	return fmt.Sprintf("command %s has no backing script", e.Command)
}

// Is implements errors.Is support
func (e *MissingScriptError) Is(target error) bool {
	return target == ErrMissingScript
}

// NewMissingScriptError creates a new MissingScriptError
func NewMissingScriptError(command, path string) *MissingScriptError {
	return &MissingScriptError{Command: command, Path: path}
}

// UnknownAssemblyError reports a link group whose assembly is not loaded.
type UnknownAssemblyError struct {
	Assembly string
	Group    string
}

// Error implements the error interface
func (e *UnknownAssemblyError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("assembly %s referenced by group %s is not loaded", e.Assembly, e.Group)
	}
	return fmt.Sprintf("assembly %s is not loaded", e.Assembly)
}

// Is implements errors.Is support
func (e *UnknownAssemblyError) Is(target error) bool {
	return target == ErrUnknownAssembly
}

// NewUnknownAssemblyError creates a new UnknownAssemblyError
func NewUnknownAssemblyError(assembly, group string) *UnknownAssemblyError {
	return &UnknownAssemblyError{Assembly: assembly, Group: group}
}

// DuplicateIdentityError reports a sibling that collides with an earlier one.
type DuplicateIdentityError struct {
	Identity string
	Parent   string
	Path     string
}

// Error implements the error interface
func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("%s already exists under %s (duplicate from %s)", e.Identity, e.Parent, e.Path)
}

// Is implements errors.Is support
func (e *DuplicateIdentityError) Is(target error) bool {
	return target == ErrDuplicateIdentity
}

// NewDuplicateIdentityError creates a new DuplicateIdentityError
func NewDuplicateIdentityError(identity, parent, path string) *DuplicateIdentityError {
	return &DuplicateIdentityError{Identity: identity, Parent: parent, Path: path}
}

// CacheMissReason classifies why a snapshot was rejected.
type CacheMissReason string

const (
	// CacheMissAbsent means no snapshot exists for the tab.
	CacheMissAbsent CacheMissReason = "absent"
	// CacheMissRead means the snapshot could not be read.
	CacheMissRead CacheMissReason = "read"
	// CacheMissParse means the snapshot does not match the schema.
	CacheMissParse CacheMissReason = "parse"
	// CacheMissVersion means the snapshot was written by another format version.
	CacheMissVersion CacheMissReason = "version"
	// CacheMissHash means the tab changed since the snapshot was written.
	CacheMissHash CacheMissReason = "hash"
	// CacheMissAlias means the snapshot was built with other command aliases.
	CacheMissAlias CacheMissReason = "alias"
)

// CacheMissError reports a snapshot that cannot be used. It is never fatal.
type CacheMissError struct {
	Tab    string
	Reason CacheMissReason
	Err    error
}

// Error implements the error interface
func (e *CacheMissError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache miss for tab %s (%s): %v", e.Tab, e.Reason, e.Err)
	}
	return fmt.Sprintf("cache miss for tab %s (%s)", e.Tab, e.Reason)
}

// Unwrap implements errors.Unwrap
func (e *CacheMissError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *CacheMissError) Is(target error) bool {
	return target == ErrCacheMiss
}

// NewCacheMissError creates a new CacheMissError
func NewCacheMissError(tab string, reason CacheMissReason, err error) *CacheMissError {
	return &CacheMissError{Tab: tab, Reason: reason, Err: err}
}

// CacheWriteError reports a snapshot that could not be persisted.
type CacheWriteError struct {
	Tab  string
	Path string
	Err  error
}

// Error implements the error interface
func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("writing cache for tab %s to %s: %v", e.Tab, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *CacheWriteError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *CacheWriteError) Is(target error) bool {
	return target == ErrCacheWrite
}

// NewCacheWriteError creates a new CacheWriteError
func NewCacheWriteError(tab, path string, err error) *CacheWriteError {
	return &CacheWriteError{Tab: tab, Path: path, Err: err}
}

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
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
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", ...
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
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "walk", "stat", ...
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
	return &IOError{Operation: operation, Path: path, Message: message, Err: err}
}

// UIError represents a live UI operation that the host rejected.
type UIError struct {
	Operation string // "create", "update", "disable", "get"
	Level     string // "tab", "panel", "item", "subitem"
	Path      []string
	Err       error
}

// Error implements the error interface
func (e *UIError) Error() string {
	return fmt.Sprintf("failed to %s %s %s: %v", e.Operation, e.Level, strings.Join(e.Path, "/"), e.Err)
}

// Unwrap implements errors.Unwrap
func (e *UIError) Unwrap() error {
	return e.Err
}

// NewUIError creates a new UIError
func NewUIError(operation, level string, path []string, err error) *UIError {
	return &UIError{Operation: operation, Level: level, Path: append([]string(nil), path...), Err: err}
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

// IsNameFormat checks if an error is a name grammar error
func IsNameFormat(err error) bool {
	return errors.Is(err, ErrNameFormat)
}

// IsCacheMiss checks if an error is a cache miss
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
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
