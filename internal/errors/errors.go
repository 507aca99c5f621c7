// Package errors provides centralized error definitions and error handling
// utilities for taskgraph. It defines the sentinel errors of the task graph
// core, semantic error types that carry context and unwrap to those
// sentinels, and classification helpers used by the CLI.
//
// # Error Types
//
// Every failure returned by the graph store belongs to one of these kinds:
//   - NotFoundError: an unknown task id was referenced
//   - AlreadyExistsError: a caller-supplied id collided with an existing task
//   - CycleError: a dependency replacement would have closed a cycle
//   - DependencyError: a dependency outside the allowed set (expansion,
//     parent-as-dependency)
//   - ValidationError: malformed ids, enum values or paging arguments
//
// # Usage
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrCircularDependency) { ... }
//
//	var cycle *errors.CycleError
//	if errors.As(err, &cycle) {
//	    fmt.Println(cycle.Path)
//	}
//
// None of these errors are retryable: they are local validation failures
// returned synchronously. Retry policy belongs to whoever produced the input.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Task graph sentinel errors
var (
	// ErrTaskNotFound indicates that a referenced task id is not in the store.
	ErrTaskNotFound = New("task not found")
	// ErrDuplicateID indicates that a caller-supplied id already exists.
	ErrDuplicateID = New("duplicate task id")
	// ErrCircularDependency indicates that a dependency set would close a cycle.
	ErrCircularDependency = New("circular dependency")
	// ErrInvalidID indicates that an id does not follow the hierarchical format.
	ErrInvalidID = New("invalid task id")
	// ErrInvalidDependency indicates a dependency outside the allowed set.
	ErrInvalidDependency = New("invalid dependency")
	// ErrTaskCancelled indicates an operation that requires a live task was
	// attempted on a cancelled one.
	ErrTaskCancelled = New("task is cancelled")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// GraphError is the base interface for all taskgraph errors.
type GraphError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the operation may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

func newBase(message string, cause error) baseError {
	return baseError{
		message:    message,
		cause:      cause,
		severity:   SeverityWarning,
		userFacing: true,
	}
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a task id that is not present in the store.
//
// Example:
//
//	err := errors.NewNotFoundError("7")
//	fmt.Println(err) // "task '7' not found"
type NotFoundError struct {
	baseError
	TaskID string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(taskID string) *NotFoundError {
	return &NotFoundError{
		baseError: newBase(fmt.Sprintf("task '%s' not found", taskID), ErrTaskNotFound),
		TaskID:    taskID,
	}
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	return e.message
}

// AlreadyExistsError represents a caller-supplied id that is already taken.
type AlreadyExistsError struct {
	baseError
	TaskID string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(taskID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: newBase(fmt.Sprintf("task '%s' already exists", taskID), ErrDuplicateID),
		TaskID:    taskID,
	}
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	return e.message
}

// CycleError reports a rejected dependency replacement. Path lists the task
// ids along the cycle, starting and ending with the task whose dependencies
// were being replaced.
//
// Example:
//
//	err := errors.NewCycleError([]string{"1", "2", "1"})
//	fmt.Println(err) // "circular dependency: 1 -> 2 -> 1"
type CycleError struct {
	baseError
	Path []string
}

// NewCycleError creates a new CycleError for the given path.
func NewCycleError(path []string) *CycleError {
	p := make([]string, len(path))
	copy(p, path)
	return &CycleError{
		baseError: newBase("circular dependency", ErrCircularDependency),
		Path:      p,
	}
}

// Error returns the formatted error message.
func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, strings.Join(e.Path, " -> "))
}

// DependencyError reports a dependency id that a task is not allowed to hold.
//
// Example:
//
//	err := errors.NewDependencyError("3.1", "9", "unknown id in expansion")
//	fmt.Println(err) // "invalid dependency [task=3.1, dependency=9]: unknown id in expansion"
type DependencyError struct {
	baseError
	TaskID       string
	DependencyID string
}

// NewDependencyError creates a new DependencyError.
func NewDependencyError(taskID, dependencyID, reason string) *DependencyError {
	return &DependencyError{
		baseError:    newBase(reason, ErrInvalidDependency),
		TaskID:       taskID,
		DependencyID: dependencyID,
	}
}

// Error returns the formatted error message.
func (e *DependencyError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	if e.DependencyID != "" {
		parts = append(parts, fmt.Sprintf("dependency=%s", e.DependencyID))
	}

	prefix := "invalid dependency"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("invalid dependency [%s]", strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// ValidationError represents invalid input.
//
// Example:
//
//	err := errors.NewValidationError("page must be >= 1").WithField("page").WithValue(0)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError. It matches ErrInvalidInput
// unless a more specific cause is attached with WithCause.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: newBase(message, ErrInvalidInput),
	}
}

// NewInvalidIDError creates a ValidationError for a malformed task id.
func NewInvalidIDError(id, reason string) *ValidationError {
	return NewValidationError(reason).WithField("id").WithValue(id).WithCause(ErrInvalidID)
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause replaces the sentinel the error unwraps to.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%q", fmt.Sprint(e.Value)))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error is transient. No error produced by the
// task graph core is; the helper exists so callers can treat wrapped errors
// from other layers uniformly.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ge GraphError
	if As(err, &ge) {
		return ge.IsRetryable()
	}
	return false
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var ge GraphError
	if As(err, &ge) {
		return ge.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement GraphError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var ge GraphError
	if As(err, &ge) {
		return ge.Severity()
	}
	return SeverityError
}

// Kind returns a stable short name for the sentinel an error matches, for
// log attributes and CLI exit messages. Unknown errors map to "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrTaskNotFound):
		return "not_found"
	case Is(err, ErrDuplicateID):
		return "duplicate_id"
	case Is(err, ErrCircularDependency):
		return "circular_dependency"
	case Is(err, ErrInvalidID):
		return "invalid_id"
	case Is(err, ErrInvalidDependency):
		return "invalid_dependency"
	case Is(err, ErrTaskCancelled):
		return "task_cancelled"
	case Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
