package fluentdb

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for the configuration and dialect failures.
var (
	// ErrMissingOrderBy is returned when a chunked iteration is requested
	// on a query without an ORDER BY clause.
	ErrMissingOrderBy = errors.New("fluentdb: you must specify an orderBy clause when using this function")

	// ErrNonNumericAmount is returned by increment and decrement when the
	// amount is not numeric.
	ErrNonNumericAmount = errors.New("fluentdb: non-numeric value passed to increment or decrement")

	// ErrIllegalOperator is returned when a null comparison value is
	// combined with an operator other than =, <> or !=.
	ErrIllegalOperator = errors.New("fluentdb: illegal operator and value combination")

	// ErrInvalidArgument is returned for malformed builder arguments.
	ErrInvalidArgument = errors.New("fluentdb: invalid argument")

	// ErrUnsupportedDriver is returned when an operation has no
	// implementation for the active driver.
	ErrUnsupportedDriver = errors.New("fluentdb: unsupported driver")

	// ErrUnsupportedType is returned when a column type has no DDL
	// renderer in the active grammar.
	ErrUnsupportedType = errors.New("fluentdb: unsupported column type")
)

// ConfigError represents a configuration error raised before any SQL is
// issued. It is never retried.
type ConfigError struct {
	Op      string // Operation that rejected the configuration
	Message string
	Cause   error // Optional sentinel or underlying error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("fluentdb: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(op, message string, cause error) *ConfigError {
	return &ConfigError{Op: op, Message: message, Cause: cause}
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

// UnsupportedDriverError is returned when an operation is dispatched to a
// driver that has no implementation for it.
type UnsupportedDriverError struct {
	Op     string // Operation, e.g. "has_table" or "inspect columns"
	Driver string // Offending driver name
}

// Error implements the error interface.
func (e *UnsupportedDriverError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("fluentdb: unsupported driver %q", e.Driver)
	}
	return fmt.Sprintf("fluentdb: unsupported %s operation for driver %q", e.Op, e.Driver)
}

// Is reports whether the target matches ErrUnsupportedDriver.
func (e *UnsupportedDriverError) Is(target error) bool {
	return target == ErrUnsupportedDriver
}

// NewUnsupportedDriverError returns a new UnsupportedDriverError.
func NewUnsupportedDriverError(op, driver string) *UnsupportedDriverError {
	return &UnsupportedDriverError{Op: op, Driver: driver}
}

// IsUnsupportedDriver returns true if the error is an UnsupportedDriverError.
func IsUnsupportedDriver(err error) bool {
	return err != nil && errors.Is(err, ErrUnsupportedDriver)
}

// UnsupportedTypeError is returned when the grammar of a dialect does not
// know how to render a column type.
type UnsupportedTypeError struct {
	Dialect string
	Type    string
}

// Error implements the error interface.
func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("fluentdb: unsupported column type %q for driver %q", e.Type, e.Dialect)
}

// Is reports whether the target matches ErrUnsupportedType.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// NewUnsupportedTypeError returns a new UnsupportedTypeError.
func NewUnsupportedTypeError(dialect, typ string) *UnsupportedTypeError {
	return &UnsupportedTypeError{Dialect: dialect, Type: typ}
}

// QueryError wraps an execution error with the statement that failed.
type QueryError struct {
	Op  string // Operation (e.g., "select", "insert", "inspect columns")
	SQL string // Statement sent to the executor
	Err error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("fluentdb: %s: %v (SQL: %s)", e.Op, e.Err, e.SQL)
	}
	return fmt.Sprintf("fluentdb: %v (SQL: %s)", e.Err, e.SQL)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(op, sql string, err error) *QueryError {
	return &QueryError{Op: op, SQL: sql, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err      error // Original error that triggered rollback
	Rollback error // Error returned by the rollback itself
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("fluentdb: rollback failed: %v: %v", e.Rollback, e.Err)
}

// Unwrap returns the underlying errors.
func (e *RollbackError) Unwrap() []error {
	return []error{e.Err, e.Rollback}
}
