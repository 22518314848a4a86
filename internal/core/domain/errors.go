package domain

import (
	"errors"
	"fmt"
)

// CodeCommandFailed is the only error code the server emits. It is also
// what a decoded "-" frame carries, since codes are not on the wire.
const CodeCommandFailed = 500

// CommandError is a failure of a single command. The dispatcher turns it
// into an error value on the wire and the connection keeps going.
type CommandError struct {
	Message string // Human-readable message, sent as-is to the client
	Code    int    // Numeric code (always CodeCommandFailed today)
	Cause   error  // Underlying error (if any), never sent
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *CommandError) Unwrap() error {
	return e.Cause
}

// Is matches another CommandError with the same message and code.
func (e *CommandError) Is(target error) bool {
	t, ok := target.(*CommandError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewCommandError creates a CommandError with code CodeCommandFailed.
func NewCommandError(format string, args ...any) *CommandError {
	return &CommandError{
		Message: fmt.Sprintf(format, args...),
		Code:    CodeCommandFailed,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *CommandError) WithCause(cause error) *CommandError {
	return &CommandError{
		Message: e.Message,
		Code:    e.Code,
		Cause:   cause,
	}
}

// IsCommandError reports whether err is, or wraps, a CommandError.
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

// AsCommandError extracts the CommandError from err. Errors of any other
// type are reported as an internal failure with CodeCommandFailed.
func AsCommandError(err error) *CommandError {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce
	}
	return &CommandError{Message: "internal error", Code: CodeCommandFailed, Cause: err}
}

// ============================================================================
// Command validation errors
// ============================================================================

var (
	// ErrInvalidFormat indicates the request was not an array.
	ErrInvalidFormat = NewCommandError("Invalid command format")

	// ErrEmptyCommand indicates the request array had no elements.
	ErrEmptyCommand = NewCommandError("Empty command")

	// ErrInvalidArgument indicates an argument that is neither text nor bytes.
	ErrInvalidArgument = NewCommandError("Invalid argument type")

	// ErrInvalidSize indicates a TESTINSERT size that is not a non-negative integer.
	ErrInvalidSize = NewCommandError("Size must be an integer (KB)")
)

// ErrUnknownCommand returns the error for a command name missing from the table.
func ErrUnknownCommand(name string) *CommandError {
	return NewCommandError("Unknown command %s", name)
}

// ErrWrongArity returns the error for a command called with the wrong argument count.
func ErrWrongArity(name string) *CommandError {
	return NewCommandError("wrong number of arguments for '%s' command", name)
}
