// Package coreerr is the shared error taxonomy and Result envelope every
// exposed core operation returns (§6, §7). It has no dependencies on any
// other ilscope package so every component can return the same shapes
// without import cycles.
package coreerr

import "fmt"

// Code enumerates the error taxonomy every API return carries one of.
type Code string

const (
	// NotFound: a named type/method/field is absent.
	NotFound Code = "not_found"
	// NoBody: the method is abstract, extern, or P/Invoke.
	NoBody Code = "no_body"
	// InvalidInput: malformed query, invalid limit, bad token format.
	InvalidInput Code = "invalid_input"
	// Cancelled: cooperative cancellation was honored.
	Cancelled Code = "cancelled"
	// Internal: a bug or unmet invariant; carries a message.
	Internal Code = "internal"
)

// Error is the error value carried by a failed Result.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error without a wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an *Error wrapping cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NotFoundf builds a NotFound error with a formatted message.
func NotFoundf(format string, args ...interface{}) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

// Result[T] is the sum-type-shaped return value every exposed operation
// uses: either IsSuccess with a Value, or a non-nil Err.
type Result[T any] struct {
	Value T
	Err   *Error
}

// IsSuccess reports whether the operation completed without error.
func (r Result[T]) IsSuccess() bool { return r.Err == nil }

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail wraps a failed result.
func Fail[T any](err *Error) Result[T] { return Result[T]{Err: err} }
