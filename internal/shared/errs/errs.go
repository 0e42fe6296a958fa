// Package errs defines the machine-readable error taxonomy shared by the engine.
// Handlers branch on Code, never on message text.
package errs

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidConfig         Code = "invalid_config"
	CodeInvalidTime           Code = "invalid_time"
	CodeInvalidRequest        Code = "invalid_request"
	CodeNotFound              Code = "not_found"
	CodeIllegalTransition     Code = "illegal_transition"
	CodeOverrideRequiresActor Code = "override_requires_actor"
	CodeNotOption             Code = "not_option"
	CodeSlotUnavailable       Code = "slot_unavailable"
	CodeNoTableAvailable      Code = "no_table_available"
	CodeInternal              Code = "internal"
)

// Error carries a Code alongside the human-readable message.
type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so errors.Is(err, errs.New(code, "")) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithDetail attaches a machine-readable detail to the error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// DetailsOf returns the details of the first *Error in err's chain.
func DetailsOf(err error) map[string]interface{} {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}
