// Package errs defines the error kinds surfaced to users of the trading
// service. Each kind is a sentinel; concrete failures carry a user-visible
// message and unwrap to their kind so callers can match with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrAuth              = errors.New("invalid credentials")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoPosition        = errors.New("no position")
	ErrOverSell          = errors.New("over-sell")
)

// Error is a classified failure with a message safe to show to the user.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error { return newf(ErrValidation, format, args...) }
func Conflict(format string, args ...any) error   { return newf(ErrConflict, format, args...) }
func Auth(format string, args ...any) error       { return newf(ErrAuth, format, args...) }
func NotFound(format string, args ...any) error   { return newf(ErrNotFound, format, args...) }
func NoPosition(format string, args ...any) error { return newf(ErrNoPosition, format, args...) }
func OverSell(format string, args ...any) error   { return newf(ErrOverSell, format, args...) }

func Unauthenticated(format string, args ...any) error {
	return newf(ErrUnauthenticated, format, args...)
}

func InsufficientFunds(format string, args ...any) error {
	return newf(ErrInsufficientFunds, format, args...)
}

// Message returns the user-visible text of err, or "" when err is not a
// classified error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
