package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Error kinds. Every failure a client can act on wraps exactly one of these.
var (
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid state")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error carries a client-safe message alongside its kind.
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

func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) error {
	return Errorf(ErrValidation, format, args...)
}

// checkLength bounds the trimmed value to limit characters.
func checkLength(field, value string, limit int) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > limit {
		return validationError("%s must be at most %d characters", field, limit)
	}
	return nil
}

func checkMaxInt(field string, v int) error {
	if v > math.MaxInt32 {
		return validationError("%s must be at most %d", field, math.MaxInt32)
	}
	return nil
}

// checkAmount requires a positive amount that is still positive once
// rounded to cents.
func checkAmount(field string, v float64) error {
	cents := RoundCents(v)
	if cents <= 0 {
		return validationError("%s must be positive", field)
	}
	if cents > MaxAmount {
		return validationError("%s must be at most %.2f", field, MaxAmount)
	}
	return nil
}
