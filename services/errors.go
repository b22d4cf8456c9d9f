package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds returned by every service. Controllers map them to HTTP status
// codes with errors.Is.
var (
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
)

// serviceError keeps a client-facing message while unwrapping to its kind.
type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }

func invalid(format string, args ...any) error {
	return &serviceError{kind: ErrInvalidOperation, msg: fmt.Sprintf(format, args...)}
}

func unauthorized(msg string) error {
	return &serviceError{kind: ErrUnauthorized, msg: msg}
}

func notFound(what string) error {
	return &serviceError{kind: ErrNotFound, msg: what + " not found"}
}

func conflict(format string, args ...any) error {
	return &serviceError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

// dbErr turns gorm.ErrRecordNotFound into ErrNotFound and passes anything else through.
func dbErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return err
}
