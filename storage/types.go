package storage

import (
	"errors"
	"fmt"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrInvalidInput  ErrorType = "invalid_input"
	ErrUnsupported   ErrorType = "unsupported"
	ErrBackendFailed ErrorType = "backend_failed"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsType reports whether err is a storage error of the given type
func IsType(err error, t ErrorType) bool {
	var se *Error
	return errors.As(err, &se) && se.Type == t
}

// Backend wraps a driver failure
func Backend(message string, err error) *Error {
	return &Error{Type: ErrBackendFailed, Message: message, Err: err}
}
