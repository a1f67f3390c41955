package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrImageNotFound   = errors.New("image not found")
)

// ValidationError is bad caller input, detected before any storage or
// persistence I/O. Maps to a 400, never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StorageError is a blob I/O failure surfaced after compensation has run.
// Maps to a 500; the wrapped cause stays server-side.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "image storage failed: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
