package storage

import (
	"errors"
	"fmt"
	"io"
)

// BlobStore stores opaque binary payloads and hands back a location reference
// that Delete accepts. Delete is idempotent: a reference that does not exist
// is a silent no-op.
type BlobStore interface {
	Store(filename string, r io.Reader) (string, error)
	Delete(location string) error
}

// ErrEmptyFile is returned by Store for empty or nil input.
var ErrEmptyFile = errors.New("cannot store empty file")

// PathEscapeError reports a resolved destination outside the storage root.
// Always fatal to the operation and logged as security-relevant by callers.
type PathEscapeError struct {
	Name string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("file name %q escapes the storage root", e.Name)
}
