// Package metaerr defines the error kinds surfaced by analysis and rewrite
// operations.
package metaerr

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// Sentinel kinds. Use errors.Is to test for them.
var (
	// ErrNotFound indicates the path (or the package part an operation
	// needs) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIO covers permission, disk and truncated read failures.
	ErrIO = errors.New("i/o error")

	// ErrUnsupportedFormat indicates the operation is not defined for the
	// detected format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrMalformedDocument indicates the container opened but an internal
	// structure could not be parsed.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrInvalidValue rejects caller input such as a blank field value.
	ErrInvalidValue = errors.New("invalid value")
)

// Error ties a kind to the operation and file it happened on.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op + " " + e.Path + ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func New(kind error, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Newf builds an Error whose cause is a formatted message.
func Newf(kind error, op, path, format string, args ...any) *Error {
	return New(kind, op, path, fmt.Errorf(format, args...))
}

// FromOS classifies a filesystem error.
func FromOS(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return New(ErrNotFound, op, path, err)
	}
	return New(ErrIO, op, path, err)
}

// Summary is the short message shown to end users. The full chain stays in
// Error() for logs.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	name := filepath.Base(e.Path)
	switch {
	case errors.Is(e.Kind, ErrNotFound):
		return fmt.Sprintf("%s: file or package part not found", name)
	case errors.Is(e.Kind, ErrUnsupportedFormat):
		return fmt.Sprintf("%s: format not supported for %s", name, e.Op)
	case errors.Is(e.Kind, ErrMalformedDocument):
		return fmt.Sprintf("%s: document structure could not be parsed", name)
	case errors.Is(e.Kind, ErrInvalidValue):
		if e.Err != nil {
			return e.Err.Error()
		}
		return "invalid value"
	default:
		if errors.Is(e.Err, fs.ErrPermission) {
			return fmt.Sprintf("%s: permission denied", name)
		}
		return fmt.Sprintf("%s: could not read or write the file", name)
	}
}
