package pdftemplate

import (
	"errors"
	"fmt"

	"github.com/lvillar/pdftemplate/doctpl"
	"github.com/lvillar/pdftemplate/internal/fileio"
)

// Sentinel errors for the failure kinds a caller may want to tell apart.
var (
	// ErrInvalidDocument: malformed JSON, unknown element kind, unknown enum
	// value or negative margin. Nothing is laid out.
	ErrInvalidDocument = doctpl.ErrInvalidDocument

	// ErrLayout: a table is wider than the printable width.
	ErrLayout = doctpl.ErrLayout

	// ErrResourceNotFound: an image or background file is missing.
	ErrResourceNotFound = doctpl.ErrResourceNotFound

	ErrFileExists               = fileio.ErrFileExists
	ErrInvalidCredentials       = fileio.ErrInvalidCredentials
	ErrImpersonationUnsupported = fileio.ErrImpersonationUnsupported

	ErrInvalidFileProperties = errors.New("pdftemplate: invalid file properties")
)

// TaskError represents a failed CreatePdf call. It wraps the underlying
// error and names the stage that failed.
type TaskError struct {
	Op  string // "credentials", "parse", "layout", "resolve" or "write"
	Err error
}

func (e *TaskError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdftemplate.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pdftemplate.%s: unknown error", e.Op)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// newTaskError creates a new TaskError wrapping err with the stage name.
func newTaskError(op string, err error) *TaskError {
	return &TaskError{Op: op, Err: err}
}
