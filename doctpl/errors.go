package doctpl

import (
	"errors"

	"github.com/lvillar/pdftemplate/internal/imagesrc"
	"github.com/lvillar/pdftemplate/table"
)

// Sentinel errors for document rendering.
var (
	// ErrInvalidDocument is matched by malformed JSON, unknown element
	// kinds, unknown enum values and negative margins.
	ErrInvalidDocument = errors.New("doctpl: invalid document")

	// ErrLayout is matched by table width violations.
	ErrLayout = table.ErrLayout

	// ErrResourceNotFound is matched when an image path is empty or names
	// no file.
	ErrResourceNotFound = imagesrc.ErrNotFound
)

// ResourceError reports a missing image. It matches ErrResourceNotFound
// and, for missing files, fs.ErrNotExist.
type ResourceError = imagesrc.NotFoundError

// WidthError reports a table wider than the printable width.
type WidthError = table.WidthError
