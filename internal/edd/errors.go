package edd

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fatal parse failures into user-facing categories.
type ErrorKind string

const (
	KindUnsupportedFile ErrorKind = "unsupported_file"
	KindNoWorksheet     ErrorKind = "no_worksheet"
	KindInvalidHeader   ErrorKind = "invalid_header"
	KindNoData          ErrorKind = "no_data"
	KindFileTooLarge    ErrorKind = "file_too_large"
	KindTooManyRows     ErrorKind = "too_many_rows"
	KindInternal        ErrorKind = "internal"
)

var categoryMessages = map[ErrorKind]string{
	KindUnsupportedFile: "Unsupported file type. Upload an .xlsx or .csv EDD export.",
	KindNoWorksheet:     "The workbook has no worksheets.",
	KindInvalidHeader:   "The header row does not match the EDD template.",
	KindNoData:          "The file has a header but no data rows.",
	KindFileTooLarge:    "The file is larger than the allowed upload size.",
	KindTooManyRows:     "The file has more rows than a single import allows.",
	KindInternal:        "The file could not be processed.",
}

// FormatError is a fatal problem with the shape of the uploaded file.
type FormatError struct {
	Kind   ErrorKind
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("edd: %s: %s", e.Kind, e.Detail)
}

// Category returns the user-facing message for the error kind.
func (e *FormatError) Category() string { return categoryMessages[e.Kind] }

// LimitError is a fatal resource-limit violation checked before parsing.
type LimitError struct {
	Kind   ErrorKind
	Limit  int64
	Actual int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("edd: %s: %d exceeds limit %d", e.Kind, e.Actual, e.Limit)
}

// Category returns the user-facing message for the error kind.
func (e *LimitError) Category() string { return categoryMessages[e.Kind] }

// Categorize maps any parse failure to its kind and user-facing message.
// Errors that are neither a FormatError nor a LimitError are internal.
func Categorize(err error) (ErrorKind, string) {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Kind, fe.Category()
	}
	var le *LimitError
	if errors.As(err, &le) {
		return le.Kind, le.Category()
	}
	return KindInternal, categoryMessages[KindInternal]
}

// CheckFileSize rejects files above maxBytes. A non-positive limit disables the check.
func CheckFileSize(size, maxBytes int64) error {
	if maxBytes > 0 && size > maxBytes {
		return &LimitError{Kind: KindFileTooLarge, Limit: maxBytes, Actual: size}
	}
	return nil
}

// CheckRowCount rejects grids with more than maxRows data rows.
func CheckRowCount(rows, maxRows int) error {
	if maxRows > 0 && rows > maxRows {
		return &LimitError{Kind: KindTooManyRows, Limit: int64(maxRows), Actual: int64(rows)}
	}
	return nil
}
