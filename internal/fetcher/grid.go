package fetcher

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is a supported spreadsheet encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no reader.
	ErrUnsupportedFormat = eris.New("fetcher: unsupported file type")
	// ErrNoWorksheet is returned when a workbook has no sheets.
	ErrNoWorksheet = eris.New("fetcher: workbook has no worksheet")
)

// DetectFormat picks a reader from the file name extension.
func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	default:
		return "", eris.Wrapf(ErrUnsupportedFormat, "extension %q", filepath.Ext(fileName))
	}
}

// ReadGrid decodes the first worksheet of an uploaded file into rows of cells.
func ReadGrid(fileName string, data []byte) ([][]string, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return ReadXLSXBytes(data, XLSXOptions{})
	default:
		return ReadCSV(bytes.NewReader(data), CSVOptions{})
	}
}
