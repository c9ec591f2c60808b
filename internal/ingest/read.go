package ingest

import (
	"errors"

	"github.com/sells-group/edd-cli/internal/edd"
	"github.com/sells-group/edd-cli/internal/fetcher"
)

// ReadFile decodes and classifies an uploaded EDD file without touching the
// database. It applies the file-size and row-count guards.
func ReadFile(fileName string, data []byte, maxBytes int64, maxRows int) (*edd.Classified, error) {
	if err := edd.CheckFileSize(int64(len(data)), maxBytes); err != nil {
		return nil, err
	}

	grid, err := fetcher.ReadGrid(fileName, data)
	switch {
	case errors.Is(err, fetcher.ErrUnsupportedFormat):
		return nil, &edd.FormatError{Kind: edd.KindUnsupportedFile, Detail: err.Error()}
	case errors.Is(err, fetcher.ErrNoWorksheet):
		return nil, &edd.FormatError{Kind: edd.KindNoWorksheet, Detail: err.Error()}
	case err != nil:
		// Corrupt workbooks and undecodable CSV are treated as the wrong file type.
		return nil, &edd.FormatError{Kind: edd.KindUnsupportedFile, Detail: err.Error()}
	}

	c, err := edd.Classify(grid)
	if err != nil {
		return nil, err
	}
	if err := edd.CheckRowCount(len(c.Rows), maxRows); err != nil {
		return nil, err
	}
	return c, nil
}
