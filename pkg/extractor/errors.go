package extractor

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for files whose extension is not .pdf or .docx.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ExtractionError reports that a supported document could not be read.
type ExtractionError struct {
	Filename string
	Format   Format
	Cause    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("error processing %s document %s: %v", e.Format, e.Filename, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
