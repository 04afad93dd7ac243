package calfile

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedLine is returned for a text line that is neither a date nor a range.
	ErrMalformedLine = errors.New("malformed calendar line")

	// ErrNoCalendars is returned when a directory holds no calendar files.
	ErrNoCalendars = errors.New("no calendar files found")

	// ErrUnsupportedFormat is returned for a file extension the loader does not read.
	ErrUnsupportedFormat = errors.New("unsupported calendar file format")
)

// LineError locates a parse failure inside a calendar file.
type LineError struct {
	File string
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %q: %v", e.File, e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
