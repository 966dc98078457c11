package labels

import (
	"github.com/pkg/errors"
)

// Input failures. Each one is reported back to the user and leaves the form usable.
var (
	// ErrColumnDetection is returned when the upload header has no column matching
	// the true-label or predicted-label aliases.
	ErrColumnDetection = errors.New("could not detect true/pred columns")

	// ErrFileRead is returned when the uploaded table cannot be parsed.
	ErrFileRead = errors.New("error reading uploaded file")

	// ErrManualInput is returned when a manual field cannot be tokenized.
	ErrManualInput = errors.New("invalid manual input")

	// ErrLengthMismatch is returned when the true and predicted sequences differ in length.
	ErrLengthMismatch = errors.New("true labels and predicted labels must have the same length")

	// ErrNoInput is returned when neither an upload nor both manual fields were given.
	ErrNoInput = errors.New("no labels provided")

	// ErrEmptyLabels is returned when the resolved sequences contain no samples.
	ErrEmptyLabels = errors.New("no label pairs found")
)

// Codes used on the API surface.
const (
	CodeColumnDetection = "column_detection_failure"
	CodeFileRead        = "file_read_failure"
	CodeManualInput     = "manual_input_failure"
	CodeLengthMismatch  = "length_mismatch"
	CodeNoInput         = "no_input"
	CodeEmptyLabels     = "empty_labels"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrColumnDetection, CodeColumnDetection},
	{ErrFileRead, CodeFileRead},
	{ErrManualInput, CodeManualInput},
	{ErrLengthMismatch, CodeLengthMismatch},
	{ErrNoInput, CodeNoInput},
	{ErrEmptyLabels, CodeEmptyLabels},
}

// Code maps err onto its taxonomy code. The second return is false for errors that
// did not originate from label resolution.
func Code(err error) (string, bool) {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code, true
		}
	}
	return "", false
}
