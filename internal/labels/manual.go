package labels

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ParseLabels splits a comma separated field into trimmed label tokens.
// Empty tokens are kept: "a,,b" yields three labels.
func ParseLabels(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, errors.Wrap(ErrManualInput, "labels must be valid UTF-8 text")
	}
	parts := strings.Split(text, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out, nil
}

// provided reports whether a manual field carries anything besides whitespace.
func provided(field string) bool {
	return strings.TrimSpace(field) != ""
}
