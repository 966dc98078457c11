package labels

import (
	"slices"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
)

// Header aliases, compared after Unicode case folding.
var (
	TrueAliases = []string{"true", "t", "actual", "label"}
	PredAliases = []string{"pred", "predicted", "p"}
)

// Columns holds the header positions picked for each sequence.
type Columns struct {
	True     int
	Pred     int
	TrueName string
	PredName string
}

// DetectColumns picks the first header matching each alias set.
func DetectColumns(header []string) (Columns, error) {
	fold := cases.Fold()
	cols := Columns{True: -1, Pred: -1}
	for i, name := range header {
		key := fold.String(strings.TrimSpace(name))
		if cols.True < 0 && slices.Contains(TrueAliases, key) {
			cols.True, cols.TrueName = i, name
		}
		if cols.Pred < 0 && slices.Contains(PredAliases, key) {
			cols.Pred, cols.PredName = i, name
		}
	}

	switch {
	case cols.True < 0 && cols.Pred < 0:
		return cols, errors.Wrapf(ErrColumnDetection, "header %q has neither a true column %v nor a pred column %v",
			header, TrueAliases, PredAliases)
	case cols.True < 0:
		return cols, errors.Wrapf(ErrColumnDetection, "header %q has no true column %v", header, TrueAliases)
	case cols.Pred < 0:
		return cols, errors.Wrapf(ErrColumnDetection, "header %q has no pred column %v", header, PredAliases)
	}
	return cols, nil
}
