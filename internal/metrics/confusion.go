// Package metrics builds confusion matrices and the classification and agreement
// statistics derived from them.
package metrics

import (
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrDimensionMismatch = errors.New("metrics: true and predicted sequences differ in length")
	ErrEmpty             = errors.New("metrics: no samples")
)

// ConfusionMatrix counts (true, predicted) label pairs. Row r holds samples whose
// true label is Classes[r]; column c holds samples predicted as Classes[c].
type ConfusionMatrix struct {
	Classes []string

	counts *mat.Dense
	index  map[string]int
}

// Vocabulary returns the sorted union of distinct labels in both sequences.
func Vocabulary(trueLabels, predLabels []string) []string {
	seen := make(map[string]struct{}, len(trueLabels))
	for _, l := range trueLabels {
		seen[l] = struct{}{}
	}
	for _, l := range predLabels {
		seen[l] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for l := range seen {
		classes = append(classes, l)
	}
	slices.Sort(classes)
	return classes
}

// NewConfusionMatrix tabulates the pairs (trueLabels[i], predLabels[i]).
func NewConfusionMatrix(trueLabels, predLabels []string) (*ConfusionMatrix, error) {
	if len(trueLabels) != len(predLabels) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "%d vs %d", len(trueLabels), len(predLabels))
	}
	if len(trueLabels) == 0 {
		return nil, ErrEmpty
	}

	classes := Vocabulary(trueLabels, predLabels)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	n := len(classes)
	counts := mat.NewDense(n, n, nil)
	for i := range trueLabels {
		r, c := index[trueLabels[i]], index[predLabels[i]]
		counts.Set(r, c, counts.At(r, c)+1)
	}

	return &ConfusionMatrix{Classes: classes, counts: counts, index: index}, nil
}

// Size is the number of classes.
func (m *ConfusionMatrix) Size() int { return len(m.Classes) }

// At returns the count for true class r and predicted class c.
func (m *ConfusionMatrix) At(r, c int) int { return int(m.counts.At(r, c)) }

// Index returns the row/column of label.
func (m *ConfusionMatrix) Index(label string) (int, bool) {
	i, ok := m.index[label]
	return i, ok
}

// Total is the number of samples tabulated.
func (m *ConfusionMatrix) Total() int { return int(mat.Sum(m.counts)) }

// Correct is the number of samples on the diagonal.
func (m *ConfusionMatrix) Correct() int { return int(mat.Trace(m.counts)) }

// Max is the largest cell count.
func (m *ConfusionMatrix) Max() int { return int(mat.Max(m.counts)) }

// Min is the smallest cell count.
func (m *ConfusionMatrix) Min() int { return int(mat.Min(m.counts)) }

// Support is the number of samples whose true label is Classes[r].
func (m *ConfusionMatrix) Support(r int) int {
	return int(floats.Sum(mat.Row(nil, r, m.counts)))
}

// Predicted is the number of samples predicted as Classes[c].
func (m *ConfusionMatrix) Predicted(c int) int {
	return int(floats.Sum(mat.Col(nil, c, m.counts)))
}

// Rows copies the matrix into row-major integer slices.
func (m *ConfusionMatrix) Rows() [][]int {
	n := m.Size()
	out := make([][]int, n)
	for r := range out {
		out[r] = make([]int, n)
		for c := range out[r] {
			out[r][c] = m.At(r, c)
		}
	}
	return out
}
