package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ClassScore holds the one-vs-rest scores of a single class.
type ClassScore struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is the metrics record of one confusion matrix. Precision, Recall and F1
// are support-weighted means of the per-class scores.
type Report struct {
	Samples   int          `json:"samples"`
	Accuracy  float64      `json:"accuracy"`
	Precision float64      `json:"precision"`
	Recall    float64      `json:"recall"`
	F1        float64      `json:"f1"`
	PerClass  []ClassScore `json:"perClass"`
}

// Evaluate scores every class of m and aggregates by support.
// A zero denominator scores zero instead of failing.
func Evaluate(m *ConfusionMatrix) Report {
	n := m.Size()
	total := m.Total()
	rep := Report{
		Samples:  total,
		Accuracy: safeDivide(float64(m.Correct()), float64(total)),
		PerClass: make([]ClassScore, n),
	}

	precision := make([]float64, n)
	recall := make([]float64, n)
	f1 := make([]float64, n)
	support := make([]float64, n)
	for i, class := range m.Classes {
		tp := float64(m.At(i, i))
		s := m.Support(i)
		p := safeDivide(tp, float64(m.Predicted(i)))
		r := safeDivide(tp, float64(s))

		precision[i], recall[i], support[i] = p, r, float64(s)
		f1[i] = safeDivide(2*p*r, p+r)
		rep.PerClass[i] = ClassScore{Class: class, Precision: p, Recall: r, F1: f1[i], Support: s}
	}

	if total > 0 {
		rep.Precision = stat.Mean(precision, support)
		rep.Recall = stat.Mean(recall, support)
		rep.F1 = stat.Mean(f1, support)
	}
	return rep
}

func safeDivide(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Row is one line of the metrics table.
type Row struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

// Table formats the headline metrics with four decimals.
func (r Report) Table() []Row {
	return []Row{
		{"Accuracy", FormatValue(r.Accuracy)},
		{"Precision", FormatValue(r.Precision)},
		{"Recall", FormatValue(r.Recall)},
		{"F1-score", FormatValue(r.F1)},
	}
}

// FormatValue renders v with four decimals.
func FormatValue(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
