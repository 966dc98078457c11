// Package export writes confusion matrix results as spreadsheets.
package export

import (
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/rawblock/cmgen/internal/metrics"
)

const (
	MatrixSheet  = "ConfusionMatrix"
	MetricsSheet = "Metrics"
	Corner       = "Actual \\ Predicted"
)

// Workbook builds a two-sheet workbook: the count matrix and the metrics tables.
func Workbook(m *metrics.ConfusionMatrix, rep metrics.Report, agr metrics.Agreement) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", MatrixSheet); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "naming matrix sheet")
	}
	if _, err := f.NewSheet(MetricsSheet); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "adding metrics sheet")
	}

	if err := writeMatrix(f, m); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeMetrics(f, rep, agr); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// XLSX renders the workbook into bytes.
func XLSX(m *metrics.ConfusionMatrix, rep metrics.Report, agr metrics.Agreement) ([]byte, error) {
	f, err := Workbook(m, rep, agr)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf.Bytes(), nil
}

func writeMatrix(f *excelize.File, m *metrics.ConfusionMatrix) error {
	header := make([]any, 0, m.Size()+1)
	header = append(header, Corner)
	for _, c := range m.Classes {
		header = append(header, c)
	}
	if err := setRow(f, MatrixSheet, 1, header); err != nil {
		return err
	}

	for r, counts := range m.Rows() {
		row := make([]any, 0, len(counts)+1)
		row = append(row, m.Classes[r])
		for _, v := range counts {
			row = append(row, v)
		}
		if err := setRow(f, MatrixSheet, r+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeMetrics(f *excelize.File, rep metrics.Report, agr metrics.Agreement) error {
	line := 1
	put := func(row ...any) error {
		err := setRow(f, MetricsSheet, line, row)
		line++
		return err
	}

	rows := [][]any{{"Metric", "Value"}}
	for _, r := range rep.Table() {
		rows = append(rows, []any{r.Metric, r.Value})
	}
	rows = append(rows,
		[]any{"Cohen's kappa", metrics.FormatValue(agr.Kappa)},
		[]any{"Adjusted Rand index", metrics.FormatValue(agr.AdjustedRandIndex)},
		[]any{"Variation of information (bits)", metrics.FormatValue(agr.VariationOfInformation)},
		[]any{"Samples", rep.Samples},
		nil,
		[]any{"Class", "Precision", "Recall", "F1-score", "Support"},
	)
	for _, s := range rep.PerClass {
		rows = append(rows, []any{
			s.Class,
			metrics.FormatValue(s.Precision),
			metrics.FormatValue(s.Recall),
			metrics.FormatValue(s.F1),
			s.Support,
		})
	}

	for _, row := range rows {
		if err := put(row...); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, line int, row []any) error {
	if len(row) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return errors.Wrap(err, sheet)
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return errors.Wrapf(err, "%s row %d", sheet, line)
	}
	return nil
}
