package labels

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/dimchansky/utfbom"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Format is the layout of an uploaded table.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromFilename picks the table format from the upload's extension.
// Anything that is not a workbook is read as CSV.
func FormatFromFilename(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// rowSource yields a header followed by data rows. Next returns io.EOF when done.
type rowSource interface {
	Header() ([]string, error)
	Next() ([]string, error)
	Close() error
}

// Table is the pair of label columns extracted from an upload.
type Table struct {
	Columns Columns
	True    []string
	Pred    []string
}

// ReadTable extracts the true and predicted label columns from r.
// Columns are detected from the header alone; no data row is read when detection fails.
func ReadTable(r io.Reader, format Format) (*Table, error) {
	src, err := openRows(r, format)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	header, err := src.Header()
	if err != nil {
		return nil, err
	}
	cols, err := DetectColumns(header)
	if err != nil {
		return nil, err
	}

	t := &Table{Columns: cols}
	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t.True = append(t.True, cell(row, cols.True))
		t.Pred = append(t.Pred, cell(row, cols.Pred))
	}
	return t, nil
}

// cell returns the trimmed value at i, or "" when the row is too short.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func openRows(r io.Reader, format Format) (rowSource, error) {
	switch format {
	case FormatXLSX:
		return openXLSX(r)
	case FormatCSV, "":
		return newCSVRows(r), nil
	default:
		return nil, errors.Wrapf(ErrFileRead, "unsupported table format %q", format)
	}
}

type csvRows struct {
	r *csv.Reader
}

func newCSVRows(r io.Reader) *csvRows {
	cr := csv.NewReader(utfbom.SkipOnly(r))
	cr.TrimLeadingSpace = true
	// Short rows are allowed; missing cells read as empty labels.
	cr.FieldsPerRecord = -1
	return &csvRows{r: cr}
}

func (c *csvRows) Header() ([]string, error) {
	header, err := c.r.Read()
	if err == io.EOF {
		return nil, errors.Wrap(ErrFileRead, "file is empty")
	}
	if err != nil {
		return nil, errors.Wrapf(ErrFileRead, "header: %v", err)
	}
	return header, nil
}

func (c *csvRows) Next() ([]string, error) {
	row, err := c.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.Wrapf(ErrFileRead, "%v", err)
	}
	return row, nil
}

func (c *csvRows) Close() error { return nil }

type xlsxRows struct {
	f     *excelize.File
	rows  *excelize.Rows
	sheet string
	line  int
}

func openXLSX(r io.Reader) (*xlsxRows, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrapf(ErrFileRead, "workbook: %v", err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, errors.Wrap(ErrFileRead, "workbook has no sheets")
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(ErrFileRead, "sheet %q: %v", sheets[0], err)
	}
	return &xlsxRows{f: f, rows: rows, sheet: sheets[0]}, nil
}

func (x *xlsxRows) Header() ([]string, error) {
	row, err := x.Next()
	if err == io.EOF {
		return nil, errors.Wrapf(ErrFileRead, "sheet %q is empty", x.sheet)
	}
	return row, err
}

// Next skips rows with no cells, matching how blank CSV lines are skipped.
func (x *xlsxRows) Next() ([]string, error) {
	for x.rows.Next() {
		x.line++
		cols, err := x.rows.Columns()
		if err != nil {
			return nil, errors.Wrapf(ErrFileRead, "sheet %q row %d: %v", x.sheet, x.line, err)
		}
		if len(cols) == 0 {
			continue
		}
		return cols, nil
	}
	if err := x.rows.Error(); err != nil {
		return nil, errors.Wrapf(ErrFileRead, "sheet %q: %v", x.sheet, err)
	}
	return nil, io.EOF
}

func (x *xlsxRows) Close() error {
	_ = x.rows.Close()
	return x.f.Close()
}
