package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rawblock/cmgen/internal/metrics"
)

func TestXLSX(t *testing.T) {
	m, err := metrics.NewConfusionMatrix(
		[]string{"cat", "dog", "cat", "cat", "dog"},
		[]string{"cat", "cat", "dog", "cat", "dog"},
	)
	require.NoError(t, err)

	out, err := XLSX(m, metrics.Evaluate(m), metrics.Agree(m))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{MatrixSheet, MetricsSheet}, f.GetSheetList())

	rows, err := f.GetRows(MatrixSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{Corner, "cat", "dog"},
		{"cat", "2", "1"},
		{"dog", "1", "1"},
	}, rows)

	rows, err = f.GetRows(MetricsSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 5)
	assert.Equal(t, []string{"Metric", "Value"}, rows[0])
	assert.Equal(t, []string{"Accuracy", "0.6000"}, rows[1])
	assert.Equal(t, []string{"F1-score", "0.6000"}, rows[4])

	last := rows[len(rows)-1]
	assert.Equal(t, []string{"dog", "0.5000", "0.5000", "0.5000", "2"}, last)
}
