package generator

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/rawblock/cmgen/internal/labels"
	"github.com/rawblock/cmgen/internal/render"
)

func newGenerator(maxClasses int) *Generator {
	return New(labels.NewResolver(labels.ManualOverridesUpload), maxClasses, render.DefaultOptions(), zap.NewNop())
}

var catDog = labels.Input{
	ManualTrue: "cat, dog, cat, cat, dog",
	ManualPred: "cat, cat, dog, cat, dog",
}

func TestGenerate(t *testing.T) {
	result, err := newGenerator(10).Generate(context.Background(), Request{Input: catDog, ColorMap: "Blues"})
	require.NoError(t, err)

	assert.Equal(t, labels.SourceManual, result.Source)
	assert.Equal(t, []string{"cat", "dog"}, result.Matrix.Classes)
	assert.Equal(t, [][]int{{2, 1}, {1, 1}}, result.Matrix.Rows())
	assert.InDelta(t, 0.6, result.Report.Accuracy, 1e-12)
	assert.InDelta(t, 0.6, result.Report.F1, 1e-12)

	_, err = png.Decode(bytes.NewReader(result.PNG))
	assert.NoError(t, err)
}

func TestGenerate_DefaultColorMap(t *testing.T) {
	result, err := newGenerator(0).Generate(context.Background(), Request{Input: catDog})
	require.NoError(t, err)
	assert.NotEmpty(t, result.PNG)
}

func TestGenerate_Upload(t *testing.T) {
	in := labels.Input{Upload: &labels.Upload{
		Name: "run.csv",
		Body: strings.NewReader("id,actual,predicted\n1,a,a\n2,b,a\n3,b,b\n"),
	}}
	result, err := newGenerator(10).Generate(context.Background(), Request{Input: in, ColorMap: "viridis"})
	require.NoError(t, err)

	assert.Equal(t, labels.SourceUpload, result.Source)
	require.Len(t, result.Notices, 1)
	assert.Contains(t, result.Notices[0], "Loaded 3 rows")
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		gen      *Generator
		req      Request
		want     error
		code     string
		userFail bool
	}{
		{
			name:     "length mismatch",
			gen:      newGenerator(10),
			req:      Request{Input: labels.Input{ManualTrue: "a,b,c", ManualPred: "a,b,c,d"}},
			want:     labels.ErrLengthMismatch,
			code:     labels.CodeLengthMismatch,
			userFail: true,
		},
		{
			name:     "too many classes",
			gen:      newGenerator(2),
			req:      Request{Input: labels.Input{ManualTrue: "a,b,c", ManualPred: "a,b,c"}},
			want:     ErrVocabularyTooLarge,
			code:     CodeVocabularyTooLarge,
			userFail: true,
		},
		{
			name:     "unknown color map",
			gen:      newGenerator(10),
			req:      Request{Input: catDog, ColorMap: "jet"},
			want:     ErrColorMap,
			code:     CodeColorMap,
			userFail: true,
		},
		{
			name:     "no input",
			gen:      newGenerator(10),
			req:      Request{},
			want:     labels.ErrNoInput,
			code:     labels.CodeNoInput,
			userFail: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.gen.Generate(context.Background(), tt.req)
			assert.Nil(t, result)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.code, Code(err))
			assert.Equal(t, tt.userFail, IsUserError(err))
		})
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newGenerator(10).Generate(ctx, Request{Input: catDog})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsUserError(err))
}

func TestCode_Unclassified(t *testing.T) {
	assert.Equal(t, CodeInternal, Code(errors.New("boom")))
	assert.Equal(t, CodeRender, Code(errors.Wrap(ErrRender, "x")))
}

func TestWorkbook(t *testing.T) {
	g := newGenerator(10)
	result, err := g.Evaluate(context.Background(), catDog)
	require.NoError(t, err)
	assert.Nil(t, result.PNG)

	out, err := g.Workbook(result)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("ConfusionMatrix", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}
