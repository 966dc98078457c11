// Package generator runs one submission through label resolution, matrix
// tabulation, scoring and rendering.
package generator

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rawblock/cmgen/internal/export"
	"github.com/rawblock/cmgen/internal/labels"
	"github.com/rawblock/cmgen/internal/metrics"
	"github.com/rawblock/cmgen/internal/render"
)

var (
	// ErrVocabularyTooLarge is returned when the label vocabulary exceeds MaxClasses.
	ErrVocabularyTooLarge = errors.New("too many distinct classes")
	// ErrColorMap is returned for a color map name the renderer does not know.
	ErrColorMap = errors.New("unsupported color map")
	// ErrRender is returned when the figure or workbook cannot be produced.
	ErrRender = errors.New("could not render the confusion matrix")
)

const (
	CodeVocabularyTooLarge = "vocabulary_too_large"
	CodeColorMap           = "invalid_colormap"
	CodeRender             = "render_failure"
	CodeInternal           = "internal_error"
)

// Code classifies err for API responses.
func Code(err error) string {
	if code, ok := labels.Code(err); ok {
		return code
	}
	switch {
	case errors.Is(err, ErrVocabularyTooLarge):
		return CodeVocabularyTooLarge
	case errors.Is(err, ErrColorMap):
		return CodeColorMap
	case errors.Is(err, ErrRender):
		return CodeRender
	default:
		return CodeInternal
	}
}

// IsUserError reports whether err was caused by the submission rather than the server.
func IsUserError(err error) bool {
	_, ok := labels.Code(err)
	return ok || errors.Is(err, ErrVocabularyTooLarge) || errors.Is(err, ErrColorMap)
}

// Request is one form submission.
type Request struct {
	Input    labels.Input
	ColorMap string
}

// Result carries everything computed for a request.
type Result struct {
	Source    labels.Source
	Notices   []string
	Matrix    *metrics.ConfusionMatrix
	Report    metrics.Report
	Agreement metrics.Agreement
	PNG       []byte
}

// Generator is safe for concurrent use; it holds configuration only.
type Generator struct {
	resolver   *labels.Resolver
	maxClasses int
	render     render.Options
	logger     *zap.Logger
}

// New returns a Generator. maxClasses <= 0 disables the vocabulary limit.
func New(resolver *labels.Resolver, maxClasses int, opts render.Options, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{resolver: resolver, maxClasses: maxClasses, render: opts, logger: logger}
}

// Evaluate resolves the labels, builds the matrix and scores it without drawing.
func (g *Generator) Evaluate(ctx context.Context, in labels.Input) (*Result, error) {
	res, err := g.resolver.Resolve(in)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if g.maxClasses > 0 {
		if n := len(metrics.Vocabulary(res.True, res.Pred)); n > g.maxClasses {
			return nil, errors.Wrapf(ErrVocabularyTooLarge, "%d classes, limit is %d", n, g.maxClasses)
		}
	}

	m, err := metrics.NewConfusionMatrix(res.True, res.Pred)
	if err != nil {
		// Resolve already guarantees equal, non-empty sequences.
		return nil, errors.Wrap(err, "building confusion matrix")
	}

	g.logger.Debug("Matrix built",
		zap.String("source", string(res.Source)),
		zap.Int("samples", m.Total()),
		zap.Int("classes", m.Size()))

	return &Result{
		Source:    res.Source,
		Notices:   res.Notices,
		Matrix:    m,
		Report:    metrics.Evaluate(m),
		Agreement: metrics.Agree(m),
	}, nil
}

// Generate runs the full pipeline including the PNG heatmap.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.ColorMap != "" && !render.IsValid(req.ColorMap) {
		return nil, errors.Wrapf(ErrColorMap, "%q", req.ColorMap)
	}
	result, err := g.Evaluate(ctx, req.Input)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := g.render
	opts.ColorMap = req.ColorMap
	png, err := render.RenderPNG(result.Matrix, opts)
	if err != nil {
		g.logger.Error("Render failed", zap.String("colorMap", req.ColorMap), zap.Error(err))
		return nil, errors.Wrap(ErrRender, err.Error())
	}
	result.PNG = png
	return result, nil
}

// Workbook renders result as an XLSX workbook.
func (g *Generator) Workbook(result *Result) ([]byte, error) {
	out, err := export.XLSX(result.Matrix, result.Report, result.Agreement)
	if err != nil {
		g.logger.Error("Workbook export failed", zap.Error(err))
		return nil, errors.Wrap(ErrRender, err.Error())
	}
	return out, nil
}
