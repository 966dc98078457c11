package render

import (
	"bytes"
	"fmt"
	"image/color"
	"slices"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/rawblock/cmgen/internal/metrics"
)

const (
	Title  = "Confusion Matrix"
	XLabel = "Predicted Label"
	YLabel = "True Label"

	paletteSize   = 256
	colorBarWidth = 0.9 * vg.Inch
)

// ErrRender wraps failures raised while drawing the figure.
var ErrRender = errors.New("render failed")

// Options controls the rendered figure. Zero fields take the defaults.
type Options struct {
	ColorMap string
	Width    vg.Length
	Height   vg.Length
	DPI      int
}

// DefaultOptions is a 6x5 inch figure at 100 DPI using viridis.
func DefaultOptions() Options {
	return Options{ColorMap: DefaultColorMap, Width: 6 * vg.Inch, Height: 5 * vg.Inch, DPI: 100}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ColorMap == "" {
		o.ColorMap = d.ColorMap
	}
	if o.Width <= colorBarWidth {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.DPI <= 0 {
		o.DPI = d.DPI
	}
	return o
}

// countGrid exposes a confusion matrix as a plotter.GridXYZ. Plot rows grow upwards
// while matrix rows grow downwards, so row r of the grid is matrix row n-1-r.
type countGrid struct {
	m *metrics.ConfusionMatrix
}

func (g countGrid) Dims() (c, r int) {
	n := g.m.Size()
	return n, n
}

func (g countGrid) Z(c, r int) float64 { return float64(g.m.At(g.m.Size()-1-r, c)) }
func (g countGrid) X(c int) float64    { return float64(c) }
func (g countGrid) Y(r int) float64    { return float64(r) }

// TextColor picks the annotation color for a cell: white on cells above half the
// matrix maximum, black elsewhere.
func TextColor(v, peak int) color.Color {
	if float64(v) > float64(peak)/2 {
		return color.White
	}
	return color.Black
}

// valueRange is the color scale of m. Plot color maps need max > min, so a flat
// matrix gets a unit-wide range ending at its value.
func valueRange(m *metrics.ConfusionMatrix) (lo, hi float64) {
	lo, hi = float64(m.Min()), float64(m.Max())
	if hi > lo {
		return lo, hi
	}
	if hi == 0 {
		return 0, 1
	}
	return hi - 1, hi
}

// RenderPNG draws m as an annotated heatmap with a color bar and encodes it as PNG.
func RenderPNG(m *metrics.ConfusionMatrix, opts Options) (out []byte, err error) {
	if m == nil || m.Size() == 0 {
		return nil, errors.Wrap(ErrRender, "empty matrix")
	}
	opts = opts.withDefaults()

	// gonum/plot signals invalid drawing state by panicking.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errors.Wrapf(ErrRender, "%v", r)
		}
	}()

	lo, hi := valueRange(m)

	heat, err := heatmapPlot(m, opts.ColorMap, lo, hi)
	if err != nil {
		return nil, err
	}
	bar, err := colorBarPlot(opts.ColorMap, lo, hi)
	if err != nil {
		return nil, err
	}

	img := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
	dc := draw.New(img)
	heat.Draw(draw.Crop(dc, 0, -colorBarWidth, 0, 0))
	bar.Draw(draw.Crop(dc, opts.Width-colorBarWidth, 0, 0, 0))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "encoding png")
	}
	return buf.Bytes(), nil
}

func heatmapPlot(m *metrics.ConfusionMatrix, colorMap string, lo, hi float64) (*plot.Plot, error) {
	cm, err := Lookup(colorMap)
	if err != nil {
		return nil, err
	}
	pal, err := sample(cm, paletteSize)
	if err != nil {
		return nil, errors.Wrap(err, colorMap)
	}

	p := plot.New()
	p.Title.Text = Title
	p.X.Label.Text = XLabel
	p.Y.Label.Text = YLabel

	h := plotter.NewHeatMap(countGrid{m}, pal)
	h.Min, h.Max = lo, hi
	p.Add(h)

	labels, err := cellLabels(m)
	if err != nil {
		return nil, err
	}
	p.Add(labels)

	rows := slices.Clone(m.Classes)
	slices.Reverse(rows)
	p.NominalX(m.Classes...)
	p.NominalY(rows...)
	return p, nil
}

func cellLabels(m *metrics.ConfusionMatrix) (*plotter.Labels, error) {
	n := m.Size()
	xyl := plotter.XYLabels{
		XYs:    make(plotter.XYs, 0, n*n),
		Labels: make([]string, 0, n*n),
	}
	inks := make([]color.Color, 0, n*n)
	peak := m.Max()
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := m.At(r, c)
			xyl.XYs = append(xyl.XYs, plotter.XY{X: float64(c), Y: float64(n - 1 - r)})
			xyl.Labels = append(xyl.Labels, strconv.Itoa(v))
			inks = append(inks, TextColor(v, peak))
		}
	}

	labels, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, errors.Wrap(err, "cell labels")
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Color = inks[i]
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
	}
	return labels, nil
}

func colorBarPlot(colorMap string, lo, hi float64) (*plot.Plot, error) {
	cm, err := Lookup(colorMap)
	if err != nil {
		return nil, err
	}
	cm.SetMin(lo)
	cm.SetMax(hi)

	p := plot.New()
	// Blank title and axis label keep the bar level with the heatmap cells.
	p.Title.Text = " "
	p.HideX()
	p.X.Label.Text = " "
	p.Y.Tick.Marker = integerTicks{}
	p.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})
	return p, nil
}

// integerTicks labels the color bar with whole counts only.
type integerTicks struct{}

func (integerTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for _, t := range (plot.DefaultTicks{}).Ticks(min, max) {
		if t.Label == "" || t.Value != float64(int(t.Value)) {
			t.Label = ""
		} else {
			t.Label = fmt.Sprint(int(t.Value))
		}
		ticks = append(ticks, t)
	}
	return ticks
}
