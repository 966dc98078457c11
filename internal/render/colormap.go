// Package render draws confusion matrices as annotated heatmaps.
package render

import (
	"image/color"
	"slices"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
)

// DefaultColorMap is used when no color map is requested.
const DefaultColorMap = "viridis"

// ErrUnknownColorMap is returned by Lookup for names outside Names().
var ErrUnknownColorMap = errors.New("unknown color map")

// Control points sampled from the matplotlib perceptual maps. Luminance increases
// along each list.
var perceptual = map[string][]string{
	"viridis": {"440154", "472d7b", "3b528b", "2c728e", "21918c", "28ae80", "5ec962", "addc30", "fde725"},
	"plasma":  {"0d0887", "4c02a1", "7e03a8", "a92395", "cc4778", "e56b5d", "f89441", "fdc328", "f0f921"},
	"inferno": {"000004", "1f0c48", "550f6d", "88226a", "ba3655", "e35933", "f98e09", "fac228", "fcffa4"},
	"magma":   {"000004", "1c1044", "4f127b", "812581", "b5367a", "e55064", "fb8761", "fec287", "fcfdbf"},
	"cividis": {"00224e", "123570", "3b496c", "575d6d", "707173", "8a8678", "a59c74", "c3b369", "e1cc55", "fee838"},
}

// Sequential ColorBrewer maps, light to dark.
var sequential = []string{"Blues", "Greens"}

var names = []string{"viridis", "plasma", "inferno", "magma", "cividis", "Blues", "Greens", "coolwarm"}

// Names lists the supported color maps in display order.
func Names() []string { return slices.Clone(names) }

// IsValid reports whether name is a supported color map.
func IsValid(name string) bool { return slices.Contains(names, name) }

// Lookup returns a fresh color map for name. The caller owns it and must set its
// range before sampling.
func Lookup(name string) (palette.ColorMap, error) {
	switch {
	case perceptual[name] != nil:
		controls, err := hexColors(perceptual[name])
		if err != nil {
			return nil, err
		}
		return moreland.NewLuminance(controls)
	case slices.Contains(sequential, name):
		p, err := brewer.GetPalette(brewer.TypeSequential, name, 9)
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		// Luminance maps need ascending lightness; build dark to light and flip.
		controls := slices.Clone(p.Colors())
		slices.Reverse(controls)
		cm, err := moreland.NewLuminance(controls)
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		return palette.Reverse(cm), nil
	case name == "coolwarm":
		return moreland.SmoothBlueRed(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownColorMap, "%q", name)
	}
}

func hexColors(hex []string) ([]color.Color, error) {
	out := make([]color.Color, len(hex))
	for i, h := range hex {
		v, err := strconv.ParseUint(h, 16, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "bad control color %q", h)
		}
		out[i] = color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
	}
	return out, nil
}

type colors []color.Color

func (c colors) Colors() []color.Color { return c }

// sample draws n evenly spaced colors from cm over its full range. Endpoints are
// hit exactly, so luminance maps never report overflow.
func sample(cm palette.ColorMap, n int) (palette.Palette, error) {
	cm.SetMin(0)
	cm.SetMax(1)
	out := make(colors, n)
	for i := range out {
		c, err := cm.At(float64(i) / float64(n-1))
		if err != nil {
			return nil, errors.Wrap(err, "sampling color map")
		}
		out[i] = c
	}
	return out, nil
}
