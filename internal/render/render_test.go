package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/rawblock/cmgen/internal/metrics"
)

func catDog(t *testing.T) *metrics.ConfusionMatrix {
	t.Helper()
	m, err := metrics.NewConfusionMatrix(
		[]string{"cat", "dog", "cat", "cat", "dog"},
		[]string{"cat", "cat", "dog", "cat", "dog"},
	)
	require.NoError(t, err)
	return m
}

func TestRenderPNG_Decodes(t *testing.T) {
	out, err := RenderPNG(catDog(t), DefaultOptions())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 500, img.Bounds().Dy())
}

func TestRenderPNG_ZeroOptionsUseDefaults(t *testing.T) {
	out, err := RenderPNG(catDog(t), Options{})
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Width)
}

func TestRenderPNG_CustomSize(t *testing.T) {
	out, err := RenderPNG(catDog(t), Options{Width: 4 * vg.Inch, Height: 3 * vg.Inch, DPI: 50})
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 150, cfg.Height)
}

func TestRenderPNG_EveryColorMap(t *testing.T) {
	m := catDog(t)
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			out, err := RenderPNG(m, Options{ColorMap: name})
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}
}

func TestRenderPNG_FlatMatrices(t *testing.T) {
	single, err := metrics.NewConfusionMatrix([]string{"a", "a"}, []string{"a", "a"})
	require.NoError(t, err)
	_, err = RenderPNG(single, DefaultOptions())
	assert.NoError(t, err, "1x1 matrix")

	// Every cell holds 1.
	flat, err := metrics.NewConfusionMatrix([]string{"a", "a", "b", "b"}, []string{"a", "b", "a", "b"})
	require.NoError(t, err)
	_, err = RenderPNG(flat, DefaultOptions())
	assert.NoError(t, err, "uniform matrix")
}

func TestRenderPNG_UnknownColorMap(t *testing.T) {
	_, err := RenderPNG(catDog(t), Options{ColorMap: "jet"})
	assert.ErrorIs(t, err, ErrUnknownColorMap)
}

func TestRenderPNG_NilMatrix(t *testing.T) {
	_, err := RenderPNG(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrRender)
}

func TestTextColor(t *testing.T) {
	assert.Equal(t, color.White, TextColor(2, 2))
	assert.Equal(t, color.Black, TextColor(1, 2), "exactly half stays dark")
	assert.Equal(t, color.White, TextColor(2, 3))
	assert.Equal(t, color.Black, TextColor(0, 0))
}

func TestValueRange(t *testing.T) {
	lo, hi := valueRange(catDog(t))
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 2.0, hi)

	single, err := metrics.NewConfusionMatrix([]string{"a"}, []string{"a"})
	require.NoError(t, err)
	lo, hi = valueRange(single)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}

func TestCountGridFlipsRows(t *testing.T) {
	g := countGrid{catDog(t)}
	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	// Top plot row is the first matrix row: cat/cat = 2, cat/dog = 1.
	assert.Equal(t, 2.0, g.Z(0, 1))
	assert.Equal(t, 1.0, g.Z(1, 1))
}

func TestColorMaps(t *testing.T) {
	assert.Equal(t, []string{"viridis", "plasma", "inferno", "magma", "cividis", "Blues", "Greens", "coolwarm"}, Names())
	assert.True(t, IsValid("Blues"))
	assert.False(t, IsValid("blues"))

	t.Run("sequential maps run light to dark", func(t *testing.T) {
		for _, name := range []string{"Blues", "Greens"} {
			cm, err := Lookup(name)
			require.NoError(t, err)
			pal, err := sample(cm, 16)
			require.NoError(t, err)
			cols := pal.Colors()
			assert.Greater(t, brightness(cols[0]), brightness(cols[len(cols)-1]), name)
		}
	})

	t.Run("perceptual maps run dark to light", func(t *testing.T) {
		cm, err := Lookup("viridis")
		require.NoError(t, err)
		pal, err := sample(cm, 16)
		require.NoError(t, err)
		cols := pal.Colors()
		assert.Less(t, brightness(cols[0]), brightness(cols[len(cols)-1]))
	})
}

func brightness(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return r + g + b
}
