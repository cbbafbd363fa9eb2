package yolo

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAnnotate_DrawsBoxWithoutTouchingSource(t *testing.T) {
	src := solidImage(100, 100, color.Black)
	opts := DefaultDetectionOptions().WithDrawLabels(false).WithLineWidth(1)

	out := Annotate(src, []Detection{{Box: [4]float32{10, 10, 50, 50}, Score: 0.9, Class: "can"}}, opts)
	require.Equal(t, src.Bounds(), out.Bounds())

	red := color.RGBA{255, 0, 0, 255}
	assert.Equal(t, red, out.RGBAAt(10, 30), "left edge")
	assert.Equal(t, red, out.RGBAAt(50, 30), "right edge")
	assert.Equal(t, red, out.RGBAAt(30, 10), "top edge")
	assert.Equal(t, red, out.RGBAAt(30, 50), "bottom edge")
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, out.RGBAAt(30, 30), "interior untouched")

	assert.Equal(t, color.RGBA{0, 0, 0, 255}, src.RGBAAt(10, 30), "source untouched")
}

func TestAnnotate_ClampsBoxOutsideImage(t *testing.T) {
	src := solidImage(40, 30, color.Black)
	opts := DefaultDetectionOptions().WithDrawLabels(false).WithBoxColor("green")

	out := Annotate(src, []Detection{{Box: [4]float32{-20, -20, 100, 100}}}, opts)

	green := color.RGBA{0, 255, 0, 255}
	assert.Equal(t, green, out.RGBAAt(0, 0))
	assert.Equal(t, green, out.RGBAAt(39, 29))
}

func TestAnnotate_LabelStaysInsideImage(t *testing.T) {
	src := solidImage(60, 40, color.Black)
	opts := DefaultDetectionOptions().WithDrawBoxes(false).WithBoxColor("blue")

	// box at the very top: label moves inside
	out := Annotate(src, []Detection{{Box: [4]float32{0, 0, 20, 20}, Score: 0.75, Class: "glass"}}, opts)

	blue := color.RGBA{0, 0, 255, 255}
	assert.Equal(t, blue, out.RGBAAt(0, 0), "label background drawn at the top-left corner")
}

func TestAnnotate_NoDetections(t *testing.T) {
	src := solidImage(8, 8, color.White)
	out := Annotate(src, nil, nil)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestAnnotate_OffsetBounds(t *testing.T) {
	base := solidImage(50, 50, color.Black)
	sub := base.SubImage(image.Rect(10, 10, 30, 30))

	out := Annotate(sub, nil, nil)
	assert.Equal(t, image.Rect(0, 0, 20, 20), out.Bounds())
}

func TestParseColor(t *testing.T) {
	def := color.RGBA{1, 2, 3, 255}

	assert.Equal(t, color.RGBA{255, 165, 0, 255}, parseColor(" Orange ", def))
	assert.Equal(t, def, parseColor("chartreuse", def))
	assert.Equal(t, def, parseColor("", def))
}
