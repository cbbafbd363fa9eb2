package yolo

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizeForDisplay_Letterbox(t *testing.T) {
	tests := []struct {
		name          string
		w, h          int
		wantBlackAt   image.Point
		wantContentAt image.Point
	}{
		{
			name:          "wide image gets bars top and bottom",
			w:             1600,
			h:             400, // scaled to 800x200, centred at y=140
			wantBlackAt:   image.Pt(400, 10),
			wantContentAt: image.Pt(400, 240),
		},
		{
			name:          "tall image gets bars left and right",
			w:             240,
			h:             480, // 240x480 centred at x=280
			wantBlackAt:   image.Pt(10, 240),
			wantContentAt: image.Pt(400, 240),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := solidImage(tt.w, tt.h, color.White)

			out := ResizeForDisplay(src, DisplayWidth, DisplayHeight)
			require.Equal(t, image.Rect(0, 0, DisplayWidth, DisplayHeight), out.Bounds())

			assert.Equal(t, color.NRGBA{0, 0, 0, 255}, out.NRGBAAt(tt.wantBlackAt.X, tt.wantBlackAt.Y))
			assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(tt.wantContentAt.X, tt.wantContentAt.Y))
		})
	}
}

func TestResizeForDisplay_NilImage(t *testing.T) {
	out := ResizeForDisplay(nil, 10, 5)
	assert.Equal(t, image.Rect(0, 0, 10, 5), out.Bounds())
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, out.NRGBAAt(5, 2))
}

func TestSaveAndLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	src := solidImage(16, 9, color.RGBA{10, 200, 30, 255})

	require.NoError(t, SaveImage(src, path))

	img, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 9, img.Bounds().Dy())
}

func TestLoadImage_Missing(t *testing.T) {
	_, err := LoadImage(filepath.Join(t.TempDir(), "nope.jpg"))
	assert.Error(t, err)
}
