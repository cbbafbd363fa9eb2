package yolo

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves n solid frames.
type fakeReader struct {
	n, read int
	w, h    int
	fps     float64
	closed  int
}

func (r *fakeReader) Read() bool {
	if r.n > 0 && r.read >= r.n {
		return false
	}
	r.read++
	return true
}

func (r *fakeReader) FrameBuffer() []byte {
	buf := make([]byte, r.w*r.h*4)
	for i := 0; i < len(buf); i += 4 {
		buf[i], buf[i+1], buf[i+2], buf[i+3] = 10, 20, 30, 255
	}
	return buf
}

func (r *fakeReader) Width() int   { return r.w }
func (r *fakeReader) Height() int  { return r.h }
func (r *fakeReader) FPS() float64 { return r.fps }
func (r *fakeReader) Close()       { r.closed++ }

func TestVidioCapture_Position(t *testing.T) {
	src := &fakeReader{n: 3, w: 4, h: 2, fps: 24}
	c := newVidioCapture(src, 3)

	assert.Zero(t, c.Position())
	for want := 1; want <= 3; want++ {
		require.True(t, c.Read())
		assert.Equal(t, want, c.Position())
	}
	assert.False(t, c.Read())
	assert.Equal(t, 3, c.Position(), "end of stream does not advance")

	assert.Equal(t, 3, c.Frames())
	assert.Equal(t, 24.0, c.FPS())

	c.Close()
	assert.Equal(t, 1, src.closed)
}

func TestVidioCapture_Frames(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		want   int
	}{
		{name: "video file", frames: 120, want: 120},
		{name: "live camera", frames: 0, want: 0},
		{name: "bogus count", frames: -1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newVidioCapture(&fakeReader{w: 2, h: 2}, tt.frames)
			assert.Equal(t, tt.want, c.Frames())
		})
	}
}

func TestVidioCapture_FrameIsCopy(t *testing.T) {
	c := newVidioCapture(&fakeReader{n: 1, w: 3, h: 2}, 1)
	require.True(t, c.Read())

	img := c.Frame()
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, img.At(2, 1))
}

func TestOutputFPS(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{in: 29.97, want: 29.97},
		{in: 60, want: 60},
		{in: 0, want: 30},
		{in: -5, want: 30},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, outputFPS(tt.in), "fps %v", tt.in)
	}
}
