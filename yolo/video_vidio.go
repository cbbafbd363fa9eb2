package yolo

import (
	"fmt"
	"image"
	"image/draw"

	vidio "github.com/AlexEidt/Vidio"
	"github.com/disintegration/imaging"
)

// Capture a sequential frame source: a video file or a webcam.
type Capture interface {
	// Read advances to the next frame; false at end of stream or on error.
	Read() bool
	// Frame returns a copy of the current frame.
	Frame() image.Image
	Width() int
	Height() int
	FPS() float64
	// Frames is the total frame count, 0 for live sources.
	Frames() int
	// Position is the 1-based index of the current frame.
	Position() int
	Close()
}

// FrameWriter encodes annotated frames to an output video.
type FrameWriter interface {
	Write(img image.Image) error
	Close()
}

// vidioReader is the part of vidio.Video and vidio.Camera we use.
type vidioReader interface {
	Read() bool
	FrameBuffer() []byte
	Width() int
	Height() int
	FPS() float64
	Close()
}

type vidioCapture struct {
	src      vidioReader
	frames   int
	position int
}

// OpenVideo opens a video file through ffmpeg.
func OpenVideo(path string) (Capture, error) {
	video, err := vidio.NewVideo(path)
	if err != nil {
		return nil, fmt.Errorf("open video %q: %w", path, err)
	}
	return newVidioCapture(video, video.Frames()), nil
}

// OpenCamera opens the webcam with the given device index.
func OpenCamera(index int) (Capture, error) {
	if index < 0 {
		return nil, fmt.Errorf("open camera %d: %w", index, ErrUnsupportedInput)
	}
	camera, err := vidio.NewCamera(index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", index, err)
	}
	return newVidioCapture(camera, 0), nil
}

// newVidioCapture wraps src. frames is 0 for cameras.
func newVidioCapture(src vidioReader, frames int) *vidioCapture {
	return &vidioCapture{src: src, frames: max(frames, 0)}
}

func (c *vidioCapture) Read() bool {
	if !c.src.Read() {
		return false
	}
	c.position++
	return true
}

func (c *vidioCapture) Frame() image.Image {
	return frameBufferToImage(c.src.FrameBuffer(), c.src.Width(), c.src.Height())
}

func (c *vidioCapture) Width() int    { return c.src.Width() }
func (c *vidioCapture) Height() int   { return c.src.Height() }
func (c *vidioCapture) FPS() float64  { return c.src.FPS() }
func (c *vidioCapture) Frames() int   { return c.frames }
func (c *vidioCapture) Position() int { return c.position }
func (c *vidioCapture) Close()        { c.src.Close() }

const defaultOutputFPS = 30

type vidioWriter struct {
	writer        *vidio.VideoWriter
	width, height int
	buf           *image.RGBA
}

// NewVideoWriter creates an mp4 writer. fps <= 0 falls back to 30.
func NewVideoWriter(path string, width, height int, fps float64) (FrameWriter, error) {
	writer, err := vidio.NewVideoWriter(path, width, height, &vidio.Options{
		FPS:     outputFPS(fps),
		Quality: 0.8,
	})
	if err != nil {
		return nil, fmt.Errorf("create video writer %q: %w", path, err)
	}
	return &vidioWriter{
		writer: writer,
		width:  width,
		height: height,
		buf:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

// outputFPS is the writer frame rate; webcams often report 0.
func outputFPS(fps float64) float64 {
	if fps <= 0 {
		return defaultOutputFPS
	}
	return fps
}

func (w *vidioWriter) Write(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != w.width || b.Dy() != w.height {
		img = imaging.Resize(img, w.width, w.height, imaging.Linear)
		b = img.Bounds()
	}
	draw.Draw(w.buf, w.buf.Bounds(), img, b.Min, draw.Src)
	if err := w.writer.Write(w.buf.Pix); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (w *vidioWriter) Close() {
	w.writer.Close()
}

// frameBufferToImage copies an RGBA frame buffer into a new image.
func frameBufferToImage(frameBuffer []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, frameBuffer)
	return img
}
