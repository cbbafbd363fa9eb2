package yolo

import (
	"errors"
	"image"
	"math"
	"sync/atomic"
)

var (
	// ErrEmptyFrame is returned for a nil or zero-sized frame.
	ErrEmptyFrame = errors.New("yolo: empty frame")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("yolo: detector closed")
)

// Predictor turns a frame into an annotated frame and its detections.
// Implementations are safe for one Predict caller at a time; the
// threshold may be changed from any goroutine.
type Predictor interface {
	Predict(img image.Image) (image.Image, []Detection, error)
	SetConfThreshold(threshold float32)
	ConfThreshold() float32
	Close() error
}

// threshold is a float32 shared between the GUI and the worker.
type threshold struct {
	bits atomic.Uint32
}

func newThreshold(v float32) *threshold {
	t := &threshold{}
	t.Store(v)
	return t
}

func (t *threshold) Load() float32 {
	return math.Float32frombits(t.bits.Load())
}

func (t *threshold) Store(v float32) {
	t.bits.Store(math.Float32bits(clampThreshold(v)))
}

func emptyFrame(img image.Image) bool {
	if img == nil {
		return true
	}
	b := img.Bounds()
	return b.Dx() <= 0 || b.Dy() <= 0
}

var (
	_ Predictor = (*YOLO)(nil)
	_ Predictor = (*RemoteDetector)(nil)
)
