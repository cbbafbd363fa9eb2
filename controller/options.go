package controller

import (
	"image"
	"time"

	"github.com/Cubiaa/waste-yolo/history"
	"github.com/Cubiaa/waste-yolo/logger"
	"github.com/Cubiaa/waste-yolo/yolo"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger
func WithLogger(log *logger.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log.Named("controller")
		}
	}
}

// WithView sets the callback receiver
func WithView(v View) Option {
	return func(c *Controller) {
		c.view = v
	}
}

// WithRecorder sets where detections are recorded
func WithRecorder(r *history.Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithOutputDir sets the directory for annotated images and videos
func WithOutputDir(dir string) Option {
	return func(c *Controller) {
		if dir != "" {
			c.outputDir = dir
		}
	}
}

// WithFrameRate caps the worker at fps frames per second
func WithFrameRate(fps float64) Option {
	return func(c *Controller) {
		if fps > 0 {
			c.frameRate = fps
		}
	}
}

// WithPauseInterval sets how often a paused worker checks for resume
func WithPauseInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pauseInterval = d
		}
	}
}

// WithStopTimeout sets how long Stop waits for the worker
func WithStopTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.stopTimeout = d
		}
	}
}

// WithVideoOpener replaces yolo.OpenVideo
func WithVideoOpener(open func(path string) (yolo.Capture, error)) Option {
	return func(c *Controller) {
		c.openVideo = open
	}
}

// WithCameraOpener replaces yolo.OpenCamera
func WithCameraOpener(open func(index int) (yolo.Capture, error)) Option {
	return func(c *Controller) {
		c.openCamera = open
	}
}

// WithWriterFactory replaces yolo.NewVideoWriter
func WithWriterFactory(newWriter func(path string, width, height int, fps float64) (yolo.FrameWriter, error)) Option {
	return func(c *Controller) {
		c.newWriter = newWriter
	}
}

// WithImageIO replaces yolo.LoadImage and yolo.SaveImage
func WithImageIO(load func(path string) (image.Image, error), save func(img image.Image, path string) error) Option {
	return func(c *Controller) {
		if load != nil {
			c.loadImage = load
		}
		if save != nil {
			c.saveImage = save
		}
	}
}

// WithClock sets the time source used for output names
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}
