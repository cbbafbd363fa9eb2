// Package controller drives image, video and webcam processing for the GUI.
//
// A Controller owns at most one session at a time. Video and webcam sessions
// run a background worker that reads frames, runs the predictor, writes the
// annotated output and reports every frame to a View.
package controller

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Cubiaa/waste-yolo/history"
	"github.com/Cubiaa/waste-yolo/logger"
	"github.com/Cubiaa/waste-yolo/waste"
	"github.com/Cubiaa/waste-yolo/yolo"
)

// ErrNoSource is returned when an operation needs a loaded source.
var ErrNoSource = errors.New("controller: no source loaded")

// Mode the kind of source being processed.
type Mode string

const (
	ModeNone   Mode = "none"
	ModeImage  Mode = "image"
	ModeVideo  Mode = "video"
	ModeWebcam Mode = "webcam"
)

// Streaming reports whether m is a video or webcam mode.
func (m Mode) Streaming() bool {
	return m == ModeVideo || m == ModeWebcam
}

// Frame an annotated frame and its details.
type Frame struct {
	Image    image.Image
	Mode     Mode
	Width    int
	Height   int
	FPS      float64
	Position int // 1-based, 0 for still images
	Total    int // 0 for still images and live sources
}

// Report the labelled objects of one frame.
type Report struct {
	Mode      Mode
	Objects   []waste.Object
	Threshold float32
}

// View receives results. Calls come from the worker goroutine, so
// implementations must hand off to their UI thread themselves.
type View interface {
	UpdateFrame(f Frame)
	UpdateText(r Report)
}

// Controller coordinates the predictor, the classifier, the history and the view.
type Controller struct {
	predictor  yolo.Predictor
	classifier *waste.Classifier
	recorder   *history.Recorder
	log        *logger.Logger

	openVideo  func(path string) (yolo.Capture, error)
	openCamera func(index int) (yolo.Capture, error)
	newWriter  func(path string, width, height int, fps float64) (yolo.FrameWriter, error)
	loadImage  func(path string) (image.Image, error)
	saveImage  func(img image.Image, path string) error
	now        func() time.Time

	outputDir     string
	frameRate     float64
	pauseInterval time.Duration
	stopTimeout   time.Duration

	// opMu serializes session changes.
	opMu sync.Mutex
	// emitMu is held while callbacks run, so Stop can wait them out.
	emitMu sync.Mutex
	// predictMu keeps Predict single-caller between the worker and refreshes.
	predictMu sync.Mutex

	mu         sync.Mutex
	view       View
	mode       Mode
	paused     bool
	outputPath string
	session    context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	lastFrame  image.Image
	lastInfo   Frame
}

// New creates a controller around predictor and classifier.
func New(predictor yolo.Predictor, classifier *waste.Classifier, opts ...Option) *Controller {
	c := &Controller{
		predictor:     predictor,
		classifier:    classifier,
		log:           logger.NewNopLogger(),
		openVideo:     yolo.OpenVideo,
		openCamera:    yolo.OpenCamera,
		newWriter:     yolo.NewVideoWriter,
		loadImage:     yolo.LoadImage,
		saveImage:     yolo.SaveImage,
		now:           time.Now,
		outputDir:     ".",
		frameRate:     30,
		pauseInterval: 100 * time.Millisecond,
		stopTimeout:   time.Second,
		mode:          ModeNone,
	}
	if c.classifier == nil {
		c.classifier = waste.NewClassifier(nil)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.recorder == nil {
		c.recorder = history.NewRecorder(history.New(history.DefaultLimit), nil, c.log)
	}
	return c
}

// SetView sets the callback receiver. nil disables callbacks.
func (c *Controller) SetView(v View) {
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
}

// Recorder returns the detection history recorder.
func (c *Controller) Recorder() *history.Recorder {
	return c.recorder
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Paused reports whether playback is paused.
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// OutputPath returns the last output file, or "" if there is none.
func (c *Controller) OutputPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outputPath
}

// ConfThreshold returns the detector's current threshold.
func (c *Controller) ConfThreshold() float32 {
	return c.predictor.ConfThreshold()
}

// ProcessImage detects objects in a still image and saves the annotated result.
func (c *Controller) ProcessImage(path string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stop()

	img, err := c.loadImage(path)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	b := img.Bounds()
	info := Frame{Mode: ModeImage, Width: b.Dx(), Height: b.Dy()}
	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.mode = ModeImage
	c.paused = false
	c.outputPath = ""
	c.session, c.cancel, c.done = ctx, cancel, nil
	c.lastFrame, c.lastInfo = img, info
	c.mu.Unlock()

	annotated, objects := c.detect(img)
	info.Image = annotated
	c.emit(ctx, info, objects)

	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	out := filepath.Join(c.outputDir, "yolo_image_"+c.now().Format("20060102_150405")+".jpg")
	if err := c.saveImage(annotated, out); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	c.mu.Lock()
	c.outputPath = out
	c.mu.Unlock()

	c.log.Info("image processed", "path", path, "objects", len(objects), "output", out)
	return nil
}

// ProcessVideo starts processing a video file in the background.
func (c *Controller) ProcessVideo(path string) error {
	return c.startStream(ModeVideo, "output", func() (yolo.Capture, error) {
		return c.openVideo(path)
	})
}

// StartWebcam starts processing camera index in the background.
func (c *Controller) StartWebcam(index int) error {
	return c.startStream(ModeWebcam, "webcam", func() (yolo.Capture, error) {
		return c.openCamera(index)
	})
}

func (c *Controller) startStream(mode Mode, prefix string, open func() (yolo.Capture, error)) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stop()

	src, err := open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", mode, err)
	}

	out := ""
	var writer yolo.FrameWriter
	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		c.log.Error("failed to create output directory, recording disabled", "dir", c.outputDir, "error", err)
	} else {
		out = filepath.Join(c.outputDir, fmt.Sprintf("%s_%d.mp4", prefix, c.now().Unix()))
		writer, err = c.newWriter(out, src.Width(), src.Height(), src.FPS())
		if err != nil {
			c.log.Error("failed to create video writer, recording disabled", "output", out, "error", err)
			writer, out = nil, ""
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.mode = mode
	c.paused = false
	c.outputPath = out
	c.session, c.cancel, c.done = ctx, cancel, done
	c.lastFrame, c.lastInfo = nil, Frame{}
	c.mu.Unlock()

	c.log.Info("processing started", "mode", mode,
		"width", src.Width(), "height", src.Height(), "fps", src.FPS(), "output", out)

	go c.run(ctx, done, mode, src, writer)
	return nil
}

// run is the worker loop. It owns src and writer and releases them on exit.
func (c *Controller) run(ctx context.Context, done chan struct{}, mode Mode, src yolo.Capture, writer yolo.FrameWriter) {
	defer close(done)
	defer func() {
		if writer != nil {
			writer.Close()
		}
		src.Close()
	}()

	limiter := rate.NewLimiter(rate.Limit(c.frameRate), 1)
	processed := 0

	for ctx.Err() == nil {
		if c.Paused() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.pauseInterval):
			}
			continue
		}

		if !src.Read() {
			c.log.Info("end of stream", "mode", mode, "frames", processed)
			return
		}
		raw := src.Frame()
		processed++

		annotated, objects := c.detect(raw)
		if writer != nil {
			if err := writer.Write(annotated); err != nil {
				c.log.Warn("failed to write frame", "position", src.Position(), "error", err)
			}
		}

		info := Frame{
			Mode:     mode,
			Width:    src.Width(),
			Height:   src.Height(),
			FPS:      src.FPS(),
			Position: src.Position(),
			Total:    src.Frames(),
		}
		c.remember(ctx, raw, info)

		// recorded first so the view sees this frame in the history
		if ctx.Err() == nil {
			c.recorder.Record(context.WithoutCancel(ctx), string(mode), objects)
		}

		info.Image = annotated
		c.emit(ctx, info, objects)

		if err := limiter.Wait(ctx); err != nil {
			return
		}
	}
}

// TogglePause flips the paused flag in video and webcam mode and returns it.
func (c *Controller) TogglePause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mode.Streaming() {
		return c.paused
	}
	c.paused = !c.paused
	c.log.Debug("pause toggled", "mode", c.mode, "paused", c.paused)
	return c.paused
}

// Stop ends the current session and waits briefly for the worker.
func (c *Controller) Stop() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.stop()
}

func (c *Controller) stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mode = ModeNone
	c.paused = false
	c.session, c.cancel, c.done = nil, nil, nil
	c.lastFrame, c.lastInfo = nil, Frame{}
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	if done != nil {
		select {
		case <-done:
		case <-time.After(c.stopTimeout):
			c.log.Warn("worker did not stop in time", "timeout", c.stopTimeout)
		}
	}

	// wait out any callback already in progress
	c.emitMu.Lock()
	c.emitMu.Unlock()
}

// SetConfThreshold updates the threshold live and refreshes the current frame.
func (c *Controller) SetConfThreshold(t float32) {
	c.predictor.SetConfThreshold(min(max(t, 0), 1))
	if err := c.RefreshCurrentFrame(); err != nil && !errors.Is(err, ErrNoSource) {
		c.log.Warn("failed to refresh frame", "error", err)
	}
}

// RefreshCurrentFrame re-runs detection on the last frame in image mode or
// while paused. A playing stream picks the change up on its next frame, so
// nothing is emitted then. In image mode the saved output is rewritten with
// the new result. ErrNoSource means there is no frame to refresh.
func (c *Controller) RefreshCurrentFrame() error {
	c.mu.Lock()
	mode, paused, ctx := c.mode, c.paused, c.session
	frame, info, out := c.lastFrame, c.lastInfo, c.outputPath
	c.mu.Unlock()

	if frame == nil || ctx == nil {
		return ErrNoSource
	}
	if mode != ModeImage && !(mode.Streaming() && paused) {
		return nil
	}

	annotated, objects := c.detect(frame)
	info.Image = annotated
	c.emit(ctx, info, objects)

	// out is empty until ProcessImage has saved the first result
	if mode == ModeImage && out != "" && ctx.Err() == nil {
		if err := c.saveImage(annotated, out); err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}
		c.log.Debug("image output updated", "output", out, "objects", len(objects))
	}
	return nil
}

// Close stops any running session.
func (c *Controller) Close() {
	c.Stop()
}

// detect runs the predictor and labels the result. On failure the raw
// frame is returned without objects.
func (c *Controller) detect(img image.Image) (image.Image, []waste.Object) {
	c.predictMu.Lock()
	annotated, detections, err := c.predictor.Predict(img)
	c.predictMu.Unlock()

	if err != nil {
		c.log.Warn("prediction failed", "error", err)
		return img, nil
	}
	return annotated, c.classifier.Label(detections)
}

func (c *Controller) remember(ctx context.Context, raw image.Image, info Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	c.lastFrame, c.lastInfo = raw, info
}

func (c *Controller) emit(ctx context.Context, f Frame, objects []waste.Object) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	v := c.view
	c.mu.Unlock()
	if v == nil {
		return
	}

	v.UpdateFrame(f)
	v.UpdateText(Report{Mode: f.Mode, Objects: objects, Threshold: c.predictor.ConfThreshold()})
}
