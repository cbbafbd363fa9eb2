package yolo

import "runtime"

// Default model settings for the waste classifier.
const (
	DefaultModelPath     = "best.onnx"
	DefaultInputSize     = 640
	DefaultConfThreshold = 0.6
	DefaultIOUThreshold  = 0.5
)

// YOLOConfig detector-level settings, fixed when the session is created.
type YOLOConfig struct {
	InputSize   int    `yaml:"input_size" validate:"gte=0,lte=4096"`   // square input
	InputWidth  int    `yaml:"input_width" validate:"gte=0,lte=4096"`  // non-square input, overrides InputSize
	InputHeight int    `yaml:"input_height" validate:"gte=0,lte=4096"` // non-square input, overrides InputSize
	UseGPU      bool   `yaml:"use_gpu"`
	GPUDeviceID int    `yaml:"gpu_device_id" validate:"gte=0"`
	LibraryPath string `yaml:"library_path"`             // ONNX Runtime shared library
	Threads     int    `yaml:"threads" validate:"gte=0"` // 0 picks from CPU count
}

// DetectionOptions runtime options, may change between frames.
type DetectionOptions struct {
	ConfThreshold float32 `yaml:"conf_threshold" validate:"gte=0,lte=1"`
	IOUThreshold  float32 `yaml:"iou_threshold" validate:"gte=0,lte=1"`
	DrawBoxes     bool    `yaml:"draw_boxes"`
	DrawLabels    bool    `yaml:"draw_labels"`
	BoxColor      string  `yaml:"box_color"`
	LabelColor    string  `yaml:"label_color"`
	LineWidth     int     `yaml:"line_width" validate:"gte=0,lte=20"`
}

// DefaultConfig returns a CPU configuration with a 640x640 input.
func DefaultConfig() *YOLOConfig {
	return &YOLOConfig{
		InputSize: DefaultInputSize,
	}
}

// WithInputSize sets a square input size
func (c *YOLOConfig) WithInputSize(size int) *YOLOConfig {
	c.InputSize = size
	c.InputWidth = 0
	c.InputHeight = 0
	return c
}

// WithInputDimensions sets a non-square input size
func (c *YOLOConfig) WithInputDimensions(width, height int) *YOLOConfig {
	c.InputWidth = width
	c.InputHeight = height
	c.InputSize = 0
	return c
}

// WithGPU enables the CUDA execution provider
func (c *YOLOConfig) WithGPU(use bool) *YOLOConfig {
	c.UseGPU = use
	return c
}

// WithGPUDeviceID selects the CUDA device, only used when UseGPU is set
func (c *YOLOConfig) WithGPUDeviceID(deviceID int) *YOLOConfig {
	c.GPUDeviceID = deviceID
	return c
}

// WithLibraryPath sets the ONNX Runtime shared library path
func (c *YOLOConfig) WithLibraryPath(path string) *YOLOConfig {
	c.LibraryPath = path
	return c
}

// WithThreads sets intra/inter op thread count
func (c *YOLOConfig) WithThreads(n int) *YOLOConfig {
	c.Threads = n
	return c
}

// inputDims returns the model input width and height.
func (c *YOLOConfig) inputDims() (int, int) {
	if c.InputWidth > 0 && c.InputHeight > 0 {
		return c.InputWidth, c.InputHeight
	}
	if c.InputSize > 0 {
		return c.InputSize, c.InputSize
	}
	return DefaultInputSize, DefaultInputSize
}

// threads returns the configured thread count, or 75% of the cores on big machines.
func (c *YOLOConfig) threads() int {
	if c.Threads > 0 {
		return c.Threads
	}
	n := runtime.NumCPU()
	if n > 8 {
		n = n * 3 / 4
	}
	if n < 1 {
		n = 1
	}
	return n
}

// DefaultDetectionOptions default runtime options
func DefaultDetectionOptions() *DetectionOptions {
	return &DetectionOptions{
		ConfThreshold: DefaultConfThreshold,
		IOUThreshold:  DefaultIOUThreshold,
		DrawBoxes:     true,
		DrawLabels:    true,
		BoxColor:      "red",
		LabelColor:    "white",
		LineWidth:     2,
	}
}

// WithConfThreshold sets the confidence threshold
func (o *DetectionOptions) WithConfThreshold(threshold float32) *DetectionOptions {
	o.ConfThreshold = threshold
	return o
}

// WithIOUThreshold sets the NMS IoU threshold
func (o *DetectionOptions) WithIOUThreshold(threshold float32) *DetectionOptions {
	o.IOUThreshold = threshold
	return o
}

// WithDrawBoxes toggles box drawing
func (o *DetectionOptions) WithDrawBoxes(draw bool) *DetectionOptions {
	o.DrawBoxes = draw
	return o
}

// WithDrawLabels toggles label drawing
func (o *DetectionOptions) WithDrawLabels(draw bool) *DetectionOptions {
	o.DrawLabels = draw
	return o
}

// WithBoxColor sets the box colour by name
func (o *DetectionOptions) WithBoxColor(color string) *DetectionOptions {
	o.BoxColor = color
	return o
}

// WithLabelColor sets the label colour by name
func (o *DetectionOptions) WithLabelColor(color string) *DetectionOptions {
	o.LabelColor = color
	return o
}

// WithLineWidth sets the box line width in pixels
func (o *DetectionOptions) WithLineWidth(width int) *DetectionOptions {
	o.LineWidth = width
	return o
}

func clampThreshold(t float32) float32 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
