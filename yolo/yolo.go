package yolo

import (
	"fmt"
	"image"
	"os"
	"strconv"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/Cubiaa/waste-yolo/logger"
)

// ONNX Runtime is a process-wide environment shared by all detectors.
var (
	ortInitialized bool
	ortMutex       sync.Mutex
)

// YOLO runs an exported YOLOv8/11 ONNX model on CPU or CUDA.
type YOLO struct {
	config  *YOLOConfig
	options DetectionOptions
	classes []string
	log     *logger.Logger

	conf *threshold

	mu      sync.Mutex // guards session
	session *ort.DynamicAdvancedSession

	inputW, inputH int
	outputShape    []int64
}

// NewYOLO loads the model at modelPath. classesPath may be empty, in which
// case the COCO class names are used.
func NewYOLO(modelPath, classesPath string, config *YOLOConfig, options *DetectionOptions, log *logger.Logger) (*YOLO, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if config == nil {
		config = DefaultConfig()
	}
	if options == nil {
		options = DefaultDetectionOptions()
	}

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file %q: %w", modelPath, err)
	}

	classes := DefaultClasses
	if classesPath != "" {
		loaded, err := LoadClasses(classesPath)
		if err != nil {
			log.Warn("falling back to COCO classes", "path", classesPath, "error", err)
		} else {
			classes = loaded
		}
	}
	log.Info("classes loaded", "count", len(classes))

	if err := initEnvironment(config.LibraryPath); err != nil {
		return nil, err
	}

	sessionOptions, err := newSessionOptions(config, log)
	if err != nil {
		return nil, err
	}
	defer sessionOptions.Destroy()

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{"images"}, []string{"output0"}, sessionOptions)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", modelPath, err)
	}

	inputW, inputH := config.inputDims()
	y := &YOLO{
		config:  config,
		options: *options,
		classes: classes,
		log:     log,
		conf:    newThreshold(options.ConfThreshold),
		session: session,
		inputW:  inputW,
		inputH:  inputH,
		// 4 box values + one score per class over 8400 anchors at 640x640
		outputShape: []int64{1, int64(4 + len(classes)), anchorCount(inputW, inputH)},
	}

	if _, outputs, err := ort.GetInputOutputInfo(modelPath); err == nil && len(outputs) > 0 {
		if dims := outputs[0].Dimensions; len(dims) == 3 && dims[1] > 0 && dims[2] > 0 {
			y.outputShape = []int64{1, dims[1], dims[2]}
		}
	}

	log.Info("model loaded",
		"model", modelPath,
		"input", fmt.Sprintf("%dx%d", inputW, inputH),
		"output", y.outputShape,
		"gpu", config.UseGPU,
	)

	return y, nil
}

func initEnvironment(libraryPath string) error {
	ortMutex.Lock()
	defer ortMutex.Unlock()

	if ortInitialized {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	ortInitialized = true
	return nil
}

func newSessionOptions(config *YOLOConfig, log *logger.Logger) (*ort.SessionOptions, error) {
	sessionOptions, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}

	threads := config.threads()
	if err := sessionOptions.SetIntraOpNumThreads(threads); err != nil {
		log.Warn("set intra-op threads", "error", err)
	}
	if err := sessionOptions.SetInterOpNumThreads(threads); err != nil {
		log.Warn("set inter-op threads", "error", err)
	}
	if err := sessionOptions.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		log.Warn("set graph optimization level", "error", err)
	}

	if config.UseGPU {
		if err := appendCUDA(sessionOptions, config.GPUDeviceID); err != nil {
			log.Warn("CUDA unavailable, using CPU", "device", config.GPUDeviceID, "error", err)
		} else {
			log.Info("CUDA execution provider enabled", "device", config.GPUDeviceID)
		}
	}

	return sessionOptions, nil
}

// appendCUDA adds the CUDA provider. Some runtime builds panic instead of
// returning an error when CUDA is missing.
func appendCUDA(sessionOptions *ort.SessionOptions, deviceID int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cuda provider panic: %v", r)
		}
	}()

	cudaOptions, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOptions.Destroy()

	if err := cudaOptions.Update(map[string]string{"device_id": strconv.Itoa(deviceID)}); err != nil {
		return err
	}
	return sessionOptions.AppendExecutionProviderCUDA(cudaOptions)
}

func anchorCount(w, h int) int64 {
	// strides 8, 16 and 32
	return int64((w/8)*(h/8) + (w/16)*(h/16) + (w/32)*(h/32))
}

// Classes returns the class names the model was loaded with.
func (y *YOLO) Classes() []string {
	return y.classes
}

// SetConfThreshold changes the confidence threshold used by the next Predict.
func (y *YOLO) SetConfThreshold(t float32) {
	y.conf.Store(t)
}

// ConfThreshold returns the current confidence threshold.
func (y *YOLO) ConfThreshold() float32 {
	return y.conf.Load()
}

// Predict runs detection on img and returns an annotated copy.
func (y *YOLO) Predict(img image.Image) (image.Image, []Detection, error) {
	detections, err := y.Detect(img)
	if err != nil {
		return nil, nil, err
	}
	return Annotate(img, detections, &y.options), detections, nil
}

// Detect runs detection without drawing.
func (y *YOLO) Detect(img image.Image) ([]Detection, error) {
	if emptyFrame(img) {
		return nil, ErrEmptyFrame
	}

	bounds := img.Bounds()
	inputData := preprocess(img, y.inputW, y.inputH)

	inputTensor, err := ort.NewTensor(ort.NewShape(1, 3, int64(y.inputH), int64(y.inputW)), inputData)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(y.outputShape...))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	y.mu.Lock()
	if y.session == nil {
		y.mu.Unlock()
		return nil, ErrClosed
	}
	err = y.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor})
	y.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}

	detections, err := parseDetections(outputTensor.GetData(), outputTensor.GetShape(), y.classes, y.conf.Load())
	if err != nil {
		return nil, err
	}

	scaleBoxes(detections,
		float32(bounds.Dx())/float32(y.inputW),
		float32(bounds.Dy())/float32(y.inputH),
	)

	return nonMaxSuppression(detections, y.options.IOUThreshold), nil
}

// preprocess resizes img to the model input and converts it to NCHW float32 in [0, 1].
func preprocess(img image.Image, width, height int) []float32 {
	resized := imaging.Resize(img, width, height, imaging.Lanczos)

	plane := width * height
	data := make([]float32, 3*plane)
	for y := 0; y < height; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < width; x++ {
			i := y*width + x
			data[i] = float32(row[x*4]) / 255.0
			data[plane+i] = float32(row[x*4+1]) / 255.0
			data[2*plane+i] = float32(row[x*4+2]) / 255.0
		}
	}
	return data
}

// Close releases the ONNX session. The runtime environment stays up for
// other detectors; see DestroyEnvironment.
func (y *YOLO) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.session == nil {
		return nil
	}
	err := y.session.Destroy()
	y.session = nil
	return err
}

// DestroyEnvironment tears down ONNX Runtime after every detector is closed.
func DestroyEnvironment() error {
	ortMutex.Lock()
	defer ortMutex.Unlock()

	if !ortInitialized {
		return nil
	}
	ortInitialized = false
	return ort.DestroyEnvironment()
}
