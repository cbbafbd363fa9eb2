// Package gui is the fyne front end for the waste classifier.
package gui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/Cubiaa/waste-yolo/controller"
	"github.com/Cubiaa/waste-yolo/logger"
	"github.com/Cubiaa/waste-yolo/yolo"
)

// Config window settings.
type Config struct {
	Title         string
	DisplayWidth  int
	DisplayHeight int
	MaxDevices    int
}

// WasteWindow main application window. It implements controller.View.
type WasteWindow struct {
	app    fyne.App
	window fyne.Window
	ctrl   *controller.Controller
	log    *logger.Logger
	cfg    Config

	preview    *canvas.Image
	resolution *widget.Label
	fpsLabel   *widget.Label
	frameLabel *widget.Label
	totalLabel *widget.Label

	thresholdLabel *widget.Label
	slider         *widget.Slider
	deviceSelect   *widget.Select
	pauseBtn       *widget.Button

	detectionLabel *widget.Label
	predictions    *widget.Table
	historyTable   *widget.Table

	// rows are only touched on the fyne goroutine
	predictionData [][]string
	historyData    [][]string

	session session
	// switchMu orders stop and load requests coming off the fyne goroutine.
	switchMu sync.Mutex
}

var _ controller.View = (*WasteWindow)(nil)

// NewWasteWindow builds the window and registers it as the controller's view.
func NewWasteWindow(ctrl *controller.Controller, cfg Config, log *logger.Logger) *WasteWindow {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if cfg.DisplayWidth <= 0 || cfg.DisplayHeight <= 0 {
		cfg.DisplayWidth, cfg.DisplayHeight = yolo.DisplayWidth, yolo.DisplayHeight
	}
	if cfg.MaxDevices <= 0 {
		cfg.MaxDevices = 5
	}
	if cfg.Title == "" {
		cfg.Title = "Waste Classification System"
	}

	a := app.New()
	w := &WasteWindow{
		app:    a,
		window: a.NewWindow(cfg.Title),
		ctrl:   ctrl,
		log:    log.Named("gui"),
		cfg:    cfg,
	}
	w.createWindow()
	ctrl.SetView(w)
	return w
}

// ShowAndRun blocks until the window is closed.
func (w *WasteWindow) ShowAndRun() {
	w.window.CenterOnScreen()
	w.window.ShowAndRun()
}

func (w *WasteWindow) createWindow() {
	w.window.Resize(fyne.NewSize(1400, 800))

	// left: sources and controls
	imageBtn := widget.NewButtonWithIcon("Select Image", theme.FileImageIcon(), w.selectImage)
	videoBtn := widget.NewButtonWithIcon("Select Video", theme.FileVideoIcon(), w.selectVideo)
	webcamBtn := widget.NewButtonWithIcon("Start Webcam", theme.MediaVideoIcon(), w.startWebcam)

	w.deviceSelect = widget.NewSelect(deviceOptions(w.cfg.MaxDevices), nil)
	w.deviceSelect.SetSelected("0")

	threshold := w.ctrl.ConfThreshold()
	w.thresholdLabel = widget.NewLabel(thresholdText(threshold))
	w.slider = widget.NewSlider(0, 1)
	w.slider.Step = 0.01
	w.slider.SetValue(float64(threshold))
	w.slider.OnChanged = func(v float64) {
		w.thresholdLabel.SetText(thresholdText(float32(v)))
	}
	w.slider.OnChangeEnded = func(v float64) {
		go w.ctrl.SetConfThreshold(float32(v))
	}

	w.pauseBtn = widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), w.togglePause)
	w.pauseBtn.Disable()
	stopBtn := widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), w.stop)
	downloadBtn := widget.NewButtonWithIcon("Download Output", theme.DownloadIcon(), w.showOutput)

	sidebar := container.NewVBox(
		widget.NewLabelWithStyle("Input", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		imageBtn,
		videoBtn,
		widget.NewSeparator(),
		widget.NewLabel("Camera Device:"),
		w.deviceSelect,
		webcamBtn,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Confidence Threshold", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		w.slider,
		w.thresholdLabel,
		widget.NewSeparator(),
		w.pauseBtn,
		stopBtn,
		downloadBtn,
	)

	// centre: preview, details and predictions
	w.preview = canvas.NewImageFromImage(nil)
	w.preview.FillMode = canvas.ImageFillContain
	w.preview.SetMinSize(fyne.NewSize(float32(w.cfg.DisplayWidth), float32(w.cfg.DisplayHeight)))

	w.resolution = widget.NewLabel(placeholder)
	w.fpsLabel = widget.NewLabel(placeholder)
	w.frameLabel = widget.NewLabel(placeholder)
	w.totalLabel = widget.NewLabel(placeholder)
	details := container.NewGridWithColumns(4,
		widget.NewLabel("Resolution:"), w.resolution,
		widget.NewLabel("FPS:"), w.fpsLabel,
		widget.NewLabel("Frame:"), w.frameLabel,
		widget.NewLabel("Total Frames:"), w.totalLabel,
	)

	w.predictions = newTable(predictionHeaders, func() [][]string { return w.predictionData },
		[]float32{120, 90, 120, 260})

	centre := container.NewBorder(
		container.NewVBox(w.preview, widget.NewCard("Frame Details", "", details)),
		nil, nil, nil,
		widget.NewCard("Predictions", "", w.predictions),
	)

	// right: detection text and history
	w.detectionLabel = widget.NewLabel("")
	w.detectionLabel.Wrapping = fyne.TextWrapWord
	w.historyTable = newTable(historyHeaders, func() [][]string { return w.historyData },
		[]float32{80, 220, 120})

	right := container.NewVSplit(
		widget.NewCard("Current Detection", "", container.NewVScroll(w.detectionLabel)),
		widget.NewCard("Detection History", "", w.historyTable),
	)
	right.SetOffset(0.3)

	content := container.NewHSplit(
		container.NewPadded(sidebar),
		container.NewHSplit(container.NewPadded(centre), container.NewPadded(right)),
	)
	content.SetOffset(0.15)

	w.window.SetContent(content)
	w.window.SetOnClosed(func() {
		w.ctrl.Stop()
	})
}

// newTable builds a read-only table with a header row.
func newTable(headers []string, rows func() [][]string, widths []float32) *widget.Table {
	t := widget.NewTable(
		func() (int, int) { return len(rows()), len(headers) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, o fyne.CanvasObject) {
			data := rows()
			if id.Row < len(data) && id.Col < len(data[id.Row]) {
				o.(*widget.Label).SetText(data[id.Row][id.Col])
			}
		},
	)
	t.ShowHeaderRow = true
	t.CreateHeader = func() fyne.CanvasObject {
		return widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	}
	t.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		if id.Col >= 0 && id.Col < len(headers) {
			o.(*widget.Label).SetText(headers[id.Col])
		}
	}
	for i, width := range widths {
		t.SetColumnWidth(i, width)
	}
	return t
}

// UpdateFrame shows an annotated frame. Called from the worker.
func (w *WasteWindow) UpdateFrame(f controller.Frame) {
	display := yolo.ResizeForDisplay(f.Image, w.cfg.DisplayWidth, w.cfg.DisplayHeight)
	details := detailsFor(f)

	fyne.Do(w.session.guard(func() {
		w.preview.Image = display
		w.preview.Refresh()
		w.setDetails(details)
	}))
}

// UpdateText shows the objects of a frame and the history. Called from the worker.
func (w *WasteWindow) UpdateText(r controller.Report) {
	text := detectionText(r.Objects)
	rows := predictionRows(r.Objects)
	hist := historyRows(w.ctrl.Recorder().History().Entries())

	fyne.Do(w.session.guard(func() {
		w.detectionLabel.SetText(text)
		w.predictionData = rows
		w.predictions.Refresh()
		w.historyData = hist
		w.historyTable.Refresh()
	}))
}

func (w *WasteWindow) setDetails(d frameDetails) {
	w.resolution.SetText(d.Resolution)
	w.fpsLabel.SetText(d.FPS)
	w.frameLabel.SetText(d.Frame)
	w.totalLabel.SetText(d.Total)
}

func (w *WasteWindow) selectImage() {
	w.openFile(yolo.ImageExtensions, w.loadFile)
}

func (w *WasteWindow) selectVideo() {
	w.openFile(yolo.VideoExtensions, w.loadFile)
}

func (w *WasteWindow) startWebcam() {
	src, err := yolo.NewCameraInput(w.deviceSelect.Selected)
	if err != nil {
		w.showError(err)
		return
	}
	w.load(src)
}

func (w *WasteWindow) loadFile(path string) {
	src, err := yolo.NewFileInput(path)
	if err != nil {
		w.showError(err)
		return
	}
	w.load(src)
}

// load stops the current session and starts src. Runs on the fyne goroutine;
// the controller work happens in the background.
func (w *WasteWindow) load(src *yolo.InputSource) {
	w.pauseBtn.Disable()
	go func() {
		w.switchMu.Lock()
		defer w.switchMu.Unlock()

		w.halt()
		w.log.Info("loading source", "source", src.String())

		var err error
		switch src.Type {
		case yolo.SourceImage:
			err = w.ctrl.ProcessImage(src.Path)
		case yolo.SourceVideo:
			err = w.ctrl.ProcessVideo(src.Path)
		case yolo.SourceWebcam:
			err = w.ctrl.StartWebcam(src.Device)
		}
		if err != nil {
			w.showError(err)
			return
		}

		if src.Type == yolo.SourceVideo {
			fyne.Do(func() {
				w.pauseBtn.SetText("Pause")
				w.pauseBtn.SetIcon(theme.MediaPauseIcon())
				w.pauseBtn.Enable()
			})
		}
	}()
}

func (w *WasteWindow) togglePause() {
	if w.ctrl.TogglePause() {
		w.pauseBtn.SetText("Play")
		w.pauseBtn.SetIcon(theme.MediaPlayIcon())
	} else {
		w.pauseBtn.SetText("Pause")
		w.pauseBtn.SetIcon(theme.MediaPauseIcon())
	}
}

// stop halts processing without blocking the fyne goroutine.
func (w *WasteWindow) stop() {
	w.pauseBtn.Disable()
	go func() {
		w.switchMu.Lock()
		defer w.switchMu.Unlock()
		w.halt()
	}()
}

// halt stops the controller, then clears everything the session displayed.
// It blocks until the worker has ended, so never call it on the fyne goroutine.
func (w *WasteWindow) halt() {
	w.ctrl.Stop()
	w.ctrl.Recorder().Clear()

	// no callbacks arrive once Stop has returned; drop the ones still queued
	w.session.next()
	fyne.Do(w.clear)
}

func (w *WasteWindow) clear() {
	w.preview.Image = nil
	w.preview.Refresh()
	w.pauseBtn.SetText("Pause")
	w.pauseBtn.SetIcon(theme.MediaPauseIcon())
	w.pauseBtn.Disable()
	w.detectionLabel.SetText("")
	w.predictionData = nil
	w.predictions.Refresh()
	w.historyData = nil
	w.historyTable.Refresh()
	w.setDetails(emptyDetails())
}

func (w *WasteWindow) showOutput() {
	dialog.ShowInformation("Download", outputMessage(w.ctrl.OutputPath()), w.window)
}

func (w *WasteWindow) openFile(exts []string, onPath func(path string)) {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			w.showError(err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		onPath(path)
	}, w.window)
	d.SetFilter(storage.NewExtensionFileFilter(exts))
	d.Show()
}

func (w *WasteWindow) showError(err error) {
	w.log.Error("operation failed", "error", err)
	fyne.Do(func() {
		dialog.ShowError(err, w.window)
	})
}
