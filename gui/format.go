package gui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Cubiaa/waste-yolo/controller"
	"github.com/Cubiaa/waste-yolo/history"
	"github.com/Cubiaa/waste-yolo/waste"
)

const (
	placeholder     = "--"
	noObjectsText   = "No objects detected."
	noOutputText    = "No output file available"
	outputSavedText = "Output saved to %s"
)

var (
	predictionHeaders = []string{"Object", "Confidence", "Waste Category", "Box"}
	historyHeaders    = []string{"Time", "Objects", "Confidence"}
)

// frameDetails the four labels under the preview.
type frameDetails struct {
	Resolution string
	FPS        string
	Frame      string
	Total      string
}

func emptyDetails() frameDetails {
	return frameDetails{Resolution: placeholder, FPS: placeholder, Frame: placeholder, Total: placeholder}
}

func detailsFor(f controller.Frame) frameDetails {
	d := emptyDetails()
	if f.Width > 0 && f.Height > 0 {
		d.Resolution = fmt.Sprintf("%dx%d", f.Width, f.Height)
	}

	switch f.Mode {
	case controller.ModeVideo:
		d.FPS = fmt.Sprintf("%.2f", f.FPS)
		d.Frame = strconv.Itoa(f.Position)
		d.Total = strconv.Itoa(f.Total)
	case controller.ModeWebcam:
		d.FPS = "Live"
	}
	return d
}

func thresholdText(t float32) string {
	return fmt.Sprintf("Current: %.2f", t)
}

func boxText(box [4]float32) string {
	return fmt.Sprintf("x1:%.0f, y1:%.0f, x2:%.0f, y2:%.0f", box[0], box[1], box[2], box[3])
}

// detectionText one "class: 0.xx (Category)" line per object.
func detectionText(objects []waste.Object) string {
	if len(objects) == 0 {
		return noObjectsText
	}
	var sb strings.Builder
	for _, o := range objects {
		fmt.Fprintf(&sb, "%s: %.2f (%s)\n", o.Class, o.Confidence, o.Category)
	}
	return sb.String()
}

func predictionRows(objects []waste.Object) [][]string {
	rows := make([][]string, len(objects))
	for i, o := range objects {
		rows[i] = []string{o.Class, fmt.Sprintf("%.2f", o.Confidence), string(o.Category), boxText(o.Box)}
	}
	return rows
}

func historyRows(entries []history.Entry) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Clock(), e.ObjectsText(), e.ConfidenceText()}
	}
	return rows
}

func outputMessage(path string) string {
	if path == "" {
		return noOutputText
	}
	return fmt.Sprintf(outputSavedText, path)
}

// deviceOptions camera indices offered without probing.
func deviceOptions(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}
