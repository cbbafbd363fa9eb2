package gui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Cubiaa/waste-yolo/controller"
	"github.com/Cubiaa/waste-yolo/history"
	"github.com/Cubiaa/waste-yolo/waste"
)

func TestDetailsFor(t *testing.T) {
	tests := []struct {
		name  string
		frame controller.Frame
		want  frameDetails
	}{
		{
			name:  "video",
			frame: controller.Frame{Mode: controller.ModeVideo, Width: 1280, Height: 720, FPS: 29.97, Position: 12, Total: 300},
			want:  frameDetails{Resolution: "1280x720", FPS: "29.97", Frame: "12", Total: "300"},
		},
		{
			name:  "webcam",
			frame: controller.Frame{Mode: controller.ModeWebcam, Width: 640, Height: 480, FPS: 30, Position: 99},
			want:  frameDetails{Resolution: "640x480", FPS: "Live", Frame: "--", Total: "--"},
		},
		{
			name:  "image",
			frame: controller.Frame{Mode: controller.ModeImage, Width: 800, Height: 600},
			want:  frameDetails{Resolution: "800x600", FPS: "--", Frame: "--", Total: "--"},
		},
		{
			name:  "empty",
			frame: controller.Frame{},
			want:  emptyDetails(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detailsFor(tt.frame))
		})
	}
}

func TestDetectionText(t *testing.T) {
	assert.Equal(t, "No objects detected.", detectionText(nil))

	got := detectionText([]waste.Object{
		{Class: "bottle", Confidence: 0.876, Category: waste.Recycle},
		{Class: "banana", Confidence: 0.61, Category: waste.Reduce},
	})
	assert.Equal(t, "bottle: 0.88 (Recycle)\nbanana: 0.61 (Reduce)\n", got)
}

func TestPredictionRows(t *testing.T) {
	rows := predictionRows([]waste.Object{
		{Class: "jar", Confidence: 0.7, Box: [4]float32{10.4, 20.6, 110, 220.2}, Category: waste.Reuse},
	})
	assert.Equal(t, [][]string{{"jar", "0.70", "Reuse", "x1:10, y1:21, x2:110, y2:220"}}, rows)
	assert.Len(t, rows[0], len(predictionHeaders))
}

func TestHistoryRows(t *testing.T) {
	e := history.NewEntry("video", time.Date(2024, 5, 1, 14, 2, 3, 0, time.Local), []waste.Object{
		{Class: "paper", Confidence: 0.9, Category: waste.Recycle},
	})
	assert.Equal(t, [][]string{{"14:02:03", "paper(Recycle)", "0.90"}}, historyRows([]history.Entry{e}))
	assert.Len(t, historyRows(nil), 0)
}

func TestSmallFormatters(t *testing.T) {
	assert.Equal(t, "Current: 0.60", thresholdText(0.6))
	assert.Equal(t, "No output file available", outputMessage(""))
	assert.Equal(t, "Output saved to out/a.jpg", outputMessage("out/a.jpg"))
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, deviceOptions(5))
}
