package yolo

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnsupportedInput is returned for files or devices that cannot be used as a source.
var ErrUnsupportedInput = errors.New("unsupported input")

// SourceType identifies one of the three supported inputs.
type SourceType string

const (
	SourceImage  SourceType = "image"
	SourceVideo  SourceType = "video"
	SourceWebcam SourceType = "webcam"
)

// Extensions accepted by the file dialogs.
var (
	ImageExtensions = []string{".jpg", ".jpeg", ".png"}
	VideoExtensions = []string{".mp4", ".avi", ".mov"}
)

// InputSource a user-selected input.
type InputSource struct {
	Type   SourceType
	Path   string // image or video file
	Device int    // webcam index
}

// NewFileInput creates an image or video source from the file extension.
func NewFileInput(path string) (*InputSource, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case hasExt(ImageExtensions, ext):
		return &InputSource{Type: SourceImage, Path: path}, nil
	case hasExt(VideoExtensions, ext):
		return &InputSource{Type: SourceVideo, Path: path}, nil
	}
	return nil, fmt.Errorf("%w: file format %q", ErrUnsupportedInput, path)
}

// NewCameraInput creates a webcam source. device is an index such as
// "0", or one of the keywords camera/cam/webcam for device 0.
func NewCameraInput(device string) (*InputSource, error) {
	index, err := resolveCameraDevice(device)
	if err != nil {
		return nil, err
	}
	return &InputSource{Type: SourceWebcam, Device: index}, nil
}

func resolveCameraDevice(device string) (int, error) {
	device = strings.TrimSpace(device)
	for _, keyword := range []string{"", "camera", "cam", "webcam"} {
		if strings.EqualFold(device, keyword) {
			return 0, nil
		}
	}

	trimmed := strings.TrimPrefix(strings.ToLower(device), "/dev/video")
	trimmed = strings.TrimPrefix(trimmed, "video=")
	index, err := strconv.Atoi(trimmed)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("%w: camera device %q", ErrUnsupportedInput, device)
	}
	return index, nil
}

// IsRealTime reports whether frames arrive live rather than from a file.
func (is *InputSource) IsRealTime() bool {
	return is.Type == SourceWebcam
}

// String describes the source for logs and window titles.
func (is *InputSource) String() string {
	if is.Type == SourceWebcam {
		return fmt.Sprintf("webcam %d", is.Device)
	}
	return fmt.Sprintf("%s %s", is.Type, filepath.Base(is.Path))
}

func hasExt(list []string, ext string) bool {
	for _, e := range list {
		if e == ext {
			return true
		}
	}
	return false
}
