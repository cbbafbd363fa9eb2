package yolo

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Display defaults for the preview area.
const (
	DisplayWidth  = 800
	DisplayHeight = 480
)

// LoadImage decodes an image file, honouring EXIF orientation.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image %q: %w", path, err)
	}
	if emptyFrame(img) {
		return nil, fmt.Errorf("open image %q: %w", path, ErrEmptyFrame)
	}
	return img, nil
}

// SaveImage encodes img using the format implied by the file extension.
func SaveImage(img image.Image, path string) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("save image %q: %w", path, err)
	}
	return nil
}

// ResizeForDisplay letterboxes img into a width x height black canvas,
// keeping its aspect ratio and centring it.
func ResizeForDisplay(img image.Image, width, height int) *image.NRGBA {
	canvas := imaging.New(width, height, color.Black)
	if emptyFrame(img) || width <= 0 || height <= 0 {
		return canvas
	}

	b := img.Bounds()
	aspect := float64(b.Dx()) / float64(b.Dy())

	newW, newH := width, height
	if aspect > float64(width)/float64(height) {
		newH = int(float64(width) / aspect)
	} else {
		newW = int(float64(height) * aspect)
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	resized := imaging.Resize(img, newW, newH, imaging.Linear)
	return imaging.Paste(canvas, resized, image.Pt((width-newW)/2, (height-newH)/2))
}
