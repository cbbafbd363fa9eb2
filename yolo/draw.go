package yolo

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	labelCharWidth  = 7
	labelTextHeight = 13
	labelPadding    = 2
)

// Annotate returns a copy of img with the detections drawn on it.
// The source image is never modified.
func Annotate(img image.Image, detections []Detection, opts *DetectionOptions) *image.RGBA {
	if opts == nil {
		opts = DefaultDetectionOptions()
	}

	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)

	boxColor := parseColor(opts.BoxColor, color.RGBA{255, 0, 0, 255})
	labelColor := parseColor(opts.LabelColor, color.RGBA{255, 255, 255, 255})

	for _, d := range detections {
		if opts.DrawBoxes {
			drawBBox(canvas, d.Box, boxColor, opts.LineWidth)
		}
		if opts.DrawLabels {
			label := fmt.Sprintf("%s %.2f", d.Class, d.Score)
			drawLabel(canvas, label, int(d.Box[0]), int(d.Box[1]), boxColor, labelColor)
		}
	}

	return canvas
}

// drawBBox draws a rectangle outline clamped to the image bounds.
func drawBBox(img *image.RGBA, bbox [4]float32, lineColor color.Color, lineWidth int) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return
	}

	x1 := int(max(0, min(float32(width-1), bbox[0])))
	y1 := int(max(0, min(float32(height-1), bbox[1])))
	x2 := int(max(0, min(float32(width-1), bbox[2])))
	y2 := int(max(0, min(float32(height-1), bbox[3])))
	if x2 < x1 || y2 < y1 {
		return
	}

	if lineWidth < 1 {
		lineWidth = 1
	}

	for i := 0; i < lineWidth; i++ {
		for x := x1; x <= x2; x++ {
			if y1+i <= y2 {
				img.Set(x, y1+i, lineColor)
			}
			if y2-i >= y1 {
				img.Set(x, y2-i, lineColor)
			}
		}
		for y := y1; y <= y2; y++ {
			if x1+i <= x2 {
				img.Set(x1+i, y, lineColor)
			}
			if x2-i >= x1 {
				img.Set(x2-i, y, lineColor)
			}
		}
	}
}

// drawLabel draws text on a filled background just above boxTop, moving it
// inside the image when it would be cut off.
func drawLabel(img *image.RGBA, label string, x, boxTop int, background, foreground color.Color) {
	bounds := img.Bounds()
	boxW := len(label)*labelCharWidth + 2*labelPadding
	boxH := labelTextHeight + 2*labelPadding
	yPos := boxTop - boxH

	if x+boxW > bounds.Max.X {
		x = bounds.Max.X - boxW
	}
	if x < 0 {
		x = 0
	}
	// no room above the box: draw inside its top edge
	if yPos < 0 {
		yPos = boxTop
	}
	if yPos+boxH > bounds.Max.Y {
		yPos = bounds.Max.Y - boxH
	}
	if yPos < 0 {
		yPos = 0
	}

	rect := image.Rect(x, yPos, x+boxW, yPos+boxH).Intersect(bounds)
	draw.Draw(img, rect, image.NewUniform(background), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(foreground),
		Face: basicfont.Face7x13,
		Dot: fixed.Point26_6{
			X: fixed.I(x + labelPadding),
			Y: fixed.I(yPos + labelPadding + basicfont.Face7x13.Ascent),
		},
	}
	d.DrawString(label)
}

// parseColor maps a colour name to RGBA, falling back to def.
func parseColor(name string, def color.RGBA) color.RGBA {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "red":
		return color.RGBA{255, 0, 0, 255}
	case "green":
		return color.RGBA{0, 255, 0, 255}
	case "blue":
		return color.RGBA{0, 0, 255, 255}
	case "yellow":
		return color.RGBA{255, 255, 0, 255}
	case "cyan":
		return color.RGBA{0, 255, 255, 255}
	case "magenta":
		return color.RGBA{255, 0, 255, 255}
	case "white":
		return color.RGBA{255, 255, 255, 255}
	case "black":
		return color.RGBA{0, 0, 0, 255}
	case "orange":
		return color.RGBA{255, 165, 0, 255}
	case "purple":
		return color.RGBA{128, 0, 128, 255}
	default:
		return def
	}
}
