package yolo

import (
	"fmt"
	"sort"
)

// Detection a single predicted object.
type Detection struct {
	Box     [4]float32 // x1, y1, x2, y2 in source image pixels
	Score   float32
	ClassID int
	Class   string
}

// parseDetections decodes a [1, 4+C, N] YOLOv8-style output tensor.
// Boxes are returned in model input coordinates.
func parseDetections(outputData []float32, outputShape []int64, classes []string, confThreshold float32) ([]Detection, error) {
	if len(outputShape) != 3 || outputShape[0] != 1 {
		return nil, fmt.Errorf("unsupported output shape %v", outputShape)
	}

	numFeatures := int(outputShape[1])
	numAnchors := int(outputShape[2])
	numClasses := numFeatures - 4
	if numClasses <= 0 {
		return nil, fmt.Errorf("invalid class count %d for %d features", numClasses, numFeatures)
	}
	if len(outputData) < numFeatures*numAnchors {
		return nil, fmt.Errorf("output has %d values, shape %v needs %d", len(outputData), outputShape, numFeatures*numAnchors)
	}

	var detections []Detection
	for i := 0; i < numAnchors; i++ {
		cx := outputData[0*numAnchors+i]
		cy := outputData[1*numAnchors+i]
		w := outputData[2*numAnchors+i]
		h := outputData[3*numAnchors+i]

		var bestScore float32
		bestID := 0
		for c := 0; c < numClasses; c++ {
			score := outputData[(4+c)*numAnchors+i]
			if score > bestScore {
				bestScore = score
				bestID = c
			}
		}

		if bestScore < confThreshold || bestScore == 0 {
			continue
		}

		detections = append(detections, Detection{
			Box:     [4]float32{cx - w/2, cy - h/2, cx + w/2, cy + h/2},
			Score:   bestScore,
			ClassID: bestID,
			Class:   className(classes, bestID),
		})
	}

	return detections, nil
}

func className(classes []string, id int) string {
	if id >= 0 && id < len(classes) {
		return classes[id]
	}
	return fmt.Sprintf("class_%d", id)
}

// scaleBoxes maps boxes from model input space back to the source image.
func scaleBoxes(detections []Detection, scaleX, scaleY float32) {
	for i := range detections {
		detections[i].Box[0] *= scaleX
		detections[i].Box[1] *= scaleY
		detections[i].Box[2] *= scaleX
		detections[i].Box[3] *= scaleY
	}
}

func iou(box1, box2 [4]float32) float32 {
	interXMin := max(box1[0], box2[0])
	interYMin := max(box1[1], box2[1])
	interXMax := min(box1[2], box2[2])
	interYMax := min(box1[3], box2[3])

	interArea := max(0, interXMax-interXMin) * max(0, interYMax-interYMin)
	area1 := (box1[2] - box1[0]) * (box1[3] - box1[1])
	area2 := (box2[2] - box2[0]) * (box2[3] - box2[1])

	return interArea / (area1 + area2 - interArea + 1e-6)
}

// nonMaxSuppression keeps the highest scoring box of every overlapping group.
// Suppression is class-agnostic.
func nonMaxSuppression(detections []Detection, iouThreshold float32) []Detection {
	if len(detections) == 0 {
		return detections
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Score > detections[j].Score
	})

	keep := make([]Detection, 0, len(detections))
	for _, current := range detections {
		suppressed := false
		for _, kept := range keep {
			if iou(current.Box, kept.Box) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			keep = append(keep, current)
		}
	}

	return keep
}
