package yolo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildOutput lays out anchors as a [1, 4+C, N] tensor.
func buildOutput(numClasses int, anchors [][]float32) ([]float32, []int64) {
	features := 4 + numClasses
	n := len(anchors)
	data := make([]float32, features*n)
	for i, a := range anchors {
		for f := 0; f < features; f++ {
			data[f*n+i] = a[f]
		}
	}
	return data, []int64{1, int64(features), int64(n)}
}

func TestParseDetections(t *testing.T) {
	classes := []string{"plastic", "paper"}
	data, shape := buildOutput(2, [][]float32{
		{100, 100, 20, 40, 0.9, 0.1},  // plastic, kept
		{50, 50, 10, 10, 0.2, 0.3},    // below threshold
		{300, 200, 100, 50, 0.1, 0.7}, // paper, kept
	})

	dets, err := parseDetections(data, shape, classes, 0.5)
	require.NoError(t, err)
	require.Len(t, dets, 2)

	assert.Equal(t, "plastic", dets[0].Class)
	assert.Equal(t, 0, dets[0].ClassID)
	assert.InDelta(t, 0.9, dets[0].Score, 1e-6)
	assert.Equal(t, [4]float32{90, 80, 110, 120}, dets[0].Box)

	assert.Equal(t, "paper", dets[1].Class)
	assert.Equal(t, [4]float32{250, 175, 350, 225}, dets[1].Box)
}

func TestParseDetections_ThresholdIsInclusive(t *testing.T) {
	data, shape := buildOutput(1, [][]float32{{10, 10, 4, 4, 0.5}})

	dets, err := parseDetections(data, shape, []string{"glass"}, 0.5)
	require.NoError(t, err)
	assert.Len(t, dets, 1)
}

func TestParseDetections_UnknownClassID(t *testing.T) {
	data, shape := buildOutput(3, [][]float32{{10, 10, 4, 4, 0, 0, 0.8}})

	dets, err := parseDetections(data, shape, []string{"only-one"}, 0.1)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "class_2", dets[0].Class)
}

func TestParseDetections_BadShape(t *testing.T) {
	_, err := parseDetections(make([]float32, 10), []int64{1, 10}, nil, 0.5)
	assert.Error(t, err)

	_, err = parseDetections(make([]float32, 8), []int64{1, 4, 2}, nil, 0.5)
	assert.Error(t, err)

	_, err = parseDetections(make([]float32, 3), []int64{1, 6, 2}, nil, 0.5)
	assert.Error(t, err)
}

func TestScaleBoxes(t *testing.T) {
	dets := []Detection{{Box: [4]float32{10, 20, 30, 40}}}
	scaleBoxes(dets, 2, 0.5)
	assert.Equal(t, [4]float32{20, 10, 60, 20}, dets[0].Box)
}

func TestIOU(t *testing.T) {
	a := [4]float32{0, 0, 10, 10}

	assert.InDelta(t, 1.0, iou(a, a), 1e-4)
	assert.InDelta(t, 0.0, iou(a, [4]float32{20, 20, 30, 30}), 1e-6)
	// 5x10 overlap over a 150 union
	assert.InDelta(t, 50.0/150.0, iou(a, [4]float32{5, 0, 15, 10}), 1e-4)
}

func TestNonMaxSuppression(t *testing.T) {
	dets := []Detection{
		{Box: [4]float32{0, 0, 10, 10}, Score: 0.6, Class: "a"},
		{Box: [4]float32{1, 1, 11, 11}, Score: 0.9, Class: "b"},
		{Box: [4]float32{50, 50, 60, 60}, Score: 0.7, Class: "c"},
	}

	kept := nonMaxSuppression(dets, 0.5)
	require.Len(t, kept, 2)
	assert.Equal(t, "b", kept[0].Class)
	assert.Equal(t, "c", kept[1].Class)
}

func TestNonMaxSuppression_Empty(t *testing.T) {
	assert.Empty(t, nonMaxSuppression(nil, 0.5))
}
