package yolo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdClamp(t *testing.T) {
	th := newThreshold(0.6)
	assert.InDelta(t, 0.6, th.Load(), 1e-6)

	th.Store(1.7)
	assert.Equal(t, float32(1), th.Load())

	th.Store(-0.2)
	assert.Equal(t, float32(0), th.Load())
}
