package yolo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileInput(t *testing.T) {
	src, err := NewFileInput("/tmp/bin.JPG")
	require.NoError(t, err)
	assert.Equal(t, SourceImage, src.Type)
	assert.False(t, src.IsRealTime())

	src, err = NewFileInput("clip.mov")
	require.NoError(t, err)
	assert.Equal(t, SourceVideo, src.Type)
	assert.Equal(t, "video clip.mov", src.String())

	_, err = NewFileInput("notes.txt")
	assert.True(t, errors.Is(err, ErrUnsupportedInput))
}

func TestNewCameraInput(t *testing.T) {
	tests := []struct {
		device  string
		want    int
		wantErr bool
	}{
		{device: "", want: 0},
		{device: "webcam", want: 0},
		{device: "2", want: 2},
		{device: "/dev/video1", want: 1},
		{device: "video=3", want: 3},
		{device: "-1", wantErr: true},
		{device: "front", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			src, err := NewCameraInput(tt.device)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, SourceWebcam, src.Type)
			assert.Equal(t, tt.want, src.Device)
			assert.True(t, src.IsRealTime())
		})
	}
}
