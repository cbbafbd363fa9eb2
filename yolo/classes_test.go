package yolo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClasses(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    []string
		wantErr bool
	}{
		{
			name: "classes list",
			yaml: "classes:\n  - plastic\n  - paper\n",
			want: []string{"plastic", "paper"},
		},
		{
			name: "ultralytics names map",
			yaml: "names:\n  0: cardboard\n  1: glass\n  3: metal\n",
			want: []string{"cardboard", "glass", "class_2", "metal"},
		},
		{
			name: "names list",
			yaml: "names: [trash, organic]\n",
			want: []string{"trash", "organic"},
		},
		{
			name:    "nothing usable",
			yaml:    "nc: 3\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			yaml:    "classes: [unterminated\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClasses([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadClasses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classes: [battery, bottle]\n"), 0644))

	got, err := LoadClasses(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"battery", "bottle"}, got)

	_, err = LoadClasses(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultClasses(t *testing.T) {
	assert.Len(t, DefaultClasses, 80)
	assert.Equal(t, "bottle", DefaultClasses[39])
}
