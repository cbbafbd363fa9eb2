package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	log, err := New(LogConfig{Level: "debug", Format: "text"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = New(LogConfig{Level: "not-a-level", Format: "json"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestNew_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(LogConfig{Level: "info", Format: "text", Output: "stderr", File: path})
	require.NoError(t, err)

	log.Info("frame processed", "frame", 12, "mode", "video")
	log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.Contains(line, `"msg":"frame processed"`), line)
	assert.True(t, strings.Contains(line, `"frame":12`), line)
	assert.True(t, strings.Contains(line, `"mode":"video"`), line)
}

func TestConvertFields(t *testing.T) {
	fields := convertFields("a", 1, 42, "skipped", "err", errors.New("boom"), "dangling")
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "err", fields[1].Key)
	assert.Equal(t, zapcore.ErrorType, fields[1].Type)
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Info("ignored", "k", "v")
	log.WithFields("session", "abc").Warn("ignored")
	log.Named("controller").Debug("ignored")
}
