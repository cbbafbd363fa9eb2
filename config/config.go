// Package config loads the application settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Cubiaa/waste-yolo/logger"
	"github.com/Cubiaa/waste-yolo/waste"
	"github.com/Cubiaa/waste-yolo/yolo"
)

// AppConfig application configuration
type AppConfig struct {
	Model     ModelConfig           `yaml:"model"`
	Detection yolo.DetectionOptions `yaml:"detection"`
	Playback  PlaybackConfig        `yaml:"playback"`
	Output    OutputConfig          `yaml:"output"`
	History   HistoryConfig         `yaml:"history"`
	GUI       GUIConfig             `yaml:"gui"`
	Log       logger.LogConfig      `yaml:"log"`
	Remote    RemoteConfig          `yaml:"remote"`

	// WasteCategories overrides the built-in category table,
	// keyed by Reduce, Reuse or Recycle.
	WasteCategories map[string][]string `yaml:"waste_categories,omitempty"`
	// WasteCategoriesFile is a YAML file with the same waste_categories map.
	// Inline entries win over the file.
	WasteCategoriesFile string `yaml:"waste_categories_file,omitempty"`
}

// ModelConfig model files and session settings
type ModelConfig struct {
	Path        string          `yaml:"path" validate:"required"`
	ClassesPath string          `yaml:"classes_path"`
	YOLO        yolo.YOLOConfig `yaml:"yolo"`
}

// PlaybackConfig processing loop timing
type PlaybackConfig struct {
	FrameRate     float64       `yaml:"frame_rate" validate:"gt=0,lte=240"`
	PauseInterval time.Duration `yaml:"pause_interval" validate:"gt=0"`
	StopTimeout   time.Duration `yaml:"stop_timeout" validate:"gt=0"`
}

// OutputConfig where annotated results are written
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// HistoryConfig detection history settings
type HistoryConfig struct {
	Limit int `yaml:"limit" validate:"gte=1"`
	// DBPath enables persistence when set
	DBPath    string        `yaml:"db_path"`
	Retention time.Duration `yaml:"retention" validate:"gte=0"`
}

// GUIConfig window settings
type GUIConfig struct {
	WindowTitle   string `yaml:"window_title"`
	DisplayWidth  int    `yaml:"display_width" validate:"gte=160"`
	DisplayHeight int    `yaml:"display_height" validate:"gte=120"`
	MaxDevices    int    `yaml:"max_devices" validate:"gte=1,lte=16"`
}

// RemoteConfig optional websocket inference backend
type RemoteConfig struct {
	Enabled bool          `yaml:"enabled"`
	Host    string        `yaml:"host" validate:"required_if=Enabled true"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Model: ModelConfig{
			Path: yolo.DefaultModelPath,
			YOLO: *yolo.DefaultConfig(),
		},
		Detection: *yolo.DefaultDetectionOptions(),
		Playback: PlaybackConfig{
			FrameRate:     30,
			PauseInterval: 100 * time.Millisecond,
			StopTimeout:   time.Second,
		},
		Output: OutputConfig{
			Dir: ".",
		},
		History: HistoryConfig{
			Limit: 100,
		},
		GUI: GUIConfig{
			WindowTitle:   "Waste Classification System",
			DisplayWidth:  yolo.DisplayWidth,
			DisplayHeight: yolo.DisplayHeight,
			MaxDevices:    5,
		},
		Log: logger.LogConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stdout",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Remote: RemoteConfig{
			Path:    "/ws",
			Timeout: 5 * time.Second,
		},
	}
}

// Load reads .env (if any), then path (if it exists), applies WASTE_*
// overrides and validates the result. An empty path yields the defaults.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.setDefaults()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults fills zero values left by a partial YAML file.
func (c *AppConfig) setDefaults() {
	def := Default()

	if c.Model.Path == "" {
		c.Model.Path = def.Model.Path
	}
	if c.Playback.FrameRate == 0 {
		c.Playback.FrameRate = def.Playback.FrameRate
	}
	if c.Playback.PauseInterval == 0 {
		c.Playback.PauseInterval = def.Playback.PauseInterval
	}
	if c.Playback.StopTimeout == 0 {
		c.Playback.StopTimeout = def.Playback.StopTimeout
	}
	if c.Output.Dir == "" {
		c.Output.Dir = def.Output.Dir
	}
	if c.History.Limit == 0 {
		c.History.Limit = def.History.Limit
	}
	if c.GUI.WindowTitle == "" {
		c.GUI.WindowTitle = def.GUI.WindowTitle
	}
	if c.GUI.DisplayWidth == 0 {
		c.GUI.DisplayWidth = def.GUI.DisplayWidth
	}
	if c.GUI.DisplayHeight == 0 {
		c.GUI.DisplayHeight = def.GUI.DisplayHeight
	}
	if c.GUI.MaxDevices == 0 {
		c.GUI.MaxDevices = def.GUI.MaxDevices
	}
	if c.Remote.Path == "" {
		c.Remote.Path = def.Remote.Path
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = def.Remote.Timeout
	}
}

// applyEnv overrides settings from WASTE_* variables.
func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("WASTE_MODEL_PATH", &c.Model.Path)
	str("WASTE_CLASSES_PATH", &c.Model.ClassesPath)
	str("WASTE_CATEGORIES_FILE", &c.WasteCategoriesFile)
	str("WASTE_ONNX_LIBRARY", &c.Model.YOLO.LibraryPath)
	str("WASTE_OUTPUT_DIR", &c.Output.Dir)
	str("WASTE_HISTORY_DB", &c.History.DBPath)
	str("WASTE_LOG_LEVEL", &c.Log.Level)
	str("WASTE_LOG_FILE", &c.Log.File)
	str("WASTE_REMOTE_HOST", &c.Remote.Host)

	if v, ok := lookup("WASTE_CONF_THRESHOLD"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid WASTE_CONF_THRESHOLD %q: %w", v, err)
		}
		c.Detection.ConfThreshold = float32(f)
	}
	if v, ok := lookup("WASTE_USE_GPU"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid WASTE_USE_GPU %q: %w", v, err)
		}
		c.Model.YOLO.UseGPU = b
	}
	if v, ok := lookup("WASTE_REMOTE_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid WASTE_REMOTE_ENABLED %q: %w", v, err)
		}
		c.Remote.Enabled = b
	}
	return nil
}

// Validate checks struct tags and the waste category names.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := waste.ParseMapping(c.WasteCategories); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
