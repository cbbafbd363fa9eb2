package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigManager loads and saves a config file at a fixed path.
type ConfigManager struct {
	config *AppConfig
	path   string
}

// NewConfigManager creates a manager for configPath.
func NewConfigManager(configPath string) *ConfigManager {
	return &ConfigManager{
		path: configPath,
	}
}

// Path returns the managed file path.
func (cm *ConfigManager) Path() string {
	return cm.path
}

// LoadConfig loads the file through Load.
func (cm *ConfigManager) LoadConfig() error {
	cfg, err := Load(cm.path)
	if err != nil {
		return err
	}
	cm.config = cfg
	return nil
}

// SaveConfig writes the current configuration back to disk.
func (cm *ConfigManager) SaveConfig() error {
	if cm.config == nil {
		cm.config = Default()
	}

	data, err := yaml.Marshal(cm.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(cm.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(cm.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", cm.path, err)
	}
	return nil
}

// Config returns the loaded configuration, or the defaults before LoadConfig.
func (cm *ConfigManager) Config() *AppConfig {
	if cm.config == nil {
		return Default()
	}
	return cm.config
}

// CreateDefaultConfig writes the defaults to the managed path.
func (cm *ConfigManager) CreateDefaultConfig() error {
	cm.config = Default()
	return cm.SaveConfig()
}
