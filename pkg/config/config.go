// Package config provides configuration loading and management for trk2surf.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// DistanceThreshold is the maximum endpoint-to-vertex distance in mm;
		// endpoints farther from every vertex are discarded
		DistanceThreshold float64 `yaml:"distanceThreshold"`

		// Surface selects which cortical surface the endpoints are matched
		// against: white, midgray or pial
		Surface string `yaml:"surface"`

		// StreamlineEnd selects which streamline points become endpoints:
		// head, tail or both
		StreamlineEnd string `yaml:"streamlineEnd"`

		// Output selects the map type: count or pdf
		Output string `yaml:"output"`
	} `yaml:"processing"`

	// Alignment parameters
	Alignment struct {
		// RefVolume is an optional NIfTI volume whose grid defines the
		// surface-space (tkr) alignment of the streamlines
		RefVolume string `yaml:"refVolume"`
	} `yaml:"alignment"`

	// Output parameters
	Output struct {
		// Dir is the directory where the per-hemisphere overlay files are written
		Dir string `yaml:"dir"`

		// Render controls whether quick-look PNG projections are saved
		Render bool `yaml:"render"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.DistanceThreshold = 2.0
	cfg.Processing.Surface = "white"
	cfg.Processing.StreamlineEnd = "both"
	cfg.Processing.Output = "count"

	// Set default output parameters
	cfg.Output.Dir = "endpoint_maps"
	cfg.Output.Render = false
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
