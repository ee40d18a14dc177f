// Package config loads the scan and select settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"

	"wallsieve/colorutil"
	"wallsieve/signalhandler"
	"wallsieve/utils"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultPath is read when neither a flag nor CONFIG_PATH names a file
const DefaultPath = "config.yaml"

// Config is the full application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Scan     ScanConfig     `yaml:"scan"`
	Select   SelectConfig   `yaml:"select"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig selects the store file and driver
type DatabaseConfig struct {
	Driver    string `yaml:"driver" validate:"oneof=sqlite3 sqlite"`
	StoreName string `yaml:"storeName" validate:"required"`
	Dir       string `yaml:"dir"`
}

// ScanConfig holds the scan phase settings
type ScanConfig struct {
	Folder       string        `yaml:"folder"`
	TopCrop      float64       `yaml:"topCrop" validate:"gte=0,lt=1"`
	BottomCrop   float64       `yaml:"bottomCrop" validate:"gte=0,lt=1"`
	SampleStride int           `yaml:"sampleStride" validate:"min=1"`
	Algorithm    string        `yaml:"algorithm" validate:"required"`
	Threads      int           `yaml:"threads" validate:"min=1"`
	ImagesOnly   bool          `yaml:"imagesOnly"`
	Strict       bool          `yaml:"strict"`
	Timeout      time.Duration `yaml:"timeout" validate:"gte=0"`
}

// SelectConfig holds the select phase settings
type SelectConfig struct {
	Destination    string  `yaml:"destination"`
	Ratio          string  `yaml:"ratio" validate:"required"`
	RatioDeviation string  `yaml:"ratioDeviation" validate:"required"`
	MinWidth       int     `yaml:"minWidth" validate:"gte=0"`
	MinHeight      int     `yaml:"minHeight" validate:"gte=0"`
	MaxDeviation   float64 `yaml:"maxDeviation" validate:"gte=0"`
	Algorithm      string  `yaml:"algorithm"`
	Collision      string  `yaml:"collision" validate:"oneof=overwrite rename"`
	DryRun         bool    `yaml:"dryRun"`
}

// LogConfig controls the slog output
type LogConfig struct {
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:    "sqlite3",
			StoreName: "wallpaper",
			Dir:       ".",
		},
		Scan: ScanConfig{
			TopCrop:      0.1,
			BottomCrop:   0.1,
			SampleStride: 2,
			Algorithm:    colorutil.CIE2000.String(),
			Threads:      signalhandler.GetOptimalProcs(),
		},
		Select: SelectConfig{
			Ratio:          "16x9",
			RatioDeviation: "10%",
			MaxDeviation:   5,
			Collision:      "overwrite",
		},
	}
}

// ResolvePath picks the config file: the explicit path, then CONFIG_PATH,
// then DefaultPath if it exists. An empty result means built-in defaults.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}

// LoadConfig reads the YAML file at configPath over the defaults and validates it.
// An empty configPath returns the validated defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks field ranges and the values that need parsing
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Scan.TopCrop+c.Scan.BottomCrop >= 1 {
		return fmt.Errorf("%w: topCrop + bottomCrop must be below 1", ErrInvalidConfig)
	}
	if _, err := colorutil.ParseAlgorithm(c.Scan.Algorithm); err != nil {
		return fmt.Errorf("%w: scan.algorithm: %w", ErrInvalidConfig, err)
	}
	if c.Select.Algorithm != "" {
		if _, err := colorutil.ParseAlgorithm(c.Select.Algorithm); err != nil {
			return fmt.Errorf("%w: select.algorithm: %w", ErrInvalidConfig, err)
		}
	}
	if _, err := utils.ParseRatio(c.Select.Ratio); err != nil {
		return fmt.Errorf("%w: select.ratio: %w", ErrInvalidConfig, err)
	}
	if _, err := utils.ParsePercent(c.Select.RatioDeviation); err != nil {
		return fmt.Errorf("%w: select.ratioDeviation: %w", ErrInvalidConfig, err)
	}
	return nil
}

// DatabasePath returns the sqlite file the store lives in
func (c *Config) DatabasePath() string {
	return utils.DatabasePath(c.Database.Dir, c.Database.StoreName)
}
