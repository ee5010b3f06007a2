// Package config loads the merger's settings: defaults, then an optional YAML
// file, then environment variables. Command-line flags are applied by main.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config holds all application configuration.
type Config struct {
	Addr        string        `yaml:"addr"`
	MaxFiles    int           `yaml:"max_files"`
	MaxUploadMB int64         `yaml:"max_upload_mb"`
	MaxConns    int           `yaml:"max_conns"`
	BannerDelay time.Duration `yaml:"banner_delay"`
	Preview     PreviewConfig `yaml:"preview"`
	Merge       MergeConfig   `yaml:"merge"`
	Log         LogConfig     `yaml:"log"`
}

// PreviewConfig sizes thumbnails.
type PreviewConfig struct {
	BoxWidth  int `yaml:"box_width"`
	BoxHeight int `yaml:"box_height"`
	PDFWidth  int `yaml:"pdf_width"`
	Workers   int `yaml:"workers"`
}

// MergeConfig holds output document settings.
type MergeConfig struct {
	PageWidth  float64 `yaml:"page_width"`  // points
	PageHeight float64 `yaml:"page_height"` // points
	OutputName string  `yaml:"output_name"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:        "127.0.0.1:8080",
		MaxFiles:    20,
		MaxUploadMB: 128,
		MaxConns:    32,
		BannerDelay: 3 * time.Second,
		Preview: PreviewConfig{
			BoxWidth:  100,
			BoxHeight: 130,
			PDFWidth:  100,
			Workers:   4,
		},
		Merge: MergeConfig{
			PageWidth:  612,
			PageHeight: 792,
			OutputName: "merged.pdf",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load returns Default overlaid with the YAML file at path (if any) and with
// the PDFMERGER_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("PDFMERGER_ADDR", c.Addr)
	c.MaxFiles = getEnvAsInt("PDFMERGER_MAX_FILES", c.MaxFiles)
	c.Preview.Workers = getEnvAsInt("PDFMERGER_PREVIEW_WORKERS", c.Preview.Workers)
	c.BannerDelay = getEnvAsDuration("PDFMERGER_BANNER_DELAY", c.BannerDelay)
	c.Log.Level = getEnv("PDFMERGER_LOG_LEVEL", c.Log.Level)
}

// MaxUploadBytes converts MaxUploadMB.
func (c Config) MaxUploadBytes() int64 { return c.MaxUploadMB << 20 }

// Validate rejects settings the merger cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("config: addr is required")
	case c.MaxFiles < 2:
		return errors.Errorf("config: max_files must be at least 2, got %d", c.MaxFiles)
	case c.MaxUploadMB <= 0:
		return errors.Errorf("config: max_upload_mb must be positive, got %d", c.MaxUploadMB)
	case c.MaxConns <= 0:
		return errors.Errorf("config: max_conns must be positive, got %d", c.MaxConns)
	case c.Preview.BoxWidth <= 0 || c.Preview.BoxHeight <= 0:
		return errors.Errorf("config: preview box %dx%d has no area", c.Preview.BoxWidth, c.Preview.BoxHeight)
	case c.Preview.PDFWidth <= 0:
		return errors.Errorf("config: preview pdf_width must be positive, got %d", c.Preview.PDFWidth)
	case c.Preview.Workers <= 0:
		return errors.Errorf("config: preview workers must be positive, got %d", c.Preview.Workers)
	case c.Merge.PageWidth <= 0 || c.Merge.PageHeight <= 0:
		return errors.Errorf("config: page %gx%g has no area", c.Merge.PageWidth, c.Merge.PageHeight)
	case c.Merge.OutputName == "":
		return errors.New("config: merge output_name is required")
	}
	return nil
}

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
