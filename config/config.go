// Package config loads the service YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"delaycast/logging"
)

// History backends.
const (
	HistoryJSONL  = "jsonl"
	HistorySQLite = "sqlite"
)

// Config is the service configuration. Paths and ports are read once at
// startup; only Log.Level is applied again on reload.
type Config struct {
	HTTP struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxUploadMB    int64         `yaml:"max_upload_mb"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Storage struct {
		Dir            string `yaml:"dir"`
		HistoryBackend string `yaml:"history_backend"`
	} `yaml:"storage"`
	Log logging.Config `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.HTTP.Port = 8000
	cfg.HTTP.Timeout = 30 * time.Second
	cfg.HTTP.MaxUploadMB = 32
	cfg.HTTP.AllowedOrigins = []string{"*"}
	cfg.Storage.Dir = "storage"
	cfg.Storage.HistoryBackend = HistoryJSONL
	cfg.Log.Level = "info"
	cfg.Log.MaxSizeMB = 100
	cfg.Log.MaxBackups = 3
	cfg.Log.MaxAgeDays = 28
	return cfg
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: invalid http.port %d", c.HTTP.Port)
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("config: http.timeout must be positive")
	}
	if c.HTTP.MaxUploadMB <= 0 {
		return errors.New("config: http.max_upload_mb must be positive")
	}
	if c.Storage.Dir == "" {
		return errors.New("config: storage.dir is required")
	}
	switch c.Storage.HistoryBackend {
	case HistoryJSONL, HistorySQLite:
	default:
		return fmt.Errorf("config: unknown storage.history_backend %q", c.Storage.HistoryBackend)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
