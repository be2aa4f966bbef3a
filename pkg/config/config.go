// Package config holds application configuration shared by the bluectl
// commands.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	LogLevel        string        `yaml:"log_level" default:"warn"`
	ScanDuration    time.Duration `yaml:"scan_duration" default:"10s"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" default:"10s"`
	DiscoverTimeout time.Duration `yaml:"discover_timeout" default:"5s"`
	OutputFormat    string        `yaml:"output_format" default:"table"` // table, json
}

// DefaultConfig returns configuration populated from struct-tag defaults.
func DefaultConfig() *Config {
	cfg := new(Config)
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// UnmarshalYAML decodes the config, accepting durations in their string
// form ("10s"). Keys absent from the document keep their current values.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		LogLevel        string `yaml:"log_level"`
		ScanDuration    string `yaml:"scan_duration"`
		ConnectTimeout  string `yaml:"connect_timeout"`
		DiscoverTimeout string `yaml:"discover_timeout"`
		OutputFormat    string `yaml:"output_format"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.LogLevel != "" {
		c.LogLevel = raw.LogLevel
	}
	if raw.OutputFormat != "" {
		c.OutputFormat = raw.OutputFormat
	}

	durations := []struct {
		dst *time.Duration
		src string
		key string
	}{
		{&c.ScanDuration, raw.ScanDuration, "scan_duration"},
		{&c.ConnectTimeout, raw.ConnectTimeout, "connect_timeout"},
		{&c.DiscoverTimeout, raw.DiscoverTimeout, "discover_timeout"},
	}
	for _, d := range durations {
		if d.src == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

// NewLogger creates a logger configured from the config's log level.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger, nil
}
