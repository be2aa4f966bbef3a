package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ScanDuration)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.DiscoverTimeout)
	assert.Equal(t, "table", cfg.OutputFormat)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bluectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"log_level: debug\nscan_duration: 3s\noutput_format: json\n",
	), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.ScanDuration)
	assert.Equal(t, "json", cfg.OutputFormat)
	// Unset keys keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.DiscoverTimeout)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"

	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	cfg.LogLevel = "verbose"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}
