package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/imagehunter/pkg/errors"
	"github.com/glorpus-work/imagehunter/pkg/fsutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 6, cfg.Settings.WorkerCount)
	assert.Equal(t, 10*time.Second, cfg.Settings.RequestTimeout)
	assert.Equal(t, int64(5_000_000), cfg.Settings.MaxBytes)
	assert.Equal(t, 256, cfg.Settings.ResultBuffer)
	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, "text", cfg.Settings.LogFormat)
	assert.Equal(t, fsutil.ThumbnailDirName, filepath.Base(cfg.Settings.CacheDir))
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `settings:
  cache_dir: /var/cache/thumbs
  worker_count: 3
  request_timeout: 2500ms
  log_level: debug
  log_format: json`

	err := os.WriteFile(configPath, []byte(configContent), fsutil.FileModeDefault)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "/var/cache/thumbs", cfg.Settings.CacheDir)
	assert.Equal(t, 3, cfg.Settings.WorkerCount)
	assert.Equal(t, 2500*time.Millisecond, cfg.Settings.RequestTimeout)
	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, "json", cfg.Settings.LogFormat)

	// Omitted keys take their defaults.
	assert.Equal(t, int64(DefaultMaxBytes), cfg.Settings.MaxBytes)
	assert.Equal(t, DefaultResultBuffer, cfg.Settings.ResultBuffer)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := LoadConfig("")
		assert.ErrorIs(t, err, errors.ErrEmptyConfigPath)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadConfigFromReader(strings.NewReader("settings: [oops"))
		assert.ErrorIs(t, err, errors.ErrConfigParse)
	})
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.WorkerCount = 2
	cfg.Settings.UserAgent = "Custom/1.0"

	configPath := filepath.Join(t.TempDir(), "nested", "test-config.yaml")

	err := cfg.SaveConfig(configPath)
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "worker_count: 2")
	assert.NoFileExists(t, configPath+".tmp")

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fsutil.FileModeSecure), info.Mode().Perm())

	loadedCfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loadedCfg)

	assert.ErrorIs(t, cfg.SaveConfig(""), errors.ErrEmptyConfigPath)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Settings)
		err    error
	}{
		{name: "valid config", modify: func(*Settings) {}},
		{name: "zero workers", modify: func(s *Settings) { s.WorkerCount = 0 }, err: errors.ErrWorkerCountInvalid},
		{name: "negative timeout", modify: func(s *Settings) { s.RequestTimeout = -time.Second }, err: errors.ErrRequestTimeoutInvalid},
		{name: "zero max bytes", modify: func(s *Settings) { s.MaxBytes = 0 }, err: errors.ErrMaxBytesInvalid},
		{name: "negative result buffer", modify: func(s *Settings) { s.ResultBuffer = -1 }, err: errors.ErrResultBufferInvalid},
		{name: "bad log level", modify: func(s *Settings) { s.LogLevel = "loud" }, err: errors.ErrInvalidLogLevel},
		{name: "bad log format", modify: func(s *Settings) { s.LogFormat = "xml" }, err: errors.ErrInvalidLogFormat},
		{name: "upper case level", modify: func(s *Settings) { s.LogLevel = "DEBUG" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg.Settings)
			err := cfg.Validate()
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
		})
	}

	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), errors.ErrConfigValidation)
}

func TestLoadConfig_Headers(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(`settings:
  worker_count: 2
headers:
  - hosts: [".images.example"]
    referer: origin
  - hosts: ["*"]
    set:
      Accept-Language: en
`))
	require.NoError(t, err)
	require.Len(t, cfg.Headers, 2)
	assert.Equal(t, []string{".images.example"}, cfg.Headers[0].Hosts)
	assert.Equal(t, "origin", cfg.Headers[0].Referer)
	assert.Equal(t, map[string]string{"Accept-Language": "en"}, cfg.Headers[1].Set)

	_, err = LoadConfigFromReader(strings.NewReader("headers:\n  - referer: origin\n"))
	require.ErrorIs(t, err, errors.ErrConfigValidation)
	assert.ErrorIs(t, err, errors.ErrHeaderRuleInvalid)

	_, err = LoadConfigFromReader(strings.NewReader("headers:\n  - hosts: [\"*\"]\n    set:\n      authorization: Bearer x\n"))
	assert.ErrorIs(t, err, errors.ErrHeaderRuleInvalid)
}

func TestLoadConfigFromReader_ValidationError(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("settings:\n  worker_count: -2\n"))
	require.ErrorIs(t, err, errors.ErrConfigValidation)
	assert.ErrorIs(t, err, errors.ErrWorkerCountInvalid)
}

func TestGetCacheDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Settings.CacheDir = "~/thumbs"
	assert.Equal(t, filepath.Join(home, "thumbs"), cfg.GetCacheDir())

	cfg.Settings.CacheDir = "/abs/thumbs"
	assert.Equal(t, "/abs/thumbs", cfg.GetCacheDir())
}

func TestGetDefaultConfigPath(t *testing.T) {
	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", filepath.Base(path))
	assert.Equal(t, fsutil.AppName, filepath.Base(filepath.Dir(path)))
}
