// Package config provides configuration management for imagehunter.
// It loads, validates and saves the YAML settings that size the thumbnail
// worker pool, bound each download and locate the content cache.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/imagehunter/pkg/errors"
	"github.com/glorpus-work/imagehunter/pkg/fsutil"
	"github.com/glorpus-work/imagehunter/pkg/headers"
)

// Config represents the application configuration.
type Config struct {
	// General settings
	Settings Settings `yaml:"settings"`

	// Headers adds request headers for matching image hosts.
	Headers []headers.Rule `yaml:"headers,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Cache settings
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Network settings
	WorkerCount    int           `yaml:"worker_count"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBytes       int64         `yaml:"max_bytes"`
	UserAgent      string        `yaml:"user_agent,omitempty"`

	// Scheduler settings
	ResultBuffer int `yaml:"result_buffer"`

	// Mirror settings
	MirrorURL    string `yaml:"mirror_url,omitempty"`    // e.g. s3://bucket?region=eu-west-1
	MirrorPrefix string `yaml:"mirror_prefix,omitempty"` // key prefix inside the bucket

	// Output settings
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// Default configuration values.
const (
	// DefaultWorkerCount is the number of concurrent thumbnail downloads.
	DefaultWorkerCount = 6

	// DefaultRequestTimeout bounds one download including the body.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultMaxBytes caps a single thumbnail.
	DefaultMaxBytes = 5_000_000

	// DefaultResultBuffer is the capacity of the outcome channel.
	DefaultResultBuffer = 256

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cacheDir, err := fsutil.GetThumbnailCacheDir()
	if err != nil {
		// Fallback to a temp directory if we can't determine the user cache dir
		cacheDir = filepath.Join(os.TempDir(), fsutil.AppName, fsutil.ThumbnailDirName)
	}

	return &Config{
		Settings: Settings{
			CacheDir:       cacheDir,
			WorkerCount:    DefaultWorkerCount,
			RequestTimeout: DefaultRequestTimeout,
			MaxBytes:       DefaultMaxBytes,
			ResultBuffer:   DefaultResultBuffer,
			LogLevel:       "info",
			LogFormat:      "text",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigParse, err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigValidation, err)
	}

	return &config, nil
}

// SaveConfig writes the configuration to path through a temp file and rename.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrConfigDirectory, err)
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeSecure)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrConfigFileCreate, err)
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: %w", errors.ErrConfigEncode, err)
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := fsutil.ReplaceFile(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("%w: %w", errors.ErrConfigFileRename, err)
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigMarshal, err)
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateSettings(c.Settings); err != nil {
		return err
	}
	for i, rule := range c.Headers {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("headers rule %d: %w", i+1, err)
		}
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.WorkerCount < 1 {
		return errors.ErrWorkerCountInvalid
	}
	if s.RequestTimeout <= 0 {
		return errors.ErrRequestTimeoutInvalid
	}
	if s.MaxBytes < 1 {
		return errors.ErrMaxBytesInvalid
	}
	if s.ResultBuffer < 0 {
		return errors.ErrResultBufferInvalid
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(s.LogFormat)] {
		return errors.ErrInvalidLogFormatWithDetails(s.LogFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// GetCacheDir returns the thumbnail cache directory with a leading "~"
// expanded to the user's home directory.
func (c *Config) GetCacheDir() string {
	dir := c.Settings.CacheDir
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}

// applyDefaults fills in missing values with defaults. Zero and empty values
// count as missing, so an explicit negative value still fails validation.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.WorkerCount == 0 {
		c.Settings.WorkerCount = defaults.Settings.WorkerCount
	}
	if c.Settings.RequestTimeout == 0 {
		c.Settings.RequestTimeout = defaults.Settings.RequestTimeout
	}
	if c.Settings.MaxBytes == 0 {
		c.Settings.MaxBytes = defaults.Settings.MaxBytes
	}
	if c.Settings.ResultBuffer == 0 {
		c.Settings.ResultBuffer = defaults.Settings.ResultBuffer
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.Settings.LogFormat
	}
}
