package cli

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/imagehunter/pkg/cache"
	"github.com/glorpus-work/imagehunter/pkg/config"
	"github.com/glorpus-work/imagehunter/pkg/download"
	"github.com/glorpus-work/imagehunter/pkg/headers"
	httpclient "github.com/glorpus-work/imagehunter/pkg/http"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	LogFormat  *string
)

// loadConfig loads the configuration, applies the global flags to it and
// configures logging accordingly.
func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if LogFormat != nil && *LogFormat != "" {
		cfg.Settings.LogFormat = strings.ToLower(*LogFormat)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	InitLogger(cfg)
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// An empty path makes LoadConfig and SaveConfig fail with a descriptive error.
		return ""
	}
	return defaultPath
}

func openCache(cfg *config.Config) (*cache.Cache, error) {
	return cache.New(cfg.GetCacheDir())
}

func newFetcher(cfg *config.Config) (*httpclient.Client, error) {
	opts := httpclient.Options{
		Timeout:             cfg.Settings.RequestTimeout,
		UserAgent:           cfg.Settings.UserAgent,
		MaxIdleConnsPerHost: cfg.Settings.WorkerCount,
	}
	decorator, err := headers.Build(cfg.Headers)
	if err != nil {
		return nil, err
	}
	opts.Headers = decorator
	return httpclient.NewClient(opts), nil
}

func schedulerOptions(cfg *config.Config) download.Options {
	return download.Options{
		Workers:      cfg.Settings.WorkerCount,
		MaxBytes:     cfg.Settings.MaxBytes,
		ResultBuffer: cfg.Settings.ResultBuffer,
	}
}
