package errors

import "fmt"

// Common error types.
var (
	// Fetch errors. The messages of the two size errors double as the
	// human-readable failure reason shown to the user.
	ErrContentTooLarge   = fmt.Errorf("Content too large")
	ErrExceededMaxSize   = fmt.Errorf("Exceeded max size")
	ErrNetwork           = fmt.Errorf("network error")
	ErrTimeout           = fmt.Errorf("timeout")
	ErrInvalidURL        = fmt.Errorf("invalid URL")
	ErrHeaderRuleInvalid = fmt.Errorf("invalid header rule")
	ErrSchedulerStopped  = fmt.Errorf("scheduler stopped")

	// Cache errors.
	ErrCacheIO        = fmt.Errorf("cache I/O error")
	ErrCacheDirectory = fmt.Errorf("cache directory cannot be empty")
	ErrCacheClean     = fmt.Errorf("failed to clean cache")
	ErrCacheInfo      = fmt.Errorf("failed to get cache info")
	ErrCacheExport    = fmt.Errorf("failed to export cache")
	ErrCacheImport    = fmt.Errorf("failed to import cache")

	// Mirror errors.
	ErrMirrorOpen = fmt.Errorf("failed to open mirror bucket")
	ErrMirrorURL  = fmt.Errorf("no mirror bucket URL given (pass one or set mirror_url)")
	ErrMirrorPush = fmt.Errorf("failed to push cache to mirror")
	ErrMirrorPull = fmt.Errorf("failed to pull cache from mirror")

	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config to YAML")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrConfigFileExists  = fmt.Errorf("configuration file already exists (use --force to overwrite)")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")

	// Settings validation errors.
	ErrWorkerCountInvalid    = fmt.Errorf("worker_count must be at least 1")
	ErrRequestTimeoutInvalid = fmt.Errorf("request_timeout must be positive")
	ErrMaxBytesInvalid       = fmt.Errorf("max_bytes must be at least 1")
	ErrResultBufferInvalid   = fmt.Errorf("result_buffer cannot be negative")
	ErrInvalidLogLevel       = fmt.Errorf("invalid log level")
	ErrInvalidLogFormat      = fmt.Errorf("invalid log format")

	// Manifest and command errors.
	ErrManifestParse = fmt.Errorf("failed to parse manifest")
	ErrNoURLs        = fmt.Errorf("no thumbnail URLs given (pass URLs or --manifest)")
	ErrFetchFailed   = fmt.Errorf("some thumbnails could not be loaded")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidLogLevelWithDetails returns ErrInvalidLogLevel with the offending value.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: %q (valid: debug, info, warn, error)", ErrInvalidLogLevel, level)
}

// ErrInvalidLogFormatWithDetails returns ErrInvalidLogFormat with the offending value.
func ErrInvalidLogFormatWithDetails(format string) error {
	return fmt.Errorf("%w: %q (valid: text, json)", ErrInvalidLogFormat, format)
}

// ErrUnknownConfigKeyWithName returns ErrUnknownConfigKey for the given key.
func ErrUnknownConfigKeyWithName(key string) error {
	return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
}
