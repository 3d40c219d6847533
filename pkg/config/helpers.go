package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/imagehunter/pkg/errors"
)

// SetValue sets a configuration value by key.
// Supported keys:
//   - cache_dir: string - Path to the thumbnail cache directory
//   - worker_count: int - Number of concurrent downloads
//   - request_timeout: duration - Per-download timeout (e.g. "10s")
//   - max_bytes: int - Largest accepted thumbnail in bytes
//   - user_agent: string - User-Agent header override
//   - result_buffer: int - Capacity of the outcome channel
//   - mirror_url: string - Bucket URL used by cache push and pull
//   - mirror_prefix: string - Key prefix inside the mirror bucket
//   - log_level: string - Logging level (debug, info, warn, error)
//   - log_format: string - Log output format (text, json)
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "cache_dir":
		c.Settings.CacheDir = value
	case "worker_count":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		c.Settings.WorkerCount = n
	case "request_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		c.Settings.RequestTimeout = d
	case "max_bytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		c.Settings.MaxBytes = n
	case "user_agent":
		c.Settings.UserAgent = value
	case "result_buffer":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		c.Settings.ResultBuffer = n
	case "mirror_url":
		c.Settings.MirrorURL = value
	case "mirror_prefix":
		c.Settings.MirrorPrefix = value
	case "log_level":
		c.Settings.LogLevel = strings.ToLower(value)
	case "log_format":
		c.Settings.LogFormat = strings.ToLower(value)
	default:
		return errors.ErrUnknownConfigKeyWithName(key)
	}
	return nil
}

// GetValue returns the value as a string and any error encountered.
func (c *Config) GetValue(key string) (string, error) {
	value, ok := c.ToMap()[key]
	if !ok {
		return "", errors.ErrUnknownConfigKeyWithName(key)
	}
	return value, nil
}

// Keys returns the supported setting keys in sorted order.
func Keys() []string {
	m := DefaultConfig().ToMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToMap flattens the settings into yaml key/string value pairs.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()

	for i := 0; i < settingsValue.NumField(); i++ {
		field := settingsType.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		// Handle yaml tags with options (e.g., "cache_dir,omitempty")
		yamlKey := strings.Split(yamlTag, ",")[0]

		fieldValue := settingsValue.Field(i)
		var strValue string

		switch v := fieldValue.Interface().(type) {
		case time.Duration:
			strValue = v.String()
		case string:
			strValue = v
		case int:
			strValue = strconv.Itoa(v)
		case int64:
			strValue = strconv.FormatInt(v, 10)
		default:
			strValue = fmt.Sprintf("%v", v)
		}

		result[yamlKey] = strValue
	}

	return result
}
