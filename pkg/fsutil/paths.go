package fsutil

import (
	"os"
	"path/filepath"
)

const (
	// AppName is the name of the application used in paths
	AppName = "imagehunter"

	// ThumbnailDirName is the cache subdirectory holding thumbnail entries.
	ThumbnailDirName = "thumbnails"
)

// GetCacheDir returns the platform-specific cache directory for the application
// On Linux: ~/.cache/imagehunter/
// On macOS: ~/Library/Caches/imagehunter/
// On Windows: %LocalAppData%\imagehunter\
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// GetThumbnailCacheDir returns the default thumbnail cache root.
// Format: <cache_dir>/thumbnails/
func GetThumbnailCacheDir() (string, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, ThumbnailDirName), nil
}

// GetConfigDir returns the platform-specific configuration directory.
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}
