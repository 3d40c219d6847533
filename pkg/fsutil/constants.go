package fsutil

// File and directory permission constants used for the thumbnail cache and
// the configuration file.
const (
	// Regular files.
	FileModeDefault = 0o644 // -rw-r--r--: cache entries and exports
	FileModeSecure  = 0o600 // -rw-------: config file

	// Directories.
	DirModeDefault = 0o755 // drwxr-xr-x: cache root and config dir
)
