package cache

import (
	"fmt"
)

// FormatInfo renders cache statistics for the command line.
func FormatInfo(info *Info) string {
	return fmt.Sprintf(`Cache Information:
  Directory:   %s
  Total Size:  %s
  Thumbnails:  %s (%d files)
  Temp files:  %s (%d files)`,
		info.Directory,
		formatBytes(info.TotalSize),
		formatBytes(info.EntrySize),
		info.Entries,
		formatBytes(info.TempSize),
		info.TempFiles,
	)
}

// FormatCleanResult renders the outcome of Clean for the command line.
func FormatCleanResult(result *CleanResult) string {
	if result.EntriesRemoved == 0 && result.TempRemoved == 0 {
		return "No files were removed from the cache."
	}
	msg := fmt.Sprintf("Successfully cleaned cache. Freed %s of disk space.", formatBytes(result.TotalFreed))
	if result.EntriesRemoved > 0 {
		msg += fmt.Sprintf("\n- Thumbnails: %d", result.EntriesRemoved)
	}
	if result.TempRemoved > 0 {
		msg += fmt.Sprintf("\n- Temp files: %d", result.TempRemoved)
	}
	return msg
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T", "P", "E"}
	if exp < len(units) {
		return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
	}
	return fmt.Sprintf("%d B", bytes)
}

// FormatImportResult renders the outcome of Import for the command line.
func FormatImportResult(result *ImportResult) string {
	msg := fmt.Sprintf("Imported %d thumbnails.", result.Imported)
	if result.Existing > 0 {
		msg += fmt.Sprintf("\n- Already cached: %d", result.Existing)
	}
	if result.Rejected > 0 {
		msg += fmt.Sprintf("\n- Too large: %d", result.Rejected)
	}
	if result.Skipped > 0 {
		msg += fmt.Sprintf("\n- Not a thumbnail: %d", result.Skipped)
	}
	return msg
}
