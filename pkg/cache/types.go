package cache

// CleanOptions specifies what to clean from the cache.
type CleanOptions struct {
	// All removes completed entries in addition to stray temp files.
	All bool
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	EntriesRemoved int
	TempRemoved    int
	TotalFreed     int64
}

// Info represents cache information.
type Info struct {
	Directory string
	Entries   int
	EntrySize int64
	TempFiles int
	TempSize  int64
	TotalSize int64
}

// ImportResult counts what Import did with each archive member.
type ImportResult struct {
	Imported int
	Existing int
	// Rejected entries exceeded the size cap.
	Rejected int
	// Skipped members are not named like cache entries.
	Skipped int
}
