package cache

const (
	// EntryExt is the extension of completed cache entries.
	EntryExt = ".img"

	// TempExt is the extension of in-progress downloads. Readers never look at it.
	TempExt = ".tmp"

	// ChunkSize is the streaming copy buffer size.
	ChunkSize = 64 * 1024
)
