//go:generate mockgen -destination=./mocks/download.go . Store,Fetcher

package download

import (
	"context"
	"io"

	httpclient "github.com/glorpus-work/imagehunter/pkg/http"
)

// Store is the subset of the content cache used by the scheduler.
type Store interface {
	PathFor(url string) string
	Exists(path string) bool
	WriteAtomically(ctx context.Context, path string, src io.Reader, declaredLen, maxBytes int64) error
}

// Fetcher opens a thumbnail stream.
type Fetcher interface {
	Get(ctx context.Context, url string) (*httpclient.Response, error)
}

// Job is one thumbnail to fetch. Index is an opaque correlation token chosen
// by the caller and echoed back unchanged in the Outcome.
type Job struct {
	Index int
	URL   string
}

// Outcome is the single terminal result of a submitted Job.
type Outcome struct {
	Index int
	URL   string
	// Path is the cache entry; set only when Err is nil.
	Path string
	// Cached is true when the entry already existed and no request was made.
	Cached bool
	Err    error
}

// Loaded reports whether the job produced a cache entry.
func (o Outcome) Loaded() bool {
	return o.Err == nil
}

// Reason returns a short human-readable failure reason, or "" when loaded.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Options control the scheduler.
type Options struct {
	// Workers is the number of concurrent fetches; if <= 0, DefaultWorkers is used.
	Workers int
	// MaxBytes caps a single download; if <= 0, DefaultMaxBytes is used.
	MaxBytes int64
	// ResultBuffer is the capacity of the Results channel; if <= 0, DefaultResultBuffer is used.
	ResultBuffer int
}

// Defaults for Options.
const (
	DefaultWorkers      = 6
	DefaultMaxBytes     = 5_000_000
	DefaultResultBuffer = 256
)
