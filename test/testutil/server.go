package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glorpus-work/imagehunter/internal/logger"
)

// Route describes how ThumbServer answers one path.
type Route struct {
	Status int
	Body   []byte
	// DeclaredLength overrides the Content-Length header when > 0.
	DeclaredLength int64
	// Chunked streams the body with flushes so no Content-Length is sent.
	Chunked bool
	// Delay is slept before the headers are written.
	Delay time.Duration
}

// ThumbServer is an httptest server with per-path routes that records
// request counts and the peak number of concurrent requests.
type ThumbServer struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]Route
	requests map[string]int
	last     http.Header

	inFlight atomic.Int32
	peak     atomic.Int32
}

// NewThumbServer starts a server that is closed when the test ends.
func NewThumbServer(t *testing.T, routes map[string]Route) *ThumbServer {
	t.Helper()
	ts := &ThumbServer{
		routes:   make(map[string]Route),
		requests: make(map[string]int),
	}
	for path, r := range routes {
		ts.routes[path] = r
	}
	ts.Server = httptest.NewServer(http.HandlerFunc(ts.serve))
	t.Cleanup(ts.Close)
	return ts
}

// URLFor returns the absolute URL of path on this server.
func (ts *ThumbServer) URLFor(path string) string {
	return ts.Server.URL + path
}

// Requests returns how many times path was requested.
func (ts *ThumbServer) Requests(path string) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.requests[path]
}

// TotalRequests returns the number of requests served.
func (ts *ThumbServer) TotalRequests() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	total := 0
	for _, n := range ts.requests {
		total += n
	}
	return total
}

// LastHeader returns a header of the most recent request.
func (ts *ThumbServer) LastHeader(name string) string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.last.Get(name)
}

// PeakConcurrency returns the largest number of requests seen in flight at once.
func (ts *ThumbServer) PeakConcurrency() int {
	return int(ts.peak.Load())
}

func (ts *ThumbServer) serve(w http.ResponseWriter, r *http.Request) {
	n := ts.inFlight.Add(1)
	defer ts.inFlight.Add(-1)
	for {
		p := ts.peak.Load()
		if n <= p || ts.peak.CompareAndSwap(p, n) {
			break
		}
	}

	ts.mu.Lock()
	ts.requests[r.URL.Path]++
	ts.last = r.Header.Clone()
	route, ok := ts.routes[r.URL.Path]
	ts.mu.Unlock()

	logger.Debugf("test server: %s %s", r.Method, r.URL.Path)

	if !ok {
		http.NotFound(w, r)
		return
	}
	if route.Delay > 0 {
		select {
		case <-time.After(route.Delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "image/jpeg")
	switch {
	case route.DeclaredLength > 0:
		w.Header().Set("Content-Length", strconv.FormatInt(route.DeclaredLength, 10))
	case !route.Chunked:
		w.Header().Set("Content-Length", strconv.Itoa(len(route.Body)))
	}
	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if !route.Chunked {
		_, _ = w.Write(route.Body)
		return
	}
	flusher, _ := w.(http.Flusher)
	const piece = 32 * 1024
	for off := 0; off < len(route.Body); off += piece {
		end := off + piece
		if end > len(route.Body) {
			end = len(route.Body)
		}
		if _, err := w.Write(route.Body[off:end]); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// WriteConfig writes a YAML config file into a temporary directory and
// returns its path.
func WriteConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

// ConfigForCache returns a minimal config document pointing at cacheDir.
func ConfigForCache(cacheDir string) string {
	return fmt.Sprintf("settings:\n  cache_dir: %q\n  worker_count: 4\n  request_timeout: 2s\n  max_bytes: 5000000\n", cacheDir)
}
