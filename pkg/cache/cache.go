// Package cache implements the content-addressed thumbnail store: a URL maps
// to <root>/<hex(sha1(url))>.img and entries are only ever published through
// an atomic rename of a fully written temp file.
package cache

import (
	"context"
	"crypto/sha1" //nolint:gosec // content addressing, not security
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/glorpus-work/imagehunter/pkg/errors"
	"github.com/glorpus-work/imagehunter/pkg/fsutil"
)

// Cache maps URLs to on-disk entries under a single root directory.
type Cache struct {
	directory string
}

// New returns a cache rooted at directory, creating it if needed.
func New(directory string) (*Cache, error) {
	if directory == "" {
		return nil, pkgerrors.ErrCacheDirectory
	}
	if err := fsutil.EnsureDir(directory); err != nil {
		return nil, fmt.Errorf("%w: create cache directory: %w", pkgerrors.ErrCacheIO, err)
	}
	return &Cache{directory: directory}, nil
}

// Directory returns the cache root.
func (c *Cache) Directory() string {
	return c.directory
}

// PathFor returns the entry path for url. It performs no I/O.
func (c *Cache) PathFor(url string) string {
	sum := sha1.Sum([]byte(url)) //nolint:gosec
	return filepath.Join(c.directory, hex.EncodeToString(sum[:])+EntryExt)
}

// Exists reports whether a completed entry is present at path.
func (c *Cache) Exists(path string) bool {
	return fsutil.IsRegularFile(path)
}

// WriteAtomically streams src into path.
//
// declaredLen is the length announced by the source, or a negative value when
// unknown. A declared length above maxBytes fails with ErrContentTooLarge
// before anything touches the disk. The streamed byte count is authoritative:
// once it passes maxBytes the temp file is discarded and ErrExceededMaxSize is
// returned. maxBytes <= 0 disables the cap. ctx is checked between chunks.
func (c *Cache) WriteAtomically(ctx context.Context, path string, src io.Reader, declaredLen, maxBytes int64) error {
	if maxBytes > 0 && declaredLen > maxBytes {
		return pkgerrors.ErrContentTooLarge
	}
	if err := fsutil.EnsureFileDir(path); err != nil {
		return fmt.Errorf("%w: create cache directory: %w", pkgerrors.ErrCacheIO, err)
	}

	tmpPath := tempPathFor(path)
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fsutil.FileModeDefault)
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", pkgerrors.ErrCacheIO, err)
	}

	if err := copyCapped(ctx, tmp, src, maxBytes); err != nil {
		_ = tmp.Close()
		_ = fsutil.RemoveIfExists(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = fsutil.RemoveIfExists(tmpPath)
		return fmt.Errorf("%w: sync temp file: %w", pkgerrors.ErrCacheIO, err)
	}
	if err := tmp.Close(); err != nil {
		_ = fsutil.RemoveIfExists(tmpPath)
		return fmt.Errorf("%w: close temp file: %w", pkgerrors.ErrCacheIO, err)
	}
	if err := fsutil.ReplaceFile(tmpPath, path); err != nil {
		_ = fsutil.RemoveIfExists(tmpPath)
		return fmt.Errorf("%w: %w", pkgerrors.ErrCacheIO, err)
	}
	return nil
}

func copyCapped(ctx context.Context, dst io.Writer, src io.Reader, maxBytes int64) error {
	buf := make([]byte, ChunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			written += int64(n)
			if maxBytes > 0 && written > maxBytes {
				return pkgerrors.ErrExceededMaxSize
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("%w: write temp file: %w", pkgerrors.ErrCacheIO, err)
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return readError(readErr)
		}
	}
}

// readError classifies a failure of the source stream. Body reads fail for
// network reasons, so they are reported as such.
func readError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var timeout interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &timeout) && timeout.Timeout()) {
		return fmt.Errorf("%w: %w: read body: %w", pkgerrors.ErrNetwork, pkgerrors.ErrTimeout, err)
	}
	return fmt.Errorf("%w: read body: %w", pkgerrors.ErrNetwork, err)
}

// tempPathFor returns a unique sibling of path sharing its stem, so concurrent
// writers of the same entry never share a temp file.
func tempPathFor(path string) string {
	stem := strings.TrimSuffix(path, EntryExt)
	return stem + "." + uuid.NewString() + TempExt
}
