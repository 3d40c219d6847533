package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/glorpus-work/imagehunter/internal/logger"
	"github.com/glorpus-work/imagehunter/pkg/archive"
	pkgerrors "github.com/glorpus-work/imagehunter/pkg/errors"
	"github.com/glorpus-work/imagehunter/pkg/fsutil"
)

// entryName matches the file name of a completed entry.
var entryName = regexp.MustCompile(`^[0-9a-f]{40}\` + EntryExt + `$`)

type dirEntry struct {
	path string
	size int64
	temp bool
}

// scan lists completed entries and temp files directly under the root.
// Anything else in the directory is ignored.
func (c *Cache) scan() ([]dirEntry, error) {
	items, err := os.ReadDir(c.directory)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	entries := make([]dirEntry, 0, len(items))
	for _, item := range items {
		if !item.Type().IsRegular() {
			continue
		}
		name := item.Name()
		isEntry := strings.HasSuffix(name, EntryExt)
		isTemp := strings.HasSuffix(name, TempExt)
		if !isEntry && !isTemp {
			continue
		}
		info, err := item.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue // renamed or removed by a concurrent writer
			}
			return nil, err
		}
		entries = append(entries, dirEntry{
			path: filepath.Join(c.directory, name),
			size: info.Size(),
			temp: isTemp,
		})
	}
	return entries, nil
}

// Entries returns the paths of all completed entries in no particular order.
func (c *Cache) Entries() ([]string, error) {
	entries, err := c.scan()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrCacheIO, err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.temp {
			paths = append(paths, e.path)
		}
	}
	return paths, nil
}

// EntryPath returns the path for an entry file name such as one found in an
// export archive or a mirror bucket. ok is false for names that are not
// completed entries.
func (c *Cache) EntryPath(name string) (path string, ok bool) {
	if !entryName.MatchString(name) {
		return "", false
	}
	return filepath.Join(c.directory, name), true
}

// Info returns entry and temp file statistics for the cache root.
func (c *Cache) Info() (*Info, error) {
	entries, err := c.scan()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCacheInfo, err.Error())
	}

	info := &Info{Directory: c.directory}
	for _, e := range entries {
		if e.temp {
			info.TempFiles++
			info.TempSize += e.size
		} else {
			info.Entries++
			info.EntrySize += e.size
		}
	}
	info.TotalSize = info.EntrySize + info.TempSize
	return info, nil
}

// Clean removes leftover temp files and, with opts.All, every entry.
// Running it while a scheduler is writing to the same root fails those
// in-flight writes; it is meant for idle caches.
func (c *Cache) Clean(opts CleanOptions) (*CleanResult, error) {
	entries, err := c.scan()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCacheClean, err.Error())
	}

	result := &CleanResult{}
	for _, e := range entries {
		if !e.temp && !opts.All {
			continue
		}
		if err := fsutil.RemoveIfExists(e.path); err != nil {
			return result, pkgerrors.Wrapf(pkgerrors.ErrCacheClean, "remove %s: %v", e.path, err)
		}
		if e.temp {
			result.TempRemoved++
		} else {
			result.EntriesRemoved++
		}
		result.TotalFreed += e.size
	}

	logger.Debug("Cleaned thumbnail cache", logger.Fields{
		"directory": c.directory,
		"entries":   result.EntriesRemoved,
		"temp":      result.TempRemoved,
		"freed":     result.TotalFreed,
	})
	return result, nil
}

// Export writes every completed entry to w as a gzip-compressed tar archive.
// Temp files are never exported. It returns the number of archived entries.
func (c *Cache) Export(ctx context.Context, w io.Writer) (int, error) {
	entries, err := c.scan()
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.ErrCacheExport, err.Error())
	}

	names := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.temp {
			continue
		}
		names[e.path] = filepath.Base(e.path)
	}

	n, err := archive.NewManager().Create(ctx, w, names)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", pkgerrors.ErrCacheExport, err)
	}
	return n, nil
}

// Import copies the entries of an archive written by Export into the cache.
// Only top-level files named like cache entries are considered; entries that
// already exist are kept, and entries larger than maxBytes are rejected.
// Every imported entry goes through WriteAtomically.
func (c *Cache) Import(ctx context.Context, archivePath string, maxBytes int64) (*ImportResult, error) {
	result := &ImportResult{}

	err := archive.NewManager().Walk(ctx, archivePath, func(name string, r io.Reader) error {
		path, ok := c.EntryPath(name)
		if !ok {
			result.Skipped++
			return nil
		}
		if c.Exists(path) {
			result.Existing++
			return nil
		}
		err := c.WriteAtomically(ctx, path, r, -1, maxBytes)
		switch {
		case err == nil:
			result.Imported++
		case errors.Is(err, pkgerrors.ErrExceededMaxSize):
			result.Rejected++
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("%w: %w", pkgerrors.ErrCacheImport, err)
	}

	logger.Debug("Imported thumbnail archive", logger.Fields{
		"archive":  archivePath,
		"imported": result.Imported,
		"existing": result.Existing,
		"rejected": result.Rejected,
		"skipped":  result.Skipped,
	})
	return result, nil
}
