// Package mirror copies thumbnail cache entries to and from a blob bucket so
// several machines can share one warm cache. Keys in the bucket are the entry
// file names, so a mirrored bucket can be pulled into any cache root.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/glorpus-work/imagehunter/internal/logger"
	"github.com/glorpus-work/imagehunter/pkg/cache"
	pkgerrors "github.com/glorpus-work/imagehunter/pkg/errors"
)

// ContentType is stored with every pushed entry.
const ContentType = "application/octet-stream"

// Result counts what a push or pull did with each entry.
type Result struct {
	Copied   int
	Existing int
	// Rejected entries exceeded the size cap on pull.
	Rejected int
	// Skipped keys are not named like cache entries.
	Skipped int
}

// Mirror is a bucket holding cache entries.
type Mirror struct {
	bucket *blob.Bucket
}

// Open opens the bucket at bucketURL. The URL scheme selects the driver,
// which must be linked into the binary (file://, mem://, s3://, gs://).
// A non-empty prefix scopes every key, e.g. "thumbs/".
func Open(ctx context.Context, bucketURL, prefix string) (*Mirror, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrMirrorOpen, err)
	}
	if prefix != "" {
		bucket = blob.PrefixedBucket(bucket, prefix)
	}
	return New(bucket), nil
}

// New wraps an already opened bucket. Close closes it.
func New(bucket *blob.Bucket) *Mirror {
	return &Mirror{bucket: bucket}
}

// Close releases the bucket.
func (m *Mirror) Close() error {
	return m.bucket.Close()
}

// Push uploads every completed cache entry missing from the bucket.
// Objects already in the bucket are left alone since an entry's content
// never changes for a given key.
func (m *Mirror) Push(ctx context.Context, c *cache.Cache) (*Result, error) {
	paths, err := c.Entries()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrMirrorPush, err)
	}

	result := &Result{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w: %w", pkgerrors.ErrMirrorPush, err)
		}
		key := filepath.Base(path)
		exists, err := m.bucket.Exists(ctx, key)
		if err != nil {
			return result, fmt.Errorf("%w: check %s: %w", pkgerrors.ErrMirrorPush, key, err)
		}
		if exists {
			result.Existing++
			continue
		}
		copied, err := m.upload(ctx, path, key)
		if err != nil {
			return result, fmt.Errorf("%w: upload %s: %w", pkgerrors.ErrMirrorPush, key, err)
		}
		if copied {
			result.Copied++
		}
	}

	logger.Debug("Pushed cache to mirror", logger.Fields{
		"copied":   result.Copied,
		"existing": result.Existing,
	})
	return result, nil
}

// upload copies one entry. It reports false when the entry vanished from the
// cache in the meantime, e.g. because of a concurrent clean.
func (m *Mirror) upload(ctx context.Context, path, key string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = file.Close() }()

	// Cancelling ctx before Close discards the partial object.
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := m.bucket.NewWriter(writeCtx, key, &blob.WriterOptions{ContentType: ContentType})
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(w, file); err != nil {
		cancel()
		_ = w.Close()
		return false, err
	}
	if err := w.Close(); err != nil {
		return false, err
	}
	return true, nil
}

// Pull downloads every bucket object named like a cache entry that the cache
// does not hold yet. Objects go through WriteAtomically, so size caps and
// atomic publication apply exactly as for fetched thumbnails.
func (m *Mirror) Pull(ctx context.Context, c *cache.Cache, maxBytes int64) (*Result, error) {
	result := &Result{}
	iter := m.bucket.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("%w: list: %w", pkgerrors.ErrMirrorPull, err)
		}
		if obj.IsDir {
			continue
		}

		path, ok := c.EntryPath(obj.Key)
		if !ok {
			result.Skipped++
			continue
		}
		if c.Exists(path) {
			result.Existing++
			continue
		}

		err = m.download(ctx, c, obj.Key, path, obj.Size, maxBytes)
		switch {
		case err == nil:
			result.Copied++
		case errors.Is(err, pkgerrors.ErrContentTooLarge), errors.Is(err, pkgerrors.ErrExceededMaxSize):
			result.Rejected++
		case gcerrors.Code(err) == gcerrors.NotFound:
			// deleted from the bucket after listing
		default:
			return result, fmt.Errorf("%w: download %s: %w", pkgerrors.ErrMirrorPull, obj.Key, err)
		}
	}

	logger.Debug("Pulled cache from mirror", logger.Fields{
		"copied":   result.Copied,
		"existing": result.Existing,
		"rejected": result.Rejected,
		"skipped":  result.Skipped,
	})
	return result, nil
}

func (m *Mirror) download(ctx context.Context, c *cache.Cache, key, path string, size, maxBytes int64) error {
	if maxBytes > 0 && size > maxBytes {
		return pkgerrors.ErrContentTooLarge
	}
	r, err := m.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()
	return c.WriteAtomically(ctx, path, r, r.Size(), maxBytes)
}

// FormatResult renders a push or pull result for the terminal.
func FormatResult(verb string, r *Result) string {
	out := fmt.Sprintf("%s %d thumbnails.", verb, r.Copied)
	if r.Existing > 0 {
		out += fmt.Sprintf("\nAlready present: %d", r.Existing)
	}
	if r.Rejected > 0 {
		out += fmt.Sprintf("\nRejected (too large): %d", r.Rejected)
	}
	if r.Skipped > 0 {
		out += fmt.Sprintf("\nSkipped (not a thumbnail): %d", r.Skipped)
	}
	return out
}
