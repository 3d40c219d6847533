package mirror_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/glorpus-work/imagehunter/pkg/cache"
	pkgerrors "github.com/glorpus-work/imagehunter/pkg/errors"
	"github.com/glorpus-work/imagehunter/pkg/mirror"
)

func newCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(filepath.Join(t.TempDir(), "thumbnails"))
	require.NoError(t, err)
	return c
}

func put(t *testing.T, c *cache.Cache, url, body string) string {
	t.Helper()
	path := c.PathFor(url)
	require.NoError(t, c.WriteAtomically(context.Background(), path, strings.NewReader(body), -1, 0))
	return path
}

func openMem(t *testing.T) (*blob.Bucket, *mirror.Mirror) {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bucket.Close() })
	return bucket, mirror.New(bucket)
}

func TestPushThenPull(t *testing.T) {
	ctx := context.Background()
	bucket, m := openMem(t)

	src := newCache(t)
	pathA := put(t, src, "https://ex/a.jpg", "aaaa")
	pathB := put(t, src, "https://ex/b.jpg", "bbbbbbbb")
	// temp files stay local
	require.NoError(t, os.WriteFile(strings.TrimSuffix(pathA, cache.EntryExt)+".x"+cache.TempExt, []byte("pa"), 0o644))

	pushed, err := m.Push(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, &mirror.Result{Copied: 2}, pushed)

	data, err := bucket.ReadAll(ctx, filepath.Base(pathB))
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbbb", string(data))

	again, err := m.Push(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, &mirror.Result{Existing: 2}, again)

	dst := newCache(t)
	put(t, dst, "https://ex/a.jpg", "aaaa")
	pulled, err := m.Pull(ctx, dst, 0)
	require.NoError(t, err)
	assert.Equal(t, &mirror.Result{Copied: 1, Existing: 1}, pulled)

	got, err := os.ReadFile(dst.PathFor("https://ex/b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbbb", string(got))
	assert.Contains(t, mirror.FormatResult("Pulled", pulled), "Pulled 1 thumbnails.")
}

func TestPull_SkipsAndRejects(t *testing.T) {
	ctx := context.Background()
	bucket, m := openMem(t)

	src := newCache(t)
	small := put(t, src, "https://ex/small.jpg", "tiny")
	large := put(t, src, "https://ex/large.jpg", strings.Repeat("x", 100))
	_, err := m.Push(ctx, src)
	require.NoError(t, err)
	require.NoError(t, bucket.WriteAll(ctx, "notes.txt", []byte("hello"), nil))

	dst := newCache(t)
	result, err := m.Pull(ctx, dst, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Copied)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 1, result.Skipped)

	assert.FileExists(t, filepath.Join(dst.Directory(), filepath.Base(small)))
	assert.NoFileExists(t, filepath.Join(dst.Directory(), filepath.Base(large)))
	entries, err := dst.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("file bucket with prefix", func(t *testing.T) {
		dir := t.TempDir()
		m, err := mirror.Open(ctx, "file://"+filepath.ToSlash(dir), "thumbs/")
		require.NoError(t, err)
		defer func() { _ = m.Close() }()

		src := newCache(t)
		path := put(t, src, "https://ex/a.jpg", "aaaa")
		result, err := m.Push(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Copied)
		assert.FileExists(t, filepath.Join(dir, "thumbs", filepath.Base(path)))
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, err := mirror.Open(ctx, "nope://bucket", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, pkgerrors.ErrMirrorOpen)
	})
}

func TestPush_Cancelled(t *testing.T) {
	_, m := openMem(t)
	src := newCache(t)
	put(t, src, "https://ex/a.jpg", "aaaa")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Push(ctx, src)
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrMirrorPush)
	assert.ErrorIs(t, err, context.Canceled)
}
