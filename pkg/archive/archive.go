// Package archive reads and writes the gzip-compressed tar bundles used to
// move thumbnail caches between machines.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/mholt/archives"
)

// Manager handles bundle creation and traversal.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// Create writes the given files to w as a .tar.gz stream. files maps a path
// on disk to its name inside the archive. It returns the number of archived
// files.
func (am *Manager) Create(ctx context.Context, w io.Writer, files map[string]string) (int, error) {
	archiveFiles, err := archives.FilesFromDisk(ctx, nil, files)
	if err != nil {
		return 0, fmt.Errorf("failed to read files from disk: %w", err)
	}

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}

	if err := format.Archive(ctx, w, archiveFiles); err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}
	return len(archiveFiles), nil
}

// Walk calls fn with the slash-separated name and content of every regular
// file in the archive at archivePath. Directories, symlinks and other special
// entries are skipped. Walking stops at the first error returned by fn.
func (am *Manager) Walk(ctx context.Context, archivePath string, fn func(name string, r io.Reader) error) error {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == "." || !d.Type().IsRegular() {
			return nil
		}
		return am.visit(fsys, path, fn)
	})
}

func (am *Manager) visit(fsys fs.FS, path string, fn func(name string, r io.Reader) error) error {
	f, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return fn(path, f)
}
