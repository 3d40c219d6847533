package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/imagehunter/internal/logger"
	"github.com/glorpus-work/imagehunter/pkg/cache"
	"github.com/glorpus-work/imagehunter/pkg/errors"
	"github.com/glorpus-work/imagehunter/pkg/fsutil"
	"github.com/glorpus-work/imagehunter/pkg/mirror"
)

// NewCacheCmd creates the cache command with subcommands
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the thumbnail cache",
		Long:  "Inspect, clean, archive and mirror the thumbnail cache",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
		newCacheExportCmd(),
		newCacheImportCmd(),
		newCachePushCmd(),
		newCachePullCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the thumbnail cache",
		Long:  "Remove leftover temp files, or every cached thumbnail with --all",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClean(cmd, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Also remove cached thumbnails")

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Long:  "Display size and file counts of the thumbnail cache",
		RunE:  runCacheInfo,
	}
}

func newCacheDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Show cache directory path",
		Long:  "Display the path to the thumbnail cache directory",
		RunE:  runCacheDir,
	}
}

func newCacheExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Export cached thumbnails",
		Long:  "Write every cached thumbnail into a gzip-compressed tar archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheExport(cmd, args[0])
		},
	}
}

func newCacheImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import cached thumbnails",
		Long:  "Copy the thumbnails of an archive written by 'cache export' into the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheImport(cmd, args[0])
		},
	}
}

func newCachePushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push [BUCKET_URL]",
		Short: "Upload cached thumbnails to a bucket",
		Long: `Upload every cached thumbnail missing from a blob bucket.
The bucket defaults to the mirror_url setting, e.g. file:///srv/thumbs or s3://bucket?region=eu-west-1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheMirror(cmd, args, true)
		},
	}
}

func newCachePullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull [BUCKET_URL]",
		Short: "Download thumbnails from a bucket",
		Long: `Copy the thumbnails of a bucket filled by 'cache push' into the cache.
The bucket defaults to the mirror_url setting`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheMirror(cmd, args, false)
		},
	}
}

func runCacheClean(cmd *cobra.Command, all bool) error {
	store, err := loadCache()
	if err != nil {
		return err
	}

	result, err := store.Clean(cache.CleanOptions{All: all})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cache.FormatCleanResult(result))
	logger.Success("Cache cleaning completed", logger.Fields{"total_freed": result.TotalFreed})
	return nil
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	store, err := loadCache()
	if err != nil {
		return err
	}

	info, err := store.Info()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cache.FormatInfo(info))
	return nil
}

func runCacheDir(cmd *cobra.Command, _ []string) error {
	store, err := loadCache()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), store.Directory())
	return nil
}

func runCacheExport(cmd *cobra.Command, target string) error {
	store, err := loadCache()
	if err != nil {
		return err
	}

	if err := fsutil.EnsureFileDir(target); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrCacheExport, err)
	}
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrCacheExport, err)
	}

	count, err := store.Export(cmd.Context(), file)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("%w: %w", errors.ErrCacheExport, closeErr)
	}
	if err != nil {
		_ = os.Remove(target)
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d thumbnails to %s\n", count, target)
	logger.Success("Cache exported", logger.Fields{"path": target, "thumbnails": count})
	return nil
}

func runCacheImport(cmd *cobra.Command, source string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openCache(cfg)
	if err != nil {
		return err
	}

	result, err := store.Import(cmd.Context(), source, cfg.Settings.MaxBytes)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cache.FormatImportResult(result))
	logger.Success("Cache imported", logger.Fields{"path": source, "thumbnails": result.Imported})
	return nil
}

func runCacheMirror(cmd *cobra.Command, args []string, push bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openCache(cfg)
	if err != nil {
		return err
	}

	bucketURL := cfg.Settings.MirrorURL
	if len(args) > 0 {
		bucketURL = args[0]
	}
	if bucketURL == "" {
		return errors.ErrMirrorURL
	}

	m, err := mirror.Open(cmd.Context(), bucketURL, cfg.Settings.MirrorPrefix)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	var (
		result *mirror.Result
		verb   string
	)
	if push {
		verb = "Pushed"
		result, err = m.Push(cmd.Context(), store)
	} else {
		verb = "Pulled"
		result, err = m.Pull(cmd.Context(), store, cfg.Settings.MaxBytes)
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), mirror.FormatResult(verb, result))
	logger.Success("Cache mirrored", logger.Fields{"bucket": bucketURL, "direction": strings.ToLower(verb), "thumbnails": result.Copied})
	return nil
}

func loadCache() (*cache.Cache, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openCache(cfg)
}
