package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/imagehunter/internal/logger"
	"github.com/glorpus-work/imagehunter/pkg/download"
	"github.com/glorpus-work/imagehunter/pkg/errors"
	"github.com/glorpus-work/imagehunter/pkg/gallery"
)

type fetchFlags struct {
	manifest string
	workers  int
	maxBytes int64
	timeout  time.Duration
	details  bool
}

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "fetch [URL...]",
		Short: "Fetch thumbnails into the cache",
		Long: `Download thumbnails into the content cache and print one line per URL.
URLs that are already cached are not requested again. URLs come from the
arguments and from an optional manifest (YAML list of items or one URL per
line; use "-" to read it from standard input).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.manifest, "manifest", "m", "", "Manifest file with thumbnail URLs (\"-\" for stdin)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Number of concurrent downloads (overrides worker_count)")
	cmd.Flags().Int64Var(&flags.maxBytes, "max-bytes", 0, "Largest accepted thumbnail in bytes (overrides max_bytes)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Per-download timeout (overrides request_timeout)")
	cmd.Flags().BoolVar(&flags.details, "details", false, "Print title, author, license and size of each loaded item")

	return cmd
}

func runFetch(cmd *cobra.Command, args []string, flags fetchFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("workers") {
		cfg.Settings.WorkerCount = flags.workers
	}
	if cmd.Flags().Changed("max-bytes") {
		cfg.Settings.MaxBytes = flags.maxBytes
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Settings.RequestTimeout = flags.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	items, err := collectItems(cmd.InOrStdin(), flags.manifest, args)
	if err != nil {
		return err
	}
	jobs := gallery.Jobs(items)
	if len(jobs) == 0 {
		return errors.ErrNoURLs
	}

	store, err := openCache(cfg)
	if err != nil {
		return err
	}
	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}

	logger.Debug("Fetching thumbnails", logger.Fields{
		"jobs":      len(jobs),
		"workers":   cfg.Settings.WorkerCount,
		"max_bytes": cfg.Settings.MaxBytes,
		"cache_dir": store.Directory(),
	})

	outcomes := download.Run(cmd.Context(), store, fetcher, schedulerOptions(cfg), jobs)
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Index < outcomes[j].Index })

	loaded, cached, failed := printOutcomes(cmd.OutOrStdout(), items, outcomes)
	if flags.details {
		printDetails(cmd.OutOrStdout(), items, outcomes)
	}

	logger.Success("Fetch completed", logger.Fields{
		"loaded": loaded,
		"cached": cached,
		"failed": failed,
	})

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d failed", errors.ErrFetchFailed, failed, len(jobs))
	}
	return nil
}

// collectItems returns the manifest items followed by the URL arguments.
func collectItems(stdin io.Reader, manifest string, args []string) ([]gallery.Item, error) {
	var items []gallery.Item

	if manifest != "" {
		var r io.Reader
		if manifest == StdinManifest {
			r = stdin
		} else {
			f, err := os.Open(manifest)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errors.ErrManifestParse, err)
			}
			defer func() { _ = f.Close() }()
			r = f
		}
		loaded, err := gallery.LoadManifest(r)
		if err != nil {
			return nil, err
		}
		items = append(items, loaded...)
	}

	return append(items, gallery.FromURLs(args)...), nil
}

// printOutcomes writes one table row per outcome. Outcome indices are
// positions in items.
func printOutcomes(w io.Writer, items []gallery.Item, outcomes []download.Outcome) (loaded, cached, failed int) {
	tabWriter := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "INDEX\tSTATUS\tLICENSE\tURL\tRESULT")

	for _, out := range outcomes {
		status, result := "loaded", out.Path
		switch {
		case !out.Loaded():
			status, result = "failed", truncate(out.Reason(), MaxReasonLength)
			failed++
		case out.Cached:
			status = "cached"
			cached++
		default:
			loaded++
		}
		license := "-"
		if out.Index >= 0 && out.Index < len(items) && items[out.Index].License != "" {
			license = items[out.Index].License.Badge()
		}
		_, _ = fmt.Fprintf(tabWriter, "%d\t%s\t%s\t%s\t%s\n", out.Index, status, license, out.URL, result)
	}

	_ = tabWriter.Flush()
	return loaded, cached, failed
}

func printDetails(w io.Writer, items []gallery.Item, outcomes []download.Outcome) {
	for _, out := range outcomes {
		if !out.Loaded() || out.Index < 0 || out.Index >= len(items) {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n[%d] %s\n", out.Index, items[out.Index].Tooltip())
	}
}

// truncate shortens s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
