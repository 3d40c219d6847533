package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/imagehunter/internal/logger"
	"github.com/glorpus-work/imagehunter/pkg/config"
	"github.com/glorpus-work/imagehunter/pkg/errors"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View and change the settings that size the worker pool, bound downloads and locate the cache",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd.OutOrStdout(), getConfigPath(), force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print every setting",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withConfig(func(cfg *config.Config) error {
					return showConfig(cmd.OutOrStdout(), cfg)
				})
			},
		},
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print one setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withConfig(func(cfg *config.Config) error {
					value, err := cfg.GetValue(args[0])
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE [KEY VALUE...]",
			Short: "Change settings",
			Long:  "Change one or more settings. The file is only written when the result is valid.",
			Args:  pairs,
			RunE: func(_ *cobra.Command, args []string) error {
				return withConfig(func(cfg *config.Config) error {
					return setConfig(cfg, getConfigPath(), args)
				})
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), getConfigPath())
			},
		},
		initCmd,
	)

	return cmd
}

// pairs accepts a non-empty, even number of arguments.
func pairs(_ *cobra.Command, args []string) error {
	if len(args) == 0 || len(args)%2 != 0 {
		return fmt.Errorf("expected KEY VALUE pairs, got %d arguments", len(args))
	}
	return nil
}

func withConfig(fn func(cfg *config.Config) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return fn(cfg)
}

func showConfig(w io.Writer, cfg *config.Config) error {
	tw := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SETTING\tVALUE")
	values := cfg.ToMap()
	for _, key := range config.Keys() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", key, values[key])
	}
	_, _ = fmt.Fprintf(tw, "headers\t%d rules\n", len(cfg.Headers))
	return tw.Flush()
}

// setConfig applies key/value pairs in order, validates the result once and
// saves it.
func setConfig(cfg *config.Config, path string, args []string) error {
	for i := 0; i+1 < len(args); i += 2 {
		if err := cfg.SetValue(args[i], args[i+1]); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.SaveConfig(path); err != nil {
		return err
	}

	for i := 0; i+1 < len(args); i += 2 {
		logger.Success("Setting changed", logger.Fields{"key": args[i], "value": args[i+1]})
	}
	return nil
}

func initConfig(w io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s: %w", path, errors.ErrConfigFileExists)
	}
	if err := config.DefaultConfig().SaveConfig(path); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Wrote %s\n", path)
	return nil
}
