package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/imagehunter/pkg/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version information for imagehunter",
		Run:   runVersion,
	}
}

func runVersion(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "imagehunter version %s\n", version.Parse())
	_, _ = fmt.Fprintf(out, "Build date: %s\n", version.BuildDate)
	_, _ = fmt.Fprintf(out, "Git commit: %s\n", version.GitCommit)
	_, _ = fmt.Fprintf(out, "User-Agent: %s\n", version.UserAgent())
}
