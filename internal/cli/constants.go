package cli

// Default values for CLI flags and output formatting.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// MaxReasonLength is the maximum length of a failure reason in the fetch table.
	MaxReasonLength = 60
	// StdinManifest reads the manifest from standard input.
	StdinManifest = "-"
)
