// Package version holds the build version and derives the identifying
// User-Agent sent with every thumbnail request.
package version

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
)

// Set via -ldflags at build time.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Parse returns the build version as a semantic version. A malformed build
// string falls back to 0.0.0 so the client always has a usable identifier.
func Parse() *goversion.Version {
	v, err := goversion.NewVersion(Version)
	if err != nil {
		return goversion.Must(goversion.NewVersion("0.0.0"))
	}
	return v
}

// Short returns "<major>.<minor>" of the build version.
func Short() string {
	segments := Parse().Segments()
	return fmt.Sprintf("%d.%d", segments[0], segments[1])
}

// UserAgent returns the default identifying client header value.
func UserAgent() string {
	return fmt.Sprintf("ImageHunter/%s (thumb-loader)", Short())
}
