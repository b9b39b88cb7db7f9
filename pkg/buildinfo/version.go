// Package buildinfo exposes version information stamped in at link time:
//
//	go build -ldflags "-X github.com/matzehuels/memeforge/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/memeforge/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/memeforge/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/memeforge
package buildinfo

import "fmt"

// Unstamped builds report these placeholders.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the build information as three lines.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// UserAgent is sent with remote image requests.
func UserAgent() string {
	return "memeforge/" + Version
}

// Template is the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (%s, built %s)\n", Version, Commit, Date)
}
