// Package buildinfo exposes the version stamped into the binary at build
// time. Release builds overwrite the defaults with ldflags:
//
//	go build -ldflags "\
//	    -X github.com/pyscope/pyscope/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/pyscope/pyscope/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/pyscope/pyscope/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

// The defaults identify a from-source build that skipped release stamping.
var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "none"
	// Date is the UTC build timestamp.
	Date = "unknown"
)

// String renders all three stamps on one line.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// Template is the version template installed on the root command.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
