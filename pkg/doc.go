// Package pkg provides the core libraries for pyscope package inspection.
//
// # Overview
//
// Pyscope discovers the Python runtimes installed on a machine, resolves the
// packages under each one, and answers field queries about them, locally and
// against the remote package catalog. The pkg directory is organized into
// four main areas:
//
//  1. Discovery and resolution ([pyenv], [resolve]) - what is installed where
//  2. Inspection ([inspect], [metrics]) - field queries against resolved packages
//  3. Catalog ([pypi], [release], [httputil]) - remote release and statistics data
//  4. Infrastructure ([session], [cache], [memo], [pool], [config], [errors])
//
// # Architecture
//
// The typical data flow through pyscope:
//
//	Runtime root (e.g. /usr/lib)
//	         ↓
//	    [pyenv] package (discover runtimes + site-packages entries)
//	         ↓
//	    [resolve] package (fuzzy name lookup → resolved record)
//	         ↓
//	    [inspect] package (field dispatch: local, catalog, derived, descriptor)
//	         ↓
//	    answer (string, release history, statistics, metadata map)
//
// Catalog-backed fields fetch through [pypi], which parses registry documents
// into [release] histories and [metrics] values, caching raw documents via
// [cache].
//
// # Quick Start
//
// Resolve a package and query a field:
//
//	import (
//	    "context"
//	    "github.com/pyscope/pyscope/pkg/session"
//	)
//
//	// 1. Build a session (platform defaults, null cache)
//	s := session.New(session.Options{})
//	defer s.Close()
//
//	// 2. Answer a field query; names and fields are fuzzy matched
//	v, _ := s.Inspect(context.Background(), "requests", "3.12", "latest version")
//
//	// 3. List everything installed under a runtime
//	recs, _ := s.Packages(context.Background(), "3.12")
//
// # Main Packages
//
// ## Discovery and Resolution
//
// [pyenv] - Runtime and package discovery. Scans the runtime root for
// version-labeled directories, locates each runtime's site-packages and
// enumerates distribution descriptors and bare modules.
//
// [resolve] - Lookup queries against a discovery. Runtime labels match
// exactly; package names fuzzy match against the installed set, so a typo
// still resolves to the intended package.
//
// ## Inspection
//
// [inspect] - The query surface. An ordered dispatch table routes each query
// to the first stage that recognizes it: record properties, catalog fields,
// derived source queries, descriptor files, descriptor metadata.
//
// [metrics] - Filesystem statistics for installed packages and normalized
// ecosystem statistics values (counts, byte sizes).
//
// ## Catalog
//
// [pypi] - Registry client. Fetches release-history and statistics documents,
// walks their HTML, retries transient failures and caches raw documents.
//
// [release] - Release records and histories: parsing, total ordering,
// comparison operators and update listing.
//
// [httputil] - Shared HTTP fetch-and-retry plumbing.
//
// ## Infrastructure
//
// [session] - Wires discovery, resolution, inspection and the catalog into
// one query surface consumed by the CLI and HTTP API.
//
// [cache] - Document cache backends: file (CLI default), Redis (shared), and
// null (disabled).
//
// [memo] - Per-key memoization built on singleflight; concurrent callers for
// the same key converge on one computation.
//
// [pool] - Bounded, order-preserving parallel map used for package
// resolution fan-out.
//
// [snapshot] - Materialized inspection results for archival: file and
// MongoDB stores.
//
// [config] - Optional TOML configuration with environment overrides.
//
// [errors] - Structured errors with stable machine codes and user-facing
// messages.
//
// [match] - Sequence-similarity scoring behind every fuzzy lookup.
//
// [observability] - Scan and fetch hooks for instrumenting long operations.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/inspect/...  # Specific package
//
// [pyenv]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/pyenv
// [resolve]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/resolve
// [inspect]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/inspect
// [metrics]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/metrics
// [pypi]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/pypi
// [release]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/release
// [httputil]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/httputil
// [session]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/session
// [cache]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/cache
// [memo]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/memo
// [pool]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/pool
// [snapshot]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/snapshot
// [config]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/config
// [errors]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/errors
// [match]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/match
// [observability]: https://pkg.go.dev/github.com/pyscope/pyscope/pkg/observability
package pkg
