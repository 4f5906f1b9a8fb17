// Package snapshot materializes inspection results into durable records
// for archival and automation. A snapshot captures a set of packages under
// one runtime at one point in time; stores persist snapshots as pretty
// JSON files or MongoDB documents.
package snapshot

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
)

// DefaultFields is the field set captured when the caller requests none.
// All of them resolve from the local installation, so a default snapshot
// never touches the network.
var DefaultFields = []string{"summary", "home page", "package size", "installed date"}

// Source is the inspection surface Build consumes.
type Source interface {
	Inspect(ctx context.Context, pkg, runtime, field string) (any, error)
}

// PackageSnapshot is one package's captured state.
type PackageSnapshot struct {
	Name    string         `json:"name" bson:"name"`
	Runtime string         `json:"runtime" bson:"runtime"`
	Version string         `json:"version,omitempty" bson:"version,omitempty"`
	Fields  map[string]any `json:"fields,omitempty" bson:"fields,omitempty"`
}

// Snapshot is a point-in-time capture of packages under one runtime.
type Snapshot struct {
	ID        uuid.UUID         `json:"id" bson:"_id"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	Host      string            `json:"host,omitempty" bson:"host,omitempty"`
	Runtime   string            `json:"runtime" bson:"runtime"`
	Packages  []PackageSnapshot `json:"packages" bson:"packages"`
}

// Store persists snapshots. Load misses fail with NOT_FOUND; List matches
// package names exactly as captured.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	List(ctx context.Context, pkg string) ([]*Snapshot, error)
	Close() error
}

// Build inspects each package under the runtime and assembles a snapshot.
// The package name and installed version are always captured; fields adds
// further queries on top (nil answers are skipped, errors abort the
// build). Misspelled package names come back canonicalized.
func Build(ctx context.Context, src Source, runtime string, pkgs, fields []string) (*Snapshot, error) {
	host, _ := os.Hostname()
	snap := &Snapshot{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Host:      host,
		Runtime:   runtime,
		Packages:  make([]PackageSnapshot, 0, len(pkgs)),
	}

	for _, pkg := range pkgs {
		ps := PackageSnapshot{Name: pkg, Runtime: runtime}

		name, err := src.Inspect(ctx, pkg, runtime, "name")
		if err != nil {
			return nil, err
		}
		if s, ok := name.(string); ok && s != "" {
			ps.Name = s
		}

		version, err := src.Inspect(ctx, pkg, runtime, "version")
		if err != nil {
			return nil, err
		}
		if s, ok := version.(string); ok {
			ps.Version = s
		}

		if len(fields) > 0 {
			ps.Fields = make(map[string]any, len(fields))
			for _, field := range fields {
				v, err := src.Inspect(ctx, pkg, runtime, field)
				if err != nil {
					return nil, err
				}
				if v != nil {
					ps.Fields[field] = v
				}
			}
		}

		snap.Packages = append(snap.Packages, ps)
	}
	return snap, nil
}

// Label names the snapshot for filenames and display: the package name
// for single-package snapshots, the runtime otherwise.
func (s *Snapshot) Label() string {
	if len(s.Packages) == 1 {
		return s.Packages[0].Name
	}
	return "runtime-" + s.Runtime
}

// Contains reports whether the snapshot captured the named package.
func (s *Snapshot) Contains(name string) bool {
	for _, p := range s.Packages {
		if p.Name == name {
			return true
		}
	}
	return false
}
