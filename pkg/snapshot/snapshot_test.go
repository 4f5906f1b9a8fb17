package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
)

// fakeSource answers inspection queries from a fixed table. Unknown
// fields answer nil, mirroring the live surface.
type fakeSource struct {
	values map[string]map[string]any
	err    error
}

func (f *fakeSource) Inspect(ctx context.Context, pkg, runtime, field string) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	fields, ok := f.values[pkg]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.ErrCodePackageNotFound, "no package %q", pkg)
	}
	return fields[field], nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{values: map[string]map[string]any{
		"reqeusts": {
			"name":      "requests",
			"version":   "2.25.1",
			"summary":   "Python HTTP for Humans.",
			"home page": "https://requests.readthedocs.io",
		},
		"requests": {
			"name":      "requests",
			"version":   "2.25.1",
			"summary":   "Python HTTP for Humans.",
			"home page": "https://requests.readthedocs.io",
		},
		"urllib3": {
			"name":    "urllib3",
			"version": "1.26.0",
		},
	}}
}

func TestBuildSnapshot(t *testing.T) {
	src := newFakeSource()

	snap, err := Build(context.Background(), src, "3.12", []string{"reqeusts"}, []string{"summary", "release velocity"})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if snap.ID == uuid.Nil {
		t.Error("Build should assign a snapshot ID")
	}
	if snap.CreatedAt.IsZero() {
		t.Error("Build should stamp CreatedAt")
	}
	if snap.Runtime != "3.12" {
		t.Errorf("Runtime = %q, want 3.12", snap.Runtime)
	}
	if len(snap.Packages) != 1 {
		t.Fatalf("Packages = %d, want 1", len(snap.Packages))
	}

	ps := snap.Packages[0]
	if ps.Name != "requests" {
		t.Errorf("Name = %q, want requests (canonicalized)", ps.Name)
	}
	if ps.Version != "2.25.1" {
		t.Errorf("Version = %q, want 2.25.1", ps.Version)
	}
	if ps.Fields["summary"] != "Python HTTP for Humans." {
		t.Errorf("Fields[summary] = %v", ps.Fields["summary"])
	}
	if _, ok := ps.Fields["release velocity"]; ok {
		t.Error("unanswered fields should be skipped, not stored as nil")
	}
}

func TestBuildPropagatesErrors(t *testing.T) {
	src := newFakeSource()

	_, err := Build(context.Background(), src, "3.12", []string{"ghost"}, nil)
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodePackageNotFound {
		t.Errorf("Build(ghost) should fail PACKAGE_NOT_FOUND, got %v", err)
	}
}

func TestSnapshotLabel(t *testing.T) {
	src := newFakeSource()
	ctx := context.Background()

	single, err := Build(ctx, src, "3.12", []string{"requests"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if single.Label() != "requests" {
		t.Errorf("single-package Label = %q, want requests", single.Label())
	}

	multi, err := Build(ctx, src, "3.12", []string{"requests", "urllib3"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if multi.Label() != "runtime-3.12" {
		t.Errorf("multi-package Label = %q, want runtime-3.12", multi.Label())
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	snap, err := Build(ctx, newFakeSource(), "3.12", []string{"requests"}, []string{"summary"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	// The file lands at <label>-<id>.json
	path := filepath.Join(dir, "requests-"+snap.ID.String()+".json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}

	loaded, err := store.Load(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.ID != snap.ID {
		t.Errorf("Load ID = %s, want %s", loaded.ID, snap.ID)
	}
	if len(loaded.Packages) != 1 || loaded.Packages[0].Name != "requests" {
		t.Errorf("Load packages = %+v", loaded.Packages)
	}
	if loaded.Packages[0].Fields["summary"] != "Python HTTP for Humans." {
		t.Errorf("Load Fields[summary] = %v", loaded.Packages[0].Fields["summary"])
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Load(context.Background(), uuid.New())
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodeNotFound {
		t.Errorf("Load of unknown ID should fail NOT_FOUND, got %v", err)
	}
}

func TestFileStoreList(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	src := newFakeSource()

	older, err := Build(ctx, src, "3.12", []string{"requests"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer, err := Build(ctx, src, "3.12", []string{"urllib3"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, snap := range []*Snapshot{older, newer} {
		if err := store.Save(ctx, snap); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List() = %d snapshots, want 2", len(all))
	}
	if all[0].ID != newer.ID {
		t.Error("List should order snapshots newest first")
	}

	only, err := store.List(ctx, "requests")
	if err != nil {
		t.Fatal(err)
	}
	if len(only) != 1 || !only[0].Contains("requests") {
		t.Errorf("List(requests) = %d snapshots, want the one containing requests", len(only))
	}
}

func TestFileStoreListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.json"), []byte(`{"kind":"other"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "junk.txt"), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := store.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("List over foreign files = %d snapshots, want 0", len(out))
	}
}
