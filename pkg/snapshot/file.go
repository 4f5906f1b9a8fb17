package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
)

// FileStore persists snapshots as pretty JSON files in a directory,
// one file per snapshot named <label>-<id>.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a file-based snapshot store under dir. An empty
// dir stores snapshots in the working directory.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "create snapshot dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the snapshot to its file.
func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "marshal snapshot %s", snap.ID)
	}
	path := s.File(snap)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "write snapshot file %s", path)
	}
	return nil
}

// Load reads a snapshot back by ID.
func (s *FileStore) Load(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*-"+id.String()+".json"))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "scan snapshot dir %s", s.dir)
	}
	if len(matches) == 0 {
		return nil, pkgerrors.New(pkgerrors.ErrCodeNotFound, "snapshot %s not found under %s", id, s.dir)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "read snapshot file %s", matches[0])
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeParse, err, "parse snapshot file %s", matches[0])
	}
	return &snap, nil
}

// List returns stored snapshots, newest first. A non-empty pkg keeps only
// snapshots that captured that package; files that are not snapshots are
// skipped.
func (s *FileStore) List(ctx context.Context, pkg string) ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "read snapshot dir %s", s.dir)
	}

	var out []*Snapshot
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		if snap.ID == uuid.Nil {
			continue
		}
		if pkg != "" && !snap.Contains(pkg) {
			continue
		}
		out = append(out, &snap)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

// Path returns the directory snapshots are stored under.
func (s *FileStore) Path() string { return s.dir }

// File returns the file a snapshot is (or would be) saved as.
func (s *FileStore) File(snap *Snapshot) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.json", snap.Label(), snap.ID))
}

var _ Store = (*FileStore)(nil)
