package metrics

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
)

// FileStat is one file's size within an installation.
type FileStat struct {
	Path  string
	Bytes uint64
}

// DirStats summarizes an installed package on disk: how many files it
// ships, how much space they take and when the installation last changed.
type DirStats struct {
	Path       string
	Files      int
	TotalBytes uint64
	Modified   time.Time
	PerFile    []FileStat
}

// HumanTotal renders the total size in a symbolic unit.
func (d *DirStats) HumanTotal() string {
	return FormatBytes(d.TotalBytes)
}

// Paths returns the per-file paths, sorted.
func (d *DirStats) Paths() []string {
	paths := make([]string, len(d.PerFile))
	for i, f := range d.PerFile {
		paths[i] = f.Path
	}
	return paths
}

// ScanDir collects file statistics for an installation path. The path may
// be a directory or a single module file. Unreadable entries below the
// root are skipped; a missing root is an error.
func ScanDir(path string) (*DirStats, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.Wrap(pkgerrors.ErrCodeNotFound, err, "collect file statistics for %s", path)
		}
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "collect file statistics for %s", path)
	}

	stats := &DirStats{Path: path, Modified: info.ModTime()}
	if !info.IsDir() {
		stats.Files = 1
		stats.TotalBytes = uint64(info.Size())
		stats.PerFile = []FileStat{{Path: path, Bytes: uint64(info.Size())}}
		return stats, nil
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		stats.Files++
		stats.TotalBytes += uint64(fi.Size())
		stats.PerFile = append(stats.PerFile, FileStat{Path: p, Bytes: uint64(fi.Size())})
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "collect file statistics for %s", path)
	}

	sort.Slice(stats.PerFile, func(i, j int) bool { return stats.PerFile[i].Path < stats.PerFile[j].Path })
	return stats, nil
}
