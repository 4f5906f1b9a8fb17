// Package pyenv discovers installed Python runtimes and the packages
// installed under them.
//
// A runtime root contains one directory per interpreter version. Each
// version directory nests an installation directory (site-packages or
// dist-packages) whose entries describe the installed packages: a
// <name>-<version>.dist-info descriptor directory per distribution, or a
// bare <name>.py file for single-module installs. Discovery walks this
// layout at most once per runtime and memoizes the results for the
// process lifetime.
package pyenv

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/memo"
	"github.com/pyscope/pyscope/pkg/observability"
)

// DefaultRoot returns the conventional runtime root for the host platform.
func DefaultRoot() string {
	if runtime.GOOS == "darwin" {
		return "/Library/Frameworks/Python.framework/Versions"
	}
	return "/usr/lib"
}

// Discovery enumerates runtimes under a root directory and the packages
// installed under each. Results are memoized, so repeated calls return the
// first scan's view of the filesystem. Safe for concurrent use.
type Discovery struct {
	// Exclude names additional packages to treat as noise, on top of the
	// built-in filter. Set before the first scan.
	Exclude []string

	root   string
	logger *log.Logger

	runtimes *memo.Map[[]Runtime]
	packages *memo.Map[[]PackageDir]
}

// NewDiscovery creates a Discovery over the given runtime root.
// An empty root selects [DefaultRoot]; a nil logger selects the default.
func NewDiscovery(root string, logger *log.Logger) *Discovery {
	if root == "" {
		root = DefaultRoot()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Discovery{
		root:     root,
		logger:   logger,
		runtimes: memo.New[[]Runtime](),
		packages: memo.New[[]PackageDir](),
	}
}

// Root returns the runtime root this Discovery scans.
func (d *Discovery) Root() string {
	return d.root
}

// Runtimes lists the installed runtimes, oldest first.
// Fails with a DISCOVERY error if the root is missing or holds no
// version-labeled directories.
func (d *Discovery) Runtimes(ctx context.Context) ([]Runtime, error) {
	return d.runtimes.Do("runtimes", func() ([]Runtime, error) {
		return d.scanRuntimes(ctx)
	})
}

// Packages lists the packages installed under the given runtime, sorted by
// name. The underlying filesystem walk happens at most once per runtime.
func (d *Discovery) Packages(ctx context.Context, rt Runtime) ([]PackageDir, error) {
	return d.packages.Do(rt.Name+"|"+rt.Dir, func() ([]PackageDir, error) {
		return d.scanPackages(ctx, rt)
	})
}

func (d *Discovery) scanRuntimes(ctx context.Context) ([]Runtime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(d.root)
	if os.IsNotExist(err) {
		return nil, pkgerrors.New(pkgerrors.ErrCodeDiscovery, "runtime root %s not found", d.root)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeDiscovery, err, "read runtime root %s", d.root)
	}

	seen := make(map[string]bool)
	var out []Runtime
	for _, entry := range entries {
		m := runtimeDirRE.FindStringSubmatch(entry.Name())
		if m == nil || seen[m[1]] {
			continue
		}

		path := filepath.Join(d.root, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}

		rt, err := NewRuntime(m[1], path)
		if err != nil {
			continue
		}
		seen[rt.Name] = true
		out = append(out, rt)
	}

	if len(out) == 0 {
		return nil, pkgerrors.New(pkgerrors.ErrCodeDiscovery, "no runtime directories under %s", d.root)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	d.logger.Debug("discovered runtimes", "root", d.root, "count", len(out))
	return out, nil
}

func (d *Discovery) scanPackages(ctx context.Context, rt Runtime) ([]PackageDir, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Scan().OnScanStart(ctx, rt.Name)

	out, err := d.collectPackages(rt)
	observability.Scan().OnScanComplete(ctx, rt.Name, len(out), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("scanned packages", "runtime", rt.Name, "count", len(out))
	return out, nil
}

func (d *Discovery) collectPackages(rt Runtime) ([]PackageDir, error) {
	site, err := d.findSiteDir(rt.Dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(site)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeDiscovery, err, "read %s", site)
	}

	// Deduplicate by normalized name: a descriptor directory supersedes a
	// bare module file of the same package.
	byName := make(map[string]PackageDir)
	for _, entry := range entries {
		pd, ok := parseEntry(site, entry)
		if !ok || d.excluded(pd.Name) {
			continue
		}
		key := NormalizeName(pd.Name)
		if existing, dup := byName[key]; dup {
			if existing.IsDescriptor || !pd.IsDescriptor {
				continue
			}
		}
		byName[key] = pd
	}

	out := make([]PackageDir, 0, len(byName))
	for _, pd := range byName {
		out = append(out, pd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *Discovery) excluded(name string) bool {
	key := NormalizeName(name)
	for _, ex := range d.Exclude {
		if NormalizeName(ex) == key {
			return true
		}
	}
	return false
}

// findSiteDir walks the version directory down to its installation
// directory. Unreadable entries are skipped, not fatal.
func (d *Discovery) findSiteDir(dir string) (string, error) {
	var site string
	walkErr := filepath.WalkDir(dir, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !de.IsDir() {
			return nil
		}
		switch de.Name() {
		case "site-packages", "dist-packages":
			site = path
			return fs.SkipAll
		case "__pycache__":
			return fs.SkipDir
		}
		return nil
	})
	if walkErr != nil {
		return "", pkgerrors.Wrap(pkgerrors.ErrCodeDiscovery, walkErr, "walk %s", dir)
	}
	if site == "" {
		return "", pkgerrors.New(pkgerrors.ErrCodeDiscovery, "no installation directory under %s", dir)
	}
	return site, nil
}
