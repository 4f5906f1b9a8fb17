// Package resolve maps user input onto discovered installation state:
// runtime labels to discovered runtimes, and possibly misspelled package
// names to the canonical installed name under one runtime.
//
// Runtime labels resolve by exact version match. Package names resolve by
// fuzzy match so a typo like "reqeusts" still finds "requests"; anything
// below the similarity threshold fails with a not-found error carrying the
// closest candidate as a suggestion.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-version"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/match"
	"github.com/pyscope/pyscope/pkg/memo"
	"github.com/pyscope/pyscope/pkg/pyenv"
)

// Record pairs a resolved package with the runtime it is installed under.
// Records are immutable once created and cached per (package, runtime) for
// the resolver's lifetime.
type Record struct {
	// Runtime is the runtime the package resolved under.
	Runtime pyenv.Runtime

	// Dir is the package's location on disk.
	Dir pyenv.PackageDir

	// Name is the canonical installed name.
	Name string

	// Version is the installed version, empty for bare modules.
	Version string
}

// Resolver answers lookup queries against a Discovery. Site paths and
// records are memoized per (package, runtime); concurrent callers with the
// same key share one resolution. Safe for concurrent use.
type Resolver struct {
	disc   *pyenv.Discovery
	logger *log.Logger

	sites   *memo.Map[pyenv.PackageDir]
	records *memo.Map[*Record]
}

// NewResolver creates a resolver over the given discovery.
// A nil logger selects the default.
func NewResolver(disc *pyenv.Discovery, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		disc:    disc,
		logger:  logger,
		sites:   memo.New[pyenv.PackageDir](),
		records: memo.New[*Record](),
	}
}

// Runtime resolves an input label like "3.12" (or "3.12.4") to a discovered
// runtime. Matching is exact on the major.minor identity; there is no fuzzy
// matching for runtimes. Fails with RUNTIME_NOT_FOUND when the version is
// not installed.
func (r *Resolver) Runtime(ctx context.Context, input string) (pyenv.Runtime, error) {
	if err := pkgerrors.ValidateRuntimeInput(input); err != nil {
		return pyenv.Runtime{}, err
	}

	ver, err := version.NewVersion(input)
	if err != nil {
		return pyenv.Runtime{}, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidRuntime, err, "parse runtime %q", input)
	}

	runtimes, err := r.disc.Runtimes(ctx)
	if err != nil {
		return pyenv.Runtime{}, err
	}

	segments := ver.Segments()
	label := fmt.Sprintf("%d.%d", segments[0], segments[1])
	var names []string
	for _, rt := range runtimes {
		if rt.Name == label {
			return rt, nil
		}
		names = append(names, rt.Name)
	}

	return pyenv.Runtime{}, pkgerrors.New(pkgerrors.ErrCodeRuntimeNotFound,
		"runtime %s not found (installed: %s)", input, strings.Join(names, ", "))
}

// Package resolves a possibly misspelled package name to the canonical
// installed name under rt. Candidates are scored case-insensitively on
// normalized names; the best score wins, ties keep the first candidate in
// sorted name order. Fails with PACKAGE_NOT_FOUND when nothing clears the
// similarity threshold, attaching the closest candidate as a suggestion.
func (r *Resolver) Package(ctx context.Context, rt pyenv.Runtime, name string) (string, error) {
	if err := pkgerrors.ValidatePythonPackageName(name); err != nil {
		return "", err
	}

	pkgs, err := r.disc.Packages(ctx, rt)
	if err != nil {
		return "", err
	}

	query := pyenv.NormalizeName(name)
	best, bestScore := "", 0.0
	for _, p := range pkgs {
		score := match.Ratio(query, pyenv.NormalizeName(p.Name))
		if score > bestScore {
			best, bestScore = p.Name, score
		}
	}

	if bestScore >= match.ThresholdPackage {
		if best != name {
			r.logger.Debug("fuzzy-matched package", "query", name, "match", best, "score", bestScore)
		}
		return best, nil
	}

	suggest := ""
	if best != "" {
		suggest = fmt.Sprintf(" (closest match: %s)", best)
	}
	return "", pkgerrors.New(pkgerrors.ErrCodePackageNotFound,
		"package %s not installed under runtime %s%s", name, rt.Name, suggest)
}

// SitePath locates the package's directory under rt. Results are memoized
// per (package, runtime): concurrent calls with the same key observe a
// single resolution, and repeated calls never re-walk the filesystem.
func (r *Resolver) SitePath(ctx context.Context, rt pyenv.Runtime, name string) (pyenv.PackageDir, error) {
	return r.sites.Do(recordKey(rt, name), func() (pyenv.PackageDir, error) {
		canonical, err := r.Package(ctx, rt, name)
		if err != nil {
			return pyenv.PackageDir{}, err
		}

		pkgs, err := r.disc.Packages(ctx, rt)
		if err != nil {
			return pyenv.PackageDir{}, err
		}
		for _, p := range pkgs {
			if p.Name == canonical {
				return p, nil
			}
		}
		// Unreachable while Package matches against the same snapshot.
		return pyenv.PackageDir{}, pkgerrors.New(pkgerrors.ErrCodePackageNotFound,
			"package %s not installed under runtime %s", canonical, rt.Name)
	})
}

// Resolve builds the full record for a package under rt. Records are
// cached per (package, runtime) and shared between callers.
func (r *Resolver) Resolve(ctx context.Context, rt pyenv.Runtime, name string) (*Record, error) {
	return r.records.Do(recordKey(rt, name), func() (*Record, error) {
		pd, err := r.SitePath(ctx, rt, name)
		if err != nil {
			return nil, err
		}
		return &Record{
			Runtime: rt,
			Dir:     pd,
			Name:    pd.Name,
			Version: pd.Version,
		}, nil
	})
}

func recordKey(rt pyenv.Runtime, name string) string {
	return pyenv.NormalizeName(name) + "@" + rt.Name
}
