// Package session wires discovery, resolution, inspection and the remote
// catalog into the query surface the CLI and API consume.
//
// A Session owns the component instances and their caches: runtimes and
// package scans, resolved records, parsed descriptors and fetched remote
// documents are all computed once per session. Both eager and lazy
// package listing are separate entry points rather than one call with a
// mode flag.
package session

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pyscope/pyscope/pkg/cache"
	"github.com/pyscope/pyscope/pkg/config"
	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/inspect"
	"github.com/pyscope/pyscope/pkg/match"
	"github.com/pyscope/pyscope/pkg/pool"
	"github.com/pyscope/pyscope/pkg/pyenv"
	"github.com/pyscope/pyscope/pkg/pypi"
	"github.com/pyscope/pyscope/pkg/release"
	"github.com/pyscope/pyscope/pkg/resolve"
)

// Options configures a Session. Zero fields select defaults.
type Options struct {
	// Root is the runtime root to scan; empty selects the platform default.
	Root string
	// Exclude lists package names discovery should skip.
	Exclude []string
	// Cache is the document cache backend; nil disables caching.
	Cache cache.Cache
	// Keyer derives cache keys; nil selects the default keyer.
	Keyer cache.Keyer
	// Logger receives structured logs; nil selects the default logger.
	Logger *log.Logger
	// Workers bounds parallel map operations; <=0 selects the default.
	Workers int
}

// Session is the top-level query surface. Safe for concurrent use.
type Session struct {
	Discovery *pyenv.Discovery
	Resolver  *resolve.Resolver
	Inspector *inspect.Inspector
	Catalog   *pypi.Client
	Logger    *log.Logger
	Workers   int

	backend cache.Cache
}

// New creates a session from options.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	backend := opts.Cache
	if backend == nil {
		backend = cache.NewNullCache()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = pool.DefaultWorkers
	}

	disc := pyenv.NewDiscovery(opts.Root, logger)
	disc.Exclude = opts.Exclude
	catalog := pypi.NewClient(backend, opts.Keyer, logger)
	catalog.Workers = workers

	return &Session{
		Discovery: disc,
		Resolver:  resolve.NewResolver(disc, logger),
		Inspector: inspect.NewInspector(catalog, logger),
		Catalog:   catalog,
		Logger:    logger,
		Workers:   workers,
		backend:   backend,
	}
}

// NewFromConfig creates a session from a loaded configuration, building
// the configured cache backend. ctx bounds backend connection checks.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Session, error) {
	backend, err := buildBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := New(Options{
		Root:    cfg.Discovery.Root,
		Exclude: cfg.Discovery.Exclude,
		Cache:   backend,
		Logger:  logger,
		Workers: cfg.Workers.Count,
	})

	if cfg.Network.TimeoutSeconds > 0 || cfg.Network.LongTimeoutSeconds > 0 {
		s.Catalog.SetTimeouts(
			time.Duration(cfg.Network.TimeoutSeconds)*time.Second,
			time.Duration(cfg.Network.LongTimeoutSeconds)*time.Second)
	}
	if cfg.Network.RetryInitialMS > 0 {
		s.Catalog.RetryDelay = time.Duration(cfg.Network.RetryInitialMS) * time.Millisecond
	}
	if cfg.Network.UserAgent != "" {
		s.Catalog.UserAgent = cfg.Network.UserAgent
	}
	if cfg.Network.IndexBase != "" {
		s.Catalog.IndexBase = cfg.Network.IndexBase
	}
	if cfg.Network.StatsBase != "" {
		s.Catalog.StatsBase = cfg.Network.StatsBase
	}
	if cfg.Cache.TTLHours > 0 {
		s.Catalog.TTL = time.Duration(cfg.Cache.TTLHours) * time.Hour
	}
	return s, nil
}

func buildBackend(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr)
	default:
		return cache.NewFileCache(cfg.CacheDir())
	}
}

// Close releases the cache backend.
func (s *Session) Close() error {
	if s.backend != nil {
		return s.backend.Close()
	}
	return nil
}

// Runtimes lists the discovered runtimes, oldest first.
func (s *Session) Runtimes(ctx context.Context) ([]pyenv.Runtime, error) {
	return s.Discovery.Runtimes(ctx)
}

// DefaultRuntime returns the newest discovered runtime, the operand used
// when a caller names no runtime.
func (s *Session) DefaultRuntime(ctx context.Context) (pyenv.Runtime, error) {
	rts, err := s.Discovery.Runtimes(ctx)
	if err != nil {
		return pyenv.Runtime{}, err
	}
	return rts[len(rts)-1], nil
}

// Packages eagerly resolves every package installed under a runtime,
// fanning the per-package resolution over the worker pool. Results keep
// the discovery order.
func (s *Session) Packages(ctx context.Context, runtime string) ([]*resolve.Record, error) {
	rt, err := s.Resolver.Runtime(ctx, runtime)
	if err != nil {
		return nil, err
	}
	pkgs, err := s.Discovery.Packages(ctx, rt)
	if err != nil {
		return nil, err
	}
	return pool.Map(ctx, pkgs, s.Workers, func(pd pyenv.PackageDir) (*resolve.Record, error) {
		return s.Resolver.Resolve(ctx, rt, pd.Name)
	})
}

// InspectAll lazily yields resolved records for a runtime, one package at
// a time. The caller controls how far the iteration runs; breaking early
// stops further resolution.
func (s *Session) InspectAll(ctx context.Context, runtime string) iter.Seq2[*resolve.Record, error] {
	return func(yield func(*resolve.Record, error) bool) {
		rt, err := s.Resolver.Runtime(ctx, runtime)
		if err != nil {
			yield(nil, err)
			return
		}
		pkgs, err := s.Discovery.Packages(ctx, rt)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, pd := range pkgs {
			rec, err := s.Resolver.Resolve(ctx, rt, pd.Name)
			if !yield(rec, err) {
				return
			}
		}
	}
}

// Inspect resolves a package under a runtime and answers a field query.
// When the package is not installed locally but the query is answerable
// from the remote catalog alone, the catalog is consulted before failing.
func (s *Session) Inspect(ctx context.Context, pkg, runtime, field string) (any, error) {
	rt, err := s.Resolver.Runtime(ctx, runtime)
	if err != nil {
		return nil, err
	}

	rec, err := s.Resolver.Resolve(ctx, rt, pkg)
	if err != nil {
		if pkgerrors.GetCode(err) == pkgerrors.ErrCodePackageNotFound {
			if _, remote := inspect.RemoteField(field); remote {
				s.Logger.Debug("package not installed, answering from catalog",
					"package", pkg, "runtime", rt.Name, "field", field)
				return s.InspectRemote(ctx, pkg, field)
			}
		}
		return nil, err
	}
	return s.Inspector.Inspect(ctx, rec, field)
}

// InspectRemote answers a catalog-backed field query without any local
// installation: release fields and ecosystem statistics only.
func (s *Session) InspectRemote(ctx context.Context, pkg, field string) (any, error) {
	if err := pkgerrors.ValidatePythonPackageName(pkg); err != nil {
		return nil, err
	}
	rec := &resolve.Record{Name: pyenv.NormalizeName(pkg)}
	return s.Inspector.Inspect(ctx, rec, field)
}

// Updates returns the releases published strictly after current. An empty
// current defaults to the version installed under the newest discovered
// runtime. An empty result is the normal "nothing pending" answer.
func (s *Session) Updates(ctx context.Context, pkg, current string) ([]release.Record, error) {
	name := pkg
	if current == "" {
		rt, err := s.DefaultRuntime(ctx)
		if err != nil {
			return nil, err
		}
		rec, err := s.Resolver.Resolve(ctx, rt, pkg)
		if err != nil {
			return nil, err
		}
		name = rec.Name
		current = rec.Version
	}

	hist, err := s.Catalog.History(ctx, name)
	if err != nil {
		return nil, err
	}
	return hist.UpdatesAfter(current)
}

// Comparison is one field inspected under two runtimes.
type Comparison struct {
	Package string
	Field   string
	A, B    RuntimeValue
}

// RuntimeValue is a field value observed under one runtime.
type RuntimeValue struct {
	Runtime string
	Value   any
}

// CompareAcross inspects the same field for a package under two runtimes
// and returns both values. An empty field compares installed versions.
func (s *Session) CompareAcross(ctx context.Context, pkg, runtimeA, runtimeB, field string) (*Comparison, error) {
	if field == "" {
		field = "version"
	}

	va, rta, err := s.inspectUnder(ctx, pkg, runtimeA, field)
	if err != nil {
		return nil, err
	}
	vb, rtb, err := s.inspectUnder(ctx, pkg, runtimeB, field)
	if err != nil {
		return nil, err
	}
	return &Comparison{
		Package: pkg,
		Field:   field,
		A:       RuntimeValue{Runtime: rta, Value: va},
		B:       RuntimeValue{Runtime: rtb, Value: vb},
	}, nil
}

// EvaluateAcross compares a version-valued field across two runtimes
// under op, e.g. "is the installed version under A older than under B".
func (s *Session) EvaluateAcross(ctx context.Context, pkg, runtimeA, runtimeB, field string, op release.Op) (bool, error) {
	cmp, err := s.CompareAcross(ctx, pkg, runtimeA, runtimeB, field)
	if err != nil {
		return false, err
	}

	ra, err := versionRecord(cmp.Field, cmp.A)
	if err != nil {
		return false, err
	}
	rb, err := versionRecord(cmp.Field, cmp.B)
	if err != nil {
		return false, err
	}
	return release.Evaluate(ra, rb, op)
}

func (s *Session) inspectUnder(ctx context.Context, pkg, runtime, field string) (any, string, error) {
	rt, err := s.Resolver.Runtime(ctx, runtime)
	if err != nil {
		return nil, "", err
	}
	rec, err := s.Resolver.Resolve(ctx, rt, pkg)
	if err != nil {
		return nil, "", err
	}
	v, err := s.Inspector.Inspect(ctx, rec, field)
	if err != nil {
		return nil, "", err
	}
	if v == nil {
		// A one-sided inspect tolerates an unanswered query; a comparison
		// needs a value under both runtimes.
		suggest := ""
		if closest := match.Closest(field, inspect.Fields()); closest.Value != "" {
			suggest = fmt.Sprintf(" (closest match: %s)", closest.Value)
		}
		return nil, "", pkgerrors.New(pkgerrors.ErrCodeFieldNotFound,
			"field %q has no value for %s under runtime %s%s", field, rec.Name, rt.Name, suggest)
	}
	return v, rt.Name, nil
}

// versionRecord coerces an inspected value into a comparable release
// record. Only version-valued fields are comparable.
func versionRecord(field string, rv RuntimeValue) (release.Record, error) {
	str, ok := rv.Value.(string)
	if !ok || str == "" {
		return release.Record{}, pkgerrors.New(pkgerrors.ErrCodeInvalidArgument,
			"field %q under runtime %s is not a comparable version", field, rv.Runtime)
	}
	rec, err := release.NewRecord("", str)
	if err != nil {
		return release.Record{}, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidArgument, err,
			"field %q under runtime %s is not a comparable version", field, rv.Runtime)
	}
	return rec, nil
}
