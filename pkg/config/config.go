// Package config loads the optional pyscope.toml configuration file.
//
// The file is searched in the user config directory
// ($XDG_CONFIG_HOME/pyscope/pyscope.toml) and then the working directory;
// PYSCOPE_CONFIG overrides the search with an explicit path. A missing
// file is not an error: the zero-value configuration is valid and every
// component falls back to its own defaults for zero fields.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
)

// FileName is the configuration file looked up in the search path.
const FileName = "pyscope.toml"

// Environment overrides, applied after the file is read.
const (
	EnvConfig        = "PYSCOPE_CONFIG"
	EnvCacheDir      = "PYSCOPE_CACHE_DIR"
	EnvDiscoveryRoot = "PYSCOPE_DISCOVERY_ROOT"
)

// Config is the full configuration tree. Zero fields mean "component
// default".
type Config struct {
	Discovery DiscoveryConfig `toml:"discovery"`
	Network   NetworkConfig   `toml:"network"`
	Cache     CacheConfig     `toml:"cache"`
	Workers   WorkersConfig   `toml:"workers"`
	Snapshot  SnapshotConfig  `toml:"snapshot"`
}

// DiscoveryConfig controls runtime discovery.
type DiscoveryConfig struct {
	// Root is the runtime root directory to scan.
	Root string `toml:"root"`
	// Exclude lists extra package names to treat as noise.
	Exclude []string `toml:"exclude"`
}

// NetworkConfig controls remote document fetching.
type NetworkConfig struct {
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	LongTimeoutSeconds int    `toml:"long_timeout_seconds"`
	RetryInitialMS     int    `toml:"retry_initial_ms"`
	UserAgent          string `toml:"user_agent"`

	// IndexBase and StatsBase point the fetchers at registry mirrors.
	IndexBase string `toml:"index_base"`
	StatsBase string `toml:"stats_base"`
}

// CacheConfig selects and locates the cache backend.
type CacheConfig struct {
	Dir       string `toml:"dir"`
	TTLHours  int    `toml:"ttl_hours"`
	Backend   string `toml:"backend"`
	RedisAddr string `toml:"redis_addr"`
}

// WorkersConfig bounds the parallel map pool.
type WorkersConfig struct {
	Count int `toml:"count"`
}

// SnapshotConfig selects the snapshot sink.
type SnapshotConfig struct {
	Dir           string `toml:"dir"`
	Store         string `toml:"store"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Load reads the configuration from path, or from the search path when
// path is empty. A missing file yields the zero configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = searchPath()
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "read config %s", path)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.ErrCodeParse, err, "parse config %s", path)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// searchPath returns the first existing candidate config file, or "".
func searchPath() string {
	var candidates []string
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "pyscope", FileName))
	}
	candidates = append(candidates, FileName)

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func (c *Config) applyEnv() {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		c.Cache.Dir = dir
	}
	if root := os.Getenv(EnvDiscoveryRoot); root != "" {
		c.Discovery.Root = root
	}
}

// Validate rejects unknown backend selectors and malformed mirror URLs.
// Zero values pass.
func (c *Config) Validate() error {
	for _, base := range []string{c.Network.IndexBase, c.Network.StatsBase} {
		if base == "" {
			continue
		}
		if err := pkgerrors.ValidateURL(base); err != nil {
			return err
		}
	}
	switch c.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return pkgerrors.New(pkgerrors.ErrCodeInvalidArgument,
			"unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	switch c.Snapshot.Store {
	case "", "file", "mongo":
	default:
		return pkgerrors.New(pkgerrors.ErrCodeInvalidArgument,
			"unknown snapshot store %q (want file or mongo)", c.Snapshot.Store)
	}
	if c.Workers.Count < 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidArgument,
			"worker count cannot be negative")
	}
	return nil
}

// CacheDir returns the configured cache directory, defaulting to
// pyscope under the user cache directory.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "pyscope")
	}
	return ".pyscope-cache"
}

// SnapshotDir returns the configured snapshot directory, defaulting to
// the working directory.
func (c *Config) SnapshotDir() string {
	if c.Snapshot.Dir != "" {
		return c.Snapshot.Dir
	}
	return "."
}
