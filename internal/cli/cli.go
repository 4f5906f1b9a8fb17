// Package cli implements the pyscope command-line interface.
//
// This package provides commands for listing Python runtimes and their
// installed packages, inspecting package fields locally and against the
// remote catalog, diffing installed versions against published releases,
// and recording snapshots. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - runtimes: List installed Python runtimes
//   - packages: List packages installed under a runtime
//   - inspect: Answer a field query for an installed package
//   - pypi: Answer catalog queries without a local installation
//   - updates: List releases newer than the installed version
//   - compare: Compare a package field across two runtimes
//   - snapshot: Record package state to a file or MongoDB store
//   - browse: Interactive package browser
//   - serve: Expose the query surface over HTTP
//   - cache: Manage the remote document cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// writes to stderr so command output stays pipeable.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pyscope/pyscope/pkg/buildinfo"
	"github.com/pyscope/pyscope/pkg/config"
	"github.com/pyscope/pyscope/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pyscope"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "pyscope",
		Short:   "Pyscope inspects Python packages across installed runtimes",
		Long:    `Pyscope discovers the Python runtimes installed on a machine, resolves the packages under each one, and answers field queries about them locally and against the remote package catalog.`,
		Version: buildinfo.Version,

		// main prints the error once; keep cobra from printing it too.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to pyscope.toml")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the remote document cache")

	// Register all subcommands
	root.AddCommand(c.runtimesCommand())
	root.AddCommand(c.packagesCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.pypiCommand())
	root.AddCommand(c.updatesCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Session Factory
// =============================================================================

// loadConfig reads the configuration honoring the --config flag.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// newSession creates a query session for CLI use.
func (c *CLI) newSession(ctx context.Context) (*session.Session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return c.sessionFromConfig(ctx, cfg)
}

func (c *CLI) sessionFromConfig(ctx context.Context, cfg *config.Config) (*session.Session, error) {
	if c.noCache {
		cfg.Cache.Backend = "none"
	}
	return session.NewFromConfig(ctx, cfg, c.Logger)
}

// defaultRuntime substitutes the newest discovered runtime when none was
// named on the command line.
func defaultRuntime(ctx context.Context, s *session.Session, runtime string) (string, error) {
	if runtime != "" {
		return runtime, nil
	}
	rt, err := s.DefaultRuntime(ctx)
	if err != nil {
		return "", err
	}
	return rt.Name, nil
}
