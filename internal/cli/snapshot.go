package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pyscope/pyscope/pkg/config"
	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/snapshot"
)

// snapshotCommand creates the snapshot command and its subcommands.
func (c *CLI) snapshotCommand() *cobra.Command {
	var (
		runtime   string
		out       string
		fieldsStr string
	)

	cmd := &cobra.Command{
		Use:   "snapshot <package>...",
		Short: "Record package state for archival",
		Long: `Record the name, version and selected fields of the named packages
as a snapshot in the configured store.

The store defaults to pretty JSON files under [snapshot] dir; set
[snapshot] store = "mongo" to write to MongoDB instead. --out forces a
file store in the given directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshot(cmd.Context(), args, runtime, out, fieldsStr)
		},
	}

	cmd.Flags().StringVarP(&runtime, "runtime", "r", "", "runtime version, e.g. 3.12 (default: newest)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this directory instead of the configured store")
	cmd.Flags().StringVar(&fieldsStr, "fields", "", "comma-separated extra fields to record")

	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotShowCommand())

	return cmd
}

// runSnapshot builds a snapshot of the named packages and saves it.
func (c *CLI) runSnapshot(ctx context.Context, pkgs []string, runtime, out, fieldsStr string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	s, err := c.sessionFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	runtime, err = defaultRuntime(ctx, s, runtime)
	if err != nil {
		return err
	}

	fields := snapshot.DefaultFields
	if fieldsStr != "" {
		fields = parseFields(fieldsStr)
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Recording %d packages under %s...", len(pkgs), runtime))
	spinner.Start()
	snap, err := snapshot.Build(ctx, s, runtime, pkgs, fields)
	spinner.Stop()
	if err != nil {
		return err
	}

	store, err := c.newStore(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(ctx, snap); err != nil {
		return err
	}

	printSuccess("Snapshot %s saved", snap.ID)
	if fs, ok := store.(*snapshot.FileStore); ok {
		printFile(fs.File(snap))
	}
	printNextStep("Inspect later", fmt.Sprintf("pyscope snapshot show %s", snap.ID))
	return nil
}

// snapshotListCommand creates the "snapshot list" subcommand.
func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [package]",
		Short: "List saved snapshots, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg := ""
			if len(args) == 1 {
				pkg = args[0]
			}
			return c.runSnapshotList(cmd.Context(), pkg)
		},
	}
}

// runSnapshotList prints the stored snapshots, optionally filtered to
// those containing a package.
func (c *CLI) runSnapshotList(ctx context.Context, pkg string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	store, err := c.newStore(ctx, cfg, "")
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.List(ctx, pkg)
	if err != nil {
		return err
	}

	if len(snaps) == 0 {
		printInfo("No snapshots found")
		return nil
	}

	for _, snap := range snaps {
		names := make([]string, len(snap.Packages))
		for i, p := range snap.Packages {
			names[i] = p.Name
		}
		fmt.Printf("%s  %s  %s\n",
			StyleValue.Render(snap.ID.String()),
			StyleDim.Render(snap.CreatedAt.Format("2006-01-02 15:04")),
			StyleHighlight.Render(strings.Join(names, ", ")))
	}
	return nil
}

// snapshotShowCommand creates the "snapshot show" subcommand.
func (c *CLI) snapshotShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshotShow(cmd.Context(), args[0])
		},
	}
}

// runSnapshotShow loads one snapshot by ID and prints it.
func (c *CLI) runSnapshotShow(ctx context.Context, idStr string) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidArgument, err, "parse snapshot id %q", idStr)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	store, err := c.newStore(ctx, cfg, "")
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(ctx, id)
	if err != nil {
		return err
	}

	printKeyValue("id", snap.ID.String())
	printKeyValue("created", snap.CreatedAt.Format("2006-01-02 15:04:05"))
	if snap.Host != "" {
		printKeyValue("host", snap.Host)
	}
	printKeyValue("runtime", snap.Runtime)
	for _, p := range snap.Packages {
		printNewline()
		printInfo("%s %s", StyleHighlight.Render(p.Name), StyleNumber.Render(p.Version))
		printMetadata(p.Fields)
	}
	return nil
}

// newStore selects the snapshot sink from configuration. A non-empty out
// forces a file store in that directory.
func (c *CLI) newStore(ctx context.Context, cfg *config.Config, out string) (snapshot.Store, error) {
	if out != "" {
		return snapshot.NewFileStore(out)
	}
	if cfg.Snapshot.Store == "mongo" {
		return snapshot.NewMongoStore(ctx, cfg.Snapshot.MongoURI, cfg.Snapshot.MongoDatabase)
	}
	return snapshot.NewFileStore(cfg.SnapshotDir())
}

// parseFields splits a comma-separated field list, dropping empty entries.
func parseFields(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
