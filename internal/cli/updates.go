package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
)

// updatesCommand creates the updates command for release diffing.
func (c *CLI) updatesCommand() *cobra.Command {
	var (
		current string
		runtime string
	)

	cmd := &cobra.Command{
		Use:   "updates <package>",
		Short: "List releases newer than the installed version",
		Long: `List the published releases strictly newer than the current version.

Without --current the installed version is used: under the named
runtime with --runtime, otherwise under the newest discovered runtime.
An empty listing means the package is already up to date.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUpdates(cmd.Context(), args[0], runtime, current)
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "version to diff against (default: the installed version)")
	cmd.Flags().StringVarP(&runtime, "runtime", "r", "", "runtime whose installed version is current")

	return cmd
}

// runUpdates diffs the package's release history against current.
func (c *CLI) runUpdates(ctx context.Context, pkg, runtime, current string) error {
	s, err := c.newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	// An explicit runtime pins current to the version installed there;
	// otherwise the session defaults to the newest runtime.
	if current == "" && runtime != "" {
		name, err := s.Inspect(ctx, pkg, runtime, "name")
		if err != nil {
			return err
		}
		if n, ok := name.(string); ok && n != "" {
			pkg = n
		}
		v, err := s.Inspect(ctx, pkg, runtime, "version")
		if err != nil {
			return err
		}
		ver, _ := v.(string)
		if ver == "" {
			return pkgerrors.New(pkgerrors.ErrCodeVersionNotFound,
				"package %s has no installed version under runtime %s", pkg, runtime)
		}
		current = ver
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Checking %s for updates...", pkg))
	spinner.Start()
	recs, err := s.Updates(ctx, pkg, current)
	spinner.Stop()
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		printSuccess("%s is up to date", pkg)
		return nil
	}

	printInfo("%d newer releases", len(recs))
	printReleases(recs)
	return nil
}
