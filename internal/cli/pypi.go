package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// pypiCommand creates the pypi command for catalog-only queries.
func (c *CLI) pypiCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pypi <package> [field]",
		Short: "Query the package catalog without a local installation",
		Long: `Answer a catalog query for any published package, installed or not.

Catalog fields are release data (latest version, initial version,
version history, release count) and ecosystem statistics (downloads,
dependents, package size). The field defaults to "latest version".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			field := "latest version"
			if len(args) == 2 {
				field = args[1]
			}
			return c.runPyPI(cmd.Context(), args[0], field)
		},
	}

	return cmd
}

// runPyPI answers a remote-only field query.
func (c *CLI) runPyPI(ctx context.Context, pkg, field string) error {
	s, err := c.newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching catalog data for %s...", pkg))
	spinner.Start()
	v, err := s.InspectRemote(ctx, pkg, field)
	spinner.Stop()
	if err != nil {
		return err
	}

	printAnswer(field, v)
	return nil
}
