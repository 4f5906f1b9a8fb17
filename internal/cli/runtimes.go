package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// runtimesCommand creates the runtimes command for listing installed runtimes.
func (c *CLI) runtimesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "runtimes",
		Short: "List installed Python runtimes",
		Long: `List the Python runtimes discovered under the runtime root.

Runtimes are directories named for a major.minor version (e.g. "3.12")
that carry a site-packages tree. The root defaults to the platform
location and can be overridden with [discovery] root in pyscope.toml or
the PYSCOPE_DISCOVERY_ROOT environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRuntimes(cmd.Context())
		},
	}
}

// runRuntimes discovers and prints the runtimes, oldest first.
func (c *CLI) runRuntimes(ctx context.Context) error {
	s, err := c.newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	rts, err := s.Runtimes(ctx)
	if err != nil {
		return err
	}

	for _, rt := range rts {
		printKeyValue(rt.Name, rt.Dir)
	}
	printNewline()
	printDetail("%d runtimes", len(rts))
	return nil
}
