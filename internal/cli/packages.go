package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// packagesCommand creates the packages command for listing installed packages.
func (c *CLI) packagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "packages [runtime]",
		Short: "List packages installed under a runtime",
		Long: `List the packages installed under a runtime, with their versions.

Each package's installed version is resolved from its distribution
descriptor; bare modules without a descriptor are listed without a
version. Resolution runs in parallel across packages. Omitting the
runtime selects the newest discovered one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime := ""
			if len(args) == 1 {
				runtime = args[0]
			}
			return c.runPackages(cmd.Context(), runtime)
		},
	}
}

// runPackages resolves and prints every package under the runtime.
func (c *CLI) runPackages(ctx context.Context, runtime string) error {
	s, err := c.newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	runtime, err = defaultRuntime(ctx, s, runtime)
	if err != nil {
		return err
	}

	recs, err := s.Packages(ctx, runtime)
	if err != nil {
		return err
	}

	width := 0
	for _, rec := range recs {
		if len(rec.Name) > width {
			width = len(rec.Name)
		}
	}
	for _, rec := range recs {
		version := rec.Version
		if version == "" {
			version = "—"
		}
		fmt.Printf("%s %s\n",
			StyleValue.Render(fmt.Sprintf("%-*s", width, rec.Name)),
			StyleNumber.Render(version))
	}
	printNewline()
	printDetail("%d packages under %s", len(recs), runtime)
	return nil
}
