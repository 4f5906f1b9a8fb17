package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyscope/pyscope/pkg/release"
)

// compareCommand creates the compare command for cross-runtime queries.
func (c *CLI) compareCommand() *cobra.Command {
	var opStr string

	cmd := &cobra.Command{
		Use:   "compare <package> <runtime-a> <runtime-b> [field]",
		Short: "Compare a package field across two runtimes",
		Long: `Inspect the same field for a package under two runtimes.

Without --op both values are printed side by side. With --op the two
values are parsed as versions and the comparison verdict is printed;
the field defaults to the installed version.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			field := ""
			if len(args) == 4 {
				field = args[3]
			}
			return c.runCompare(cmd.Context(), args[0], args[1], args[2], field, opStr)
		},
	}

	cmd.Flags().StringVar(&opStr, "op", "", "comparison operator: <, <=, ==, !=, >=, > (or lt, le, eq, ne, ge, gt)")

	return cmd
}

// runCompare inspects the field under both runtimes and prints the pair,
// or the boolean verdict when an operator was given.
func (c *CLI) runCompare(ctx context.Context, pkg, runtimeA, runtimeB, field, opStr string) error {
	s, err := c.newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if opStr != "" {
		op, err := release.ParseOp(opStr)
		if err != nil {
			return err
		}
		ok, err := s.EvaluateAcross(ctx, pkg, runtimeA, runtimeB, field, op)
		if err != nil {
			return err
		}
		if ok {
			printSuccess("%s", StyleSuccess.Render("true"))
		} else {
			printError("false")
		}
		return nil
	}

	cmp, err := s.CompareAcross(ctx, pkg, runtimeA, runtimeB, field)
	if err != nil {
		return err
	}

	printInfo("%s %s", StyleHighlight.Render(cmp.Package), StyleDim.Render(cmp.Field))
	printKeyValue(cmp.A.Runtime, fmt.Sprintf("%v", cmp.A.Value))
	printKeyValue(cmp.B.Runtime, fmt.Sprintf("%v", cmp.B.Value))
	return nil
}
