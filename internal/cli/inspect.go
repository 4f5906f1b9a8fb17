package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pyscope/pyscope/pkg/inspect"
	"github.com/pyscope/pyscope/pkg/metrics"
	"github.com/pyscope/pyscope/pkg/release"
)

// inspectCommand creates the inspect command for field queries.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		runtime    string
		listFields bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <package> [field]",
		Short: "Answer a field query for an installed package",
		Long: `Answer a field query for a package installed under a runtime.

Field names are fuzzy matched, so "Author-email", "author_email" and
"authr email" all resolve to the same field. Package names are fuzzy
matched against the installed packages too. Without a field the
recognized vocabulary is printed instead of data.

Queries that only need the remote catalog (latest version, version
history, release count, download statistics) are answered even when the
package is not installed locally.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if listFields {
				for _, f := range inspect.Fields() {
					fmt.Println(f)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("package name required (or --list-fields)")
			}
			field := ""
			if len(args) == 2 {
				field = args[1]
			}
			return c.runInspect(cmd.Context(), args[0], runtime, field)
		},
	}

	cmd.Flags().StringVarP(&runtime, "runtime", "r", "", "runtime version, e.g. 3.12 (default: newest)")
	cmd.Flags().BoolVar(&listFields, "list-fields", false, "print the recognized field names and exit")

	return cmd
}

// runInspect resolves the package under the runtime and answers the query.
func (c *CLI) runInspect(ctx context.Context, pkg, runtime, field string) error {
	s, err := c.newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	runtime, err = defaultRuntime(ctx, s, runtime)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Inspecting %s...", pkg))
	spinner.Start()
	v, err := s.Inspect(ctx, pkg, runtime, field)
	spinner.Stop()
	if err != nil {
		return err
	}

	printAnswer(field, v)
	return nil
}

// printAnswer renders an inspection result. The value shapes mirror the
// inspector's dispatch table: scalars, string lists, release records,
// normalized statistics and metadata maps.
func printAnswer(field string, v any) {
	switch t := v.(type) {
	case nil:
		printWarning("no value for %q", field)
	case *release.History:
		printReleases(t.Records)
	case []release.Record:
		printReleases(t)
	case release.Record:
		fmt.Println(StyleValue.Render(t.String()))
	case metrics.Value:
		fmt.Println(StyleNumber.Render(t.String()))
	case map[string]any:
		printMetadata(t)
	case []string:
		for _, s := range t {
			fmt.Println(renderString(s))
		}
	case string:
		fmt.Println(renderString(t))
	default:
		fmt.Println(StyleValue.Render(fmt.Sprintf("%v", t)))
	}
}

// renderString styles a scalar answer, marking URLs as links so home
// pages and documentation answers stand out.
func renderString(s string) string {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return StyleLink.Render(s)
	}
	return StyleValue.Render(s)
}

// printReleases renders release records one per line, version then date.
func printReleases(recs []release.Record) {
	for _, r := range recs {
		if r.DateRaw == "" {
			fmt.Println(StyleValue.Render(r.VersionRaw))
			continue
		}
		fmt.Printf("%s %s\n",
			StyleValue.Render(fmt.Sprintf("%-16s", r.VersionRaw)),
			StyleDim.Render(r.DateRaw))
	}
}

// printMetadata renders a metadata map with sorted keys.
func printMetadata(meta map[string]any) {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		printKeyValue(k, fmt.Sprintf("%v", meta[k]))
	}
}
