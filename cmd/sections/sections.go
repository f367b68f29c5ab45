// Package sections lists the configured sections and their facets
package sections

import (
	"fmt"
	"io"
	"strings"

	"yamo/treasury/cmd/root"
	"yamo/treasury/internal/view"

	"github.com/spf13/cobra"
)

// WithValues also loads the data and lists the values found for equals facets
var WithValues bool

// Cmd represents the sections command
var Cmd = &cobra.Command{
	Use:   "sections",
	Short: "List the configured sections and their facets",
	Long: `List every section with its resource, search fields, totals and facets.
The command fails when the section configuration is invalid, which makes it a
quick check after editing a sections file.`,
	Args: cobra.NoArgs,
	RunE: runSections,
}

func init() {
	Cmd.Flags().BoolVar(&WithValues, "values", false, "Load the data and include the values found in it")
}

func runSections(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	if WithValues {
		if _, err := c.GetCache().Reload(root.Context(cmd)); err != nil {
			return fmt.Errorf("failed to load data: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	snap := c.GetCache().Snapshot()
	for _, b := range c.GetCatalog().Bindings() {
		if err := describe(out, b, b.Facets(snap)); err != nil {
			return err
		}
	}
	return nil
}

func describe(w io.Writer, b view.Binding, facets []view.Facet) error {
	s := b.Section()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s): %s\n", s.Name, s.Resource, b.Title())
	if s.Scope != nil {
		fmt.Fprintf(&sb, "  scope:  %s = %s\n", s.Scope.Field, s.Scope.Value)
	}
	if len(s.SearchFields) > 0 {
		fmt.Fprintf(&sb, "  search: %s\n", strings.Join(s.SearchFields, ", "))
	}
	if len(s.SumFields) > 0 {
		fmt.Fprintf(&sb, "  totals: %s\n", strings.Join(s.SumFields, ", "))
	}
	for _, f := range facets {
		fmt.Fprintf(&sb, "  facet %s [%s]: %s\n", f.Name, f.Kind, strings.Join(f.Values, ", "))
	}
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
