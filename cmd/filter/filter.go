// Package filter prints one filtered section
package filter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"yamo/treasury/cmd/root"
	"yamo/treasury/internal/fileutils"
	"yamo/treasury/internal/logging"
	"yamo/treasury/internal/tui"
	"yamo/treasury/internal/validation"
	"yamo/treasury/internal/view"

	"github.com/spf13/cobra"
)

// Output formats.
const (
	FormatTable = validation.FormatTable
	FormatJSON  = validation.FormatJSON
	FormatCSV   = validation.FormatCSV
)

// Options holds the filter command flags.
type Options struct {
	Facets []string
	Query  string
	Format string
	Output string
}

// Flags holds the parsed flag values
var Flags = Options{Format: FormatTable}

// Cmd represents the filter command
var Cmd = &cobra.Command{
	Use:   "filter <section>",
	Short: "Print a section filtered by facets and search text",
	Long: `Load a section, select facet values and apply a search, then print the
matching entities with their count and total as a table, JSON or CSV.

Example:
  yamo filter clients --query acme --facet solde=debiteur`,
	Args: cobra.ExactArgs(1),
	RunE: runFilter,
}

func init() {
	Cmd.Flags().StringArrayVarP(&Flags.Facets, "facet", "f", nil, "Facet value to select, as name=value (repeatable)")
	Cmd.Flags().StringVarP(&Flags.Query, "query", "q", "", "Free-text search")
	Cmd.Flags().StringVar(&Flags.Format, "format", FormatTable, "Output format: table, json or csv")
	Cmd.Flags().StringVarP(&Flags.Output, "output", "o", "", "Write to file instead of stdout")
}

func runFilter(cmd *cobra.Command, args []string) error {
	format, err := validation.OutputFormat(Flags.Format)
	if err != nil {
		return err
	}
	if Flags.Output != "" {
		if err := validation.OutputPath(Flags.Output); err != nil {
			return err
		}
	}

	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	v, err := c.NewView(args[0])
	if err != nil {
		return err
	}
	defer v.Close()

	if err := v.Activate(root.Context(cmd)); err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	section := v.Binding().Section()
	for _, raw := range Flags.Facets {
		name, value, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || value == "" {
			return fmt.Errorf("invalid facet '%s': expected name=value", raw)
		}
		if _, known := section.Facet(name); !known {
			return fmt.Errorf("unknown facet '%s' for section '%s'", name, section.Name)
		}
		if !v.Store().IsSelected(section.Name, name, value) {
			v.ToggleFacetValue(name, value)
		}
	}
	page := v.ApplyQuery(Flags.Query)

	logger := c.GetLogger()
	logger.Debug("Section filtered",
		logging.F(logging.FieldSection, section.Name),
		logging.F(logging.FieldQuery, Flags.Query),
		logging.F(logging.FieldCount, page.Aggregate.Filtered))

	cfg := c.GetConfig()
	if format == FormatCSV && Flags.Output != "" {
		return v.ExportCSV(Flags.Output, cfg.Delimiter())
	}

	out := cmd.OutOrStdout()
	if Flags.Output != "" {
		file, err := fileutils.CreateFile(Flags.Output)
		if err != nil {
			return err
		}
		defer func() {
			if err := file.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close output file",
					logging.F(logging.FieldFile, Flags.Output))
			}
		}()
		out = file
	}

	switch format {
	case FormatJSON:
		return writeJSON(out, page)
	case FormatCSV:
		return v.WriteCSV(out, cfg.Delimiter())
	default:
		_, err := fmt.Fprintf(out, "%s\n%s\n", tui.RenderTable(page, 0), tui.Totals(page, cfg.Display.Currency))
		return err
	}
}

func writeJSON(w io.Writer, page view.Page) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(page)
}
