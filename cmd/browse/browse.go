// Package browse starts the interactive section browser
package browse

import (
	"fmt"

	"yamo/treasury/cmd/root"
	"yamo/treasury/internal/container"
	"yamo/treasury/internal/tui"
	"yamo/treasury/internal/view"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// Cmd represents the browse command
var Cmd = &cobra.Command{
	Use:   "browse [section]",
	Short: "Browse the sections interactively",
	Long: `Open an interactive view of the configured sections. Type / to search (the
list refreshes once typing pauses), tab and the arrow keys to move between facet
values, space to select one, c to clear the section, r to reload and q to quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}

	bridge := tui.NewBridge()
	views, err := NewViews(c, bridge, args...)
	if err != nil {
		return err
	}

	model := tui.New(root.Context(cmd), views, c.GetConfig().Display.Currency)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(root.Context(cmd)))
	bridge.Attach(p)

	_, err = p.Run()
	for _, v := range views {
		v.Close()
	}
	if err != nil {
		return fmt.Errorf("interactive view failed: %w", err)
	}
	return nil
}

// NewViews builds one view per section, starting with first when given, each reporting
// to bridge.
func NewViews(c *container.Container, bridge *tui.Bridge, first ...string) ([]*view.View, error) {
	names := c.GetCatalog().Names()
	if len(first) > 0 && first[0] != "" {
		start := -1
		for i, n := range names {
			if n == first[0] {
				start = i
			}
		}
		if start < 0 {
			_, err := c.GetCatalog().Lookup(first[0])
			return nil, err
		}
		rotated := make([]string, 0, len(names))
		rotated = append(rotated, names[start:]...)
		names = append(rotated, names[:start]...)
	}

	views := make([]*view.View, 0, len(names))
	for _, name := range names {
		v, err := c.NewView(name, view.OnRender(bridge.Render), view.OnNotify(bridge.Notify))
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
