// Package tui is the interactive render layer: a bubbletea program browsing the
// configured sections.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"yamo/treasury/internal/view"
)

const helpLine = "[/] chercher · [ ] section · tab facette · ←/→ valeur · espace cocher · c effacer · r recharger · q quitter"

type activatedMsg struct {
	section string
	err     error
}

type reloadedMsg struct {
	section string
	err     error
}

// Model browses one section at a time. Each section has its own view; facet changes
// recompute synchronously while typed queries come back as PageMsg after the debounce.
type Model struct {
	ctx      context.Context
	views    []*view.View
	currency string

	active    int
	facet     int
	value     int
	input     textinput.Model
	searching bool

	page      view.Page
	facets    []view.Facet
	revisions map[string]uint64

	status    string
	statusErr bool
	width     int
	height    int
}

// New returns a model over views, showing the first one.
func New(ctx context.Context, views []*view.View, currency string) Model {
	inp := textinput.New()
	inp.Placeholder = "rechercher"
	inp.Prompt = "/ "
	return Model{
		ctx:       ctx,
		views:     views,
		currency:  currency,
		input:     inp,
		revisions: make(map[string]uint64),
	}
}

// Init activates the first section.
func (m Model) Init() tea.Cmd {
	return m.activate()
}

func (m Model) current() *view.View {
	if len(m.views) == 0 {
		return nil
	}
	return m.views[m.active]
}

func (m Model) activate() tea.Cmd {
	v := m.current()
	if v == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return activatedMsg{section: v.Section(), err: v.Activate(ctx)}
	}
}

func (m Model) reload() tea.Cmd {
	v := m.current()
	if v == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return reloadedMsg{section: v.Section(), err: v.Reload(ctx)}
	}
}

// Update handles keys and pages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case PageMsg:
		m.accept(msg.Page)
		return m, nil

	case ErrMsg:
		m.setError(msg.Err)
		return m, nil

	case activatedMsg:
		if v := m.current(); v != nil && v.Section() == msg.section {
			m.accept(v.Page())
			if msg.err != nil {
				m.setError(msg.err)
			} else {
				m.setStatus("Section " + v.Binding().Title() + " chargée")
			}
		}
		return m, nil

	case reloadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus("Données rechargées")
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.searching = false
		m.input.Blur()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.current(); v != nil && m.input.Value() != before {
		v.SetQuery(m.input.Value())
	}
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.current()
	switch msg.String() {
	case "q", "ctrl+c":
		for _, vw := range m.views {
			vw.Close()
		}
		return m, tea.Quit
	case "/":
		m.searching = true
		return m, m.input.Focus()
	case "]":
		return m.switchSection(1)
	case "[":
		return m.switchSection(-1)
	}
	if v == nil {
		return m, nil
	}

	switch msg.String() {
	case "tab":
		m.moveFacet(1)
	case "shift+tab":
		m.moveFacet(-1)
	case "right", "l":
		m.moveValue(1)
	case "left", "h":
		m.moveValue(-1)
	case " ", "enter":
		if f, value, ok := m.cursor(); ok {
			m.accept(v.ToggleFacetValue(f.Name, value))
		}
	case "c":
		m.accept(v.ClearSection())
		m.setStatus("Filtres effacés")
	case "r":
		m.setStatus("Rechargement…")
		return m, m.reload()
	}
	return m, nil
}

func (m Model) switchSection(step int) (tea.Model, tea.Cmd) {
	if len(m.views) < 2 {
		return m, nil
	}
	m.current().Close()
	m.active = (m.active + step + len(m.views)) % len(m.views)
	m.facet, m.value = 0, 0
	m.searching = false
	m.input.Blur()
	m.input.SetValue("")
	m.page = m.current().Page()
	m.facets = m.current().Facets()
	return m, m.activate()
}

// accept installs page unless it belongs to another section or is older than the
// page shown.
func (m *Model) accept(page view.Page) {
	v := m.current()
	if v == nil || page.Section != v.Section() {
		return
	}
	if page.Revision != 0 && page.Revision < m.revisions[page.Section] {
		return
	}
	m.revisions[page.Section] = page.Revision
	m.page = page
	m.facets = v.Facets()
	m.clampCursor()
}

func (m *Model) moveFacet(step int) {
	if len(m.facets) == 0 {
		return
	}
	m.facet = (m.facet + step + len(m.facets)) % len(m.facets)
	m.value = 0
}

func (m *Model) moveValue(step int) {
	if m.facet >= len(m.facets) {
		return
	}
	n := len(m.facets[m.facet].Values)
	if n == 0 {
		return
	}
	m.value = (m.value + step + n) % n
}

func (m *Model) clampCursor() {
	if m.facet >= len(m.facets) {
		m.facet = 0
		m.value = 0
		return
	}
	if m.value >= len(m.facets[m.facet].Values) {
		m.value = 0
	}
}

func (m Model) cursor() (view.Facet, string, bool) {
	if m.facet >= len(m.facets) {
		return view.Facet{}, "", false
	}
	f := m.facets[m.facet]
	if m.value >= len(f.Values) {
		return f, "", false
	}
	return f, f.Values[m.value], true
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// View draws the section tabs, search, facets, rows, totals and status.
func (m Model) View() string {
	if len(m.views) == 0 {
		return "Aucune section configurée.\n"
	}
	var b strings.Builder

	tabs := make([]string, 0, len(m.views))
	for i, v := range m.views {
		title := v.Binding().Title()
		if i == m.active {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, tabStyle.Render(title))
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	if m.searching || m.input.Value() != "" {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	for i, f := range m.facets {
		b.WriteString(m.renderFacet(i, f))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(RenderTable(m.page, m.tableRows()))
	b.WriteString("\n")
	b.WriteString(totalsStyle.Render(Totals(m.page, m.currency)))
	b.WriteString("\n")

	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(statusStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(helpLine))
	return b.String()
}

func (m Model) renderFacet(i int, f view.Facet) string {
	title := facetStyle.Render(f.Title)
	if i == m.facet {
		title = activeFacetStyle.Render(f.Title)
	}
	if n := m.page.Badges[f.Name]; n > 0 {
		title += badgeStyle.Render(fmt.Sprintf(" (%d)", n))
	}

	selected := make(map[string]bool, len(f.Selected))
	for _, s := range f.Selected {
		selected[s] = true
	}
	values := make([]string, 0, len(f.Values))
	for j, value := range f.Values {
		label := "[ ] " + value
		style := valueStyle
		if selected[value] {
			label = "[x] " + value
			style = selectedStyle
		}
		if i == m.facet && j == m.value {
			style = style.Inherit(cursorStyle)
		}
		values = append(values, style.Render(label))
	}
	return title + " " + strings.Join(values, " ")
}

func (m Model) tableRows() int {
	if m.height <= 0 {
		return 0
	}
	// tabs, facets, borders, totals, status and help
	rows := m.height - len(m.facets) - 12
	if rows < 3 {
		rows = 3
	}
	return rows
}
