package tui

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yamo/treasury/internal/datacache"
	"yamo/treasury/internal/debounce"
	"yamo/treasury/internal/models"
	"yamo/treasury/internal/sections"
	"yamo/treasury/internal/view"
)

const parties = `[
	{"id": 1, "code": "C1", "raison_sociale": "Acme", "type": "client", "solde": 100},
	{"id": 2, "code": "C2", "raison_sociale": "Beta", "type": "client", "solde": -50},
	{"id": 3, "code": "C3", "raison_sociale": "Acme Corp", "type": "client", "solde": 0},
	{"id": 4, "code": "F1", "raison_sociale": "Acme Fournitures", "type": "fournisseur", "solde": 900}
]`

type stubFetcher struct {
	mu  sync.Mutex
	err error
}

func (f *stubFetcher) Fetch(_ context.Context, r models.Resource, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if r == models.ResourceThirdParties {
		return json.Unmarshal([]byte(parties), out)
	}
	return json.Unmarshal([]byte("[]"), out)
}

func newTestModel(t *testing.T, f *stubFetcher, names ...string) (Model, []*view.View) {
	t.Helper()
	cfg, err := sections.Default()
	require.NoError(t, err)
	catalog, err := view.NewCatalog(cfg, view.WithCurrency("XOF"))
	require.NoError(t, err)
	cache := datacache.New(f, nil)

	views := make([]*view.View, 0, len(names))
	for _, name := range names {
		b, err := catalog.Lookup(name)
		require.NoError(t, err)
		views = append(views, view.New(b, cache, view.WithDebouncer(debounce.New(time.Hour))))
	}
	t.Cleanup(func() {
		for _, v := range views {
			v.Close()
		}
	})
	return New(context.Background(), views, "XOF"), views
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func activated(t *testing.T, m Model) Model {
	t.Helper()
	cmd := m.Init()
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	return m
}

func TestModel_Activate(t *testing.T) {
	m, _ := newTestModel(t, &stubFetcher{}, "clients", "fournisseurs")
	m = activated(t, m)

	assert.Equal(t, "clients", m.page.Section)
	assert.Equal(t, 3, m.page.Aggregate.Total)
	assert.Len(t, m.page.Rows, 3)
	assert.NotEmpty(t, m.facets)
	assert.False(t, m.statusErr)
	assert.Contains(t, m.View(), "3 / 3")
}

func TestModel_ToggleFacetWithKeys(t *testing.T) {
	m, views := newTestModel(t, &stubFetcher{}, "clients")
	m = activated(t, m)

	// first facet is the solde sign facet, first value debiteur
	require.Equal(t, "solde", m.facets[0].Name)
	m, _ = update(t, m, key("space"))
	assert.Equal(t, 1, m.page.Aggregate.Filtered)
	assert.Equal(t, map[string]int{"solde": 1}, m.page.Badges)
	assert.Equal(t, []string{"debiteur"}, m.facets[0].Selected)

	m, _ = update(t, m, key("right"))
	m, _ = update(t, m, key("space"))
	assert.Equal(t, []string{"crediteur", "debiteur"}, views[0].Store().Selected("clients", "solde"))
	assert.Equal(t, 2, m.page.Aggregate.Filtered)

	m, _ = update(t, m, key("c"))
	assert.Equal(t, 3, m.page.Aggregate.Filtered)
	assert.Empty(t, m.page.Badges)
}

func TestModel_FacetCursorWraps(t *testing.T) {
	m, _ := newTestModel(t, &stubFetcher{}, "clients")
	m = activated(t, m)

	n := len(m.facets)
	for i := 0; i < n; i++ {
		m, _ = update(t, m, key("tab"))
	}
	assert.Equal(t, 0, m.facet)

	m, _ = update(t, m, key("left"))
	assert.Equal(t, len(m.facets[0].Values)-1, m.value)
}

func TestModel_SearchIsDebounced(t *testing.T) {
	m, views := newTestModel(t, &stubFetcher{}, "clients")
	m = activated(t, m)

	m, _ = update(t, m, key("/"))
	assert.True(t, m.searching)
	for _, r := range "acm" {
		m, _ = update(t, m, key(string(r)))
	}

	// the raw query is stored at once, the page waits for the timer
	assert.Equal(t, "acm", views[0].Query())
	assert.Equal(t, 3, m.page.Aggregate.Filtered)

	// q is typed into the search box, not handled as quit
	m, _ = update(t, m, key("q"))
	assert.True(t, m.searching)
	assert.Equal(t, "acmq", views[0].Query())

	m, _ = update(t, m, key("esc"))
	assert.False(t, m.searching)
	assert.Equal(t, "acmq", m.input.Value())
}

func TestModel_PageMessages(t *testing.T) {
	m, views := newTestModel(t, &stubFetcher{}, "clients", "fournisseurs")
	m = activated(t, m)

	fresh := views[0].ApplyQuery("acme")
	m, _ = update(t, m, PageMsg{Page: fresh})
	assert.Equal(t, 2, m.page.Aggregate.Filtered)

	t.Run("stale revision dropped", func(t *testing.T) {
		stale := fresh
		stale.Revision = fresh.Revision - 1
		stale.Aggregate.Filtered = 99
		next, _ := update(t, m, PageMsg{Page: stale})
		assert.Equal(t, 2, next.page.Aggregate.Filtered)
	})

	t.Run("other section dropped", func(t *testing.T) {
		other := views[1].ApplyQuery("")
		other.Revision = fresh.Revision + 10
		next, _ := update(t, m, PageMsg{Page: other})
		assert.Equal(t, "clients", next.page.Section)
	})
}

func TestModel_SwitchSection(t *testing.T) {
	m, views := newTestModel(t, &stubFetcher{}, "clients", "fournisseurs")
	m = activated(t, m)
	m, _ = update(t, m, key("space"))

	m, cmd := update(t, m, key("]"))
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.active)
	m, _ = update(t, m, cmd())
	assert.Equal(t, "fournisseurs", m.page.Section)
	assert.Equal(t, 1, m.page.Aggregate.Total)
	assert.Empty(t, m.input.Value())

	m, cmd = update(t, m, key("["))
	m, _ = update(t, m, cmd())
	assert.Equal(t, "clients", m.page.Section)
	// activation resets the section's filters
	assert.Empty(t, views[0].Store().Selected("clients", "solde"))
}

func TestModel_ReloadFailureShowsStatus(t *testing.T) {
	f := &stubFetcher{}
	m, _ := newTestModel(t, f, "clients")
	m = activated(t, m)

	f.mu.Lock()
	f.err = errors.New("connection refused")
	f.mu.Unlock()

	m, cmd := update(t, m, key("r"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "connection refused")
	assert.Equal(t, 3, m.page.Aggregate.Total)
	assert.Contains(t, m.View(), "connection refused")
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, &stubFetcher{}, "clients")
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestBridge(t *testing.T) {
	b := NewBridge()
	b.Render(view.Page{Section: "clients"}) // detached: dropped

	got := make(chan tea.Msg, 2)
	b.AttachFunc(func(msg tea.Msg) { got <- msg })
	b.Render(view.Page{Section: "clients", Revision: 3})
	b.Notify(errors.New("boom"))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-got:
			switch msg := msg.(type) {
			case PageMsg:
				assert.Equal(t, uint64(3), msg.Page.Revision)
				seen["page"] = true
			case ErrMsg:
				assert.EqualError(t, msg.Err, "boom")
				seen["err"] = true
			}
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}
	assert.Equal(t, map[string]bool{"page": true, "err": true}, seen)
}
