package view

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"yamo/treasury/internal/datacache"
	"yamo/treasury/internal/debounce"
	"yamo/treasury/internal/filter"
	"yamo/treasury/internal/logging"
	"yamo/treasury/internal/models"
	"yamo/treasury/internal/sections"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acmeParties = `[
	{"id": 1, "code": "C1", "raison_sociale": "Acme", "type": "client", "solde": 100},
	{"id": 2, "code": "C2", "raison_sociale": "Beta", "type": "client", "solde": -50},
	{"id": 3, "code": "C3", "raison_sociale": "Acme Corp", "type": "client", "solde": 0},
	{"id": 4, "code": "F1", "raison_sociale": "Acme Fournitures", "type": "fournisseur", "solde": 900}
]`

type fixtureFetcher struct {
	mu       sync.Mutex
	payloads map[models.Resource]string
	err      error

	// When set, the next fetch reads its payload, closes entered and waits for release.
	entered chan struct{}
	release chan struct{}
}

func (f *fixtureFetcher) Fetch(_ context.Context, r models.Resource, out any) error {
	f.mu.Lock()
	err := f.err
	payload, ok := f.payloads[r]
	entered, release := f.entered, f.release
	f.entered, f.release = nil, nil
	f.mu.Unlock()

	if entered != nil {
		close(entered)
		<-release
	}
	if err != nil {
		return err
	}
	if !ok {
		payload = "[]"
	}
	return json.Unmarshal([]byte(payload), out)
}

// hold makes the next fetch block until the returned release channel is closed.
func (f *fixtureFetcher) hold() (entered, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entered, f.release = make(chan struct{}), make(chan struct{})
	return f.entered, f.release
}

func (f *fixtureFetcher) set(r models.Resource, payload string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[r] = payload
	f.err = err
}

type renderLog struct {
	mu    sync.Mutex
	pages []Page
}

func (r *renderLog) render(p Page) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, p)
}

func (r *renderLog) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

func (r *renderLog) last() Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pages[len(r.pages)-1]
}

func defaultCatalog(t *testing.T) *Catalog {
	t.Helper()
	cfg, err := sections.Default()
	require.NoError(t, err)
	c, err := NewCatalog(cfg, WithCurrency("XOF"))
	require.NoError(t, err)
	return c
}

func newClientsView(t *testing.T, opts ...ViewOption) (*View, *fixtureFetcher, *logging.MockLogger) {
	t.Helper()
	b, err := defaultCatalog(t).Lookup("clients")
	require.NoError(t, err)

	f := &fixtureFetcher{payloads: map[models.Resource]string{models.ResourceThirdParties: acmeParties}}
	logger := logging.NewMockLogger()
	opts = append([]ViewOption{WithLogger(logger)}, opts...)
	v := New(b, datacache.New(f, logger), opts...)
	t.Cleanup(v.Close)
	return v, f, logger
}

func partyIDs(p Page) []string {
	var out []string
	for _, item := range p.Items.([]models.ThirdParty) {
		out = append(out, string(item.ID))
	}
	return out
}

func TestView_AcmeScenario(t *testing.T) {
	v, _, _ := newClientsView(t)
	require.NoError(t, v.Activate(context.Background()))

	page := v.Page()
	assert.Equal(t, []string{"1", "2", "3"}, partyIDs(page))
	assert.Equal(t, 3, page.Aggregate.Total)

	v.ToggleFacetValue("solde", "debiteur")
	page = v.ApplyQuery("acme")

	assert.Equal(t, []string{"1"}, partyIDs(page))
	assert.Equal(t, 1, page.Aggregate.Filtered)
	assert.Equal(t, 3, page.Aggregate.Total)
	assert.True(t, page.Aggregate.Sum().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, map[string]int{"solde": 1}, page.Badges)
	assert.Equal(t, "acme", page.Query)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, []string{"code", "raison_sociale", "ville", "telephone", "solde"}, page.Fields)
	assert.Equal(t, "C1", page.Rows[0][0])
	assert.Contains(t, page.Rows[0][4], "FCFA")
}

func TestView_ClearSectionResetsToFullList(t *testing.T) {
	v, _, _ := newClientsView(t)
	require.NoError(t, v.Activate(context.Background()))

	v.ToggleFacetValue("solde", "debiteur")
	v.ToggleFacetValue("solde", "equilibre")
	page := v.ToggleFacetValue("statut", "actif")
	assert.Empty(t, partyIDs(page))
	assert.Equal(t, map[string]int{"solde": 2, "statut": 1}, page.Badges)

	page = v.ClearSection()
	assert.Equal(t, []string{"1", "2", "3"}, partyIDs(page))
	assert.Empty(t, page.Badges)
	assert.Equal(t, page.Aggregate.Total, page.Aggregate.Filtered)
}

func TestView_RemoveFacetValue(t *testing.T) {
	v, _, _ := newClientsView(t)
	require.NoError(t, v.Activate(context.Background()))

	v.ToggleFacetValue("solde", "crediteur")
	page := v.RemoveFacetValue("solde", "crediteur")
	assert.Len(t, partyIDs(page), 3)
	page = v.RemoveFacetValue("solde", "crediteur")
	assert.Len(t, partyIDs(page), 3)
}

func TestView_SetQueryIsDebounced(t *testing.T) {
	renders := &renderLog{}
	v, _, _ := newClientsView(t,
		WithDebouncer(debounce.New(30*time.Millisecond)),
		OnRender(renders.render))
	require.NoError(t, v.Activate(context.Background()))
	before := renders.count()

	v.SetQuery("a")
	v.SetQuery("ac")
	v.SetQuery("Beta")
	assert.Equal(t, "Beta", v.Query(), "raw text is stored immediately")
	assert.Equal(t, before, renders.count(), "no recompute before the quiet period")

	assert.Eventually(t, func() bool { return renders.count() == before+1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, before+1, renders.count())
	assert.Equal(t, []string{"2"}, partyIDs(renders.last()))
	assert.Equal(t, "Beta", renders.last().Query)
}

func TestView_CloseCancelsPendingSearch(t *testing.T) {
	renders := &renderLog{}
	v, _, _ := newClientsView(t,
		WithDebouncer(debounce.New(20*time.Millisecond)),
		OnRender(renders.render))
	require.NoError(t, v.Activate(context.Background()))
	before := renders.count()

	v.SetQuery("acme")
	v.Close()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, before, renders.count())
}

func TestView_ActivateResetsFilterState(t *testing.T) {
	v, _, _ := newClientsView(t)
	require.NoError(t, v.Activate(context.Background()))
	v.ToggleFacetValue("solde", "debiteur")
	v.ApplyQuery("acme")

	require.NoError(t, v.Activate(context.Background()))
	page := v.Page()
	assert.Equal(t, "", page.Query)
	assert.Empty(t, page.Badges)
	assert.Len(t, partyIDs(page), 3)
}

func TestView_FailedReloadKeepsPreviousPage(t *testing.T) {
	var notified []error
	v, f, logger := newClientsView(t, OnNotify(func(err error) { notified = append(notified, err) }))
	require.NoError(t, v.Activate(context.Background()))
	before := v.Page()

	f.set(models.ResourceThirdParties, `[]`, errors.New("connection refused"))
	err := v.Reload(context.Background())
	require.Error(t, err)

	assert.Len(t, notified, 1)
	assert.Equal(t, before.Revision, v.Page().Revision)
	assert.Len(t, partyIDs(v.Page()), 3)
	assert.True(t, logger.HasEntry("WARN", "Data cache reload failed, keeping previous data"))

	// Facet changes still work against the previous data.
	page := v.ToggleFacetValue("solde", "crediteur")
	assert.Equal(t, []string{"2"}, partyIDs(page))
}

func TestView_SupersededReloadIsDropped(t *testing.T) {
	renders := &renderLog{}
	v, f, logger := newClientsView(t, OnRender(renders.render))
	require.NoError(t, v.Activate(context.Background()))

	f.set(models.ResourceThirdParties, `[{"id": 7, "raison_sociale": "Stale", "type": "client", "solde": 1}]`, nil)
	entered, release := f.hold()
	done := make(chan error, 1)
	go func() { done <- v.Reload(context.Background()) }()
	<-entered

	f.set(models.ResourceThirdParties, `[{"id": 8, "raison_sociale": "Fresh", "type": "client", "solde": 2}]`, nil)
	require.NoError(t, v.Reload(context.Background()))
	rendered := renders.count()
	newest := v.Page()
	assert.Equal(t, []string{"8"}, partyIDs(newest))

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, rendered, renders.count(), "no render for the older reload")
	assert.Equal(t, newest.Revision, v.Page().Revision)
	assert.Equal(t, []string{"8"}, partyIDs(v.Page()))
	snap := v.cache.Snapshot()
	require.Len(t, snap.ThirdParties, 1)
	assert.Equal(t, models.ID("8"), snap.ThirdParties[0].ID)
	assert.True(t, logger.HasEntry("DEBUG", "Dropping superseded reload"))
}

func TestView_MutateReloads(t *testing.T) {
	v, f, _ := newClientsView(t)
	require.NoError(t, v.Activate(context.Background()))
	v.ToggleFacetValue("solde", "debiteur")

	err := v.Mutate(context.Background(), func(context.Context) error {
		f.set(models.ResourceThirdParties, `[{"id": 5, "raison_sociale": "Gamma", "type": "client", "solde": 10}]`, nil)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, partyIDs(v.Page()))
	assert.Equal(t, map[string]int{"solde": 1}, v.Page().Badges, "filter state survives a reload")

	mutationErr := errors.New("validation failed")
	err = v.Mutate(context.Background(), func(context.Context) error { return mutationErr })
	assert.ErrorIs(t, err, mutationErr)
}

func TestView_Facets(t *testing.T) {
	v, f, _ := newClientsView(t)
	f.set(models.ResourceThirdParties, `[
		{"id": 1, "type": "client", "ville": "Dakar"},
		{"id": 2, "type": "client", "ville": "Abidjan"},
		{"id": 3, "type": "fournisseur", "ville": "Lomé"}
	]`, nil)
	require.NoError(t, v.Activate(context.Background()))
	v.ToggleFacetValue("ville", "Dakar")

	facets := v.Facets()
	require.Len(t, facets, 3)
	ville := facets[2]
	assert.Equal(t, "ville", ville.Name)
	assert.Equal(t, []string{"Abidjan", "Dakar"}, ville.Values)
	assert.Equal(t, []string{"Dakar"}, ville.Selected)
}

type panicBinding struct {
	Binding
	mu    sync.Mutex
	panic bool
}

func (p *panicBinding) Evaluate(s *models.Snapshot, sel filter.Selection, query string) Page {
	p.mu.Lock()
	shouldPanic := p.panic
	p.mu.Unlock()
	if shouldPanic {
		panic("index out of range")
	}
	return p.Binding.Evaluate(s, sel, query)
}

func TestView_EnginePanicKeepsPreviousPage(t *testing.T) {
	inner, err := defaultCatalog(t).Lookup("clients")
	require.NoError(t, err)
	b := &panicBinding{Binding: inner}

	f := &fixtureFetcher{payloads: map[models.Resource]string{models.ResourceThirdParties: acmeParties}}
	logger := logging.NewMockLogger()
	renders := &renderLog{}
	v := New(b, datacache.New(f, nil), WithLogger(logger), OnRender(renders.render))
	require.NoError(t, v.Activate(context.Background()))
	before := v.Page()
	rendered := renders.count()

	b.mu.Lock()
	b.panic = true
	b.mu.Unlock()

	page := v.ToggleFacetValue("solde", "debiteur")
	assert.Equal(t, before.Revision, page.Revision)
	assert.Equal(t, partyIDs(before), partyIDs(page))
	assert.Equal(t, rendered, renders.count(), "no render after a failed evaluation")
	assert.True(t, logger.HasEntry("ERROR", "Filter evaluation failed, keeping previous page"))
}

func TestCatalog(t *testing.T) {
	c := defaultCatalog(t)
	assert.Equal(t, []string{"caisses", "historique", "clients", "fournisseurs", "categories"}, c.Names())
	assert.Len(t, c.Bindings(), 5)

	_, err := c.Lookup("factures")
	assert.Error(t, err)

	b, err := c.Lookup("historique")
	require.NoError(t, err)
	assert.Equal(t, models.ResourceTransactions, b.Resource())
	assert.Equal(t, "Historique des opérations", b.Title())
}

func TestBinding_WriteCSV(t *testing.T) {
	b, err := defaultCatalog(t).Lookup("clients")
	require.NoError(t, err)

	snap := models.NewSnapshot()
	require.NoError(t, json.Unmarshal([]byte(acmeParties), &snap.ThirdParties))

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(b.WriteCSV(pw, snap, filter.Selection{"solde": filter.NewSet("crediteur")}, "", ';'))
	}()
	data, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2;C2;Beta;client;")
	assert.NotContains(t, string(data), "Acme")
}

func TestView_WriteCSVUsesFilterState(t *testing.T) {
	v, _, _ := newClientsView(t)
	require.NoError(t, v.Activate(context.Background()))
	v.ApplyQuery("acme")

	var buf strings.Builder
	require.NoError(t, v.WriteCSV(&buf, ','))
	out := buf.String()
	assert.Contains(t, out, "1,C1,Acme,client,")
	assert.Contains(t, out, "3,C3,Acme Corp,client,")
	assert.NotContains(t, out, "Beta")
	assert.NotContains(t, out, "Fournitures")
}

func TestView_ExportCSV(t *testing.T) {
	v, _, logger := newClientsView(t)
	require.NoError(t, v.Activate(context.Background()))
	v.ToggleFacetValue("solde", "crediteur")

	path := filepath.Join(t.TempDir(), "exports", "clients.csv")
	require.NoError(t, v.ExportCSV(path, ';'))

	data, err := os.ReadFile(path) // #nosec G304 -- test file
	require.NoError(t, err)
	assert.Contains(t, string(data), "2;C2;Beta;client;")
	assert.NotContains(t, string(data), "Acme")
	assert.True(t, logger.HasEntry("INFO", "Successfully wrote CSV file"))
}
