package datacache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"yamo/treasury/internal/logging"
	"yamo/treasury/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu       sync.Mutex
	payloads map[models.Resource]string
	errs     map[models.Resource]error
	calls    map[models.Resource]int
}

func (s *stubFetcher) Fetch(_ context.Context, r models.Resource, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[models.Resource]int)
	}
	s.calls[r]++
	if err := s.errs[r]; err != nil {
		return err
	}
	payload, ok := s.payloads[r]
	if !ok {
		payload = "[]"
	}
	return json.Unmarshal([]byte(payload), out)
}

func TestCache_Reload(t *testing.T) {
	f := &stubFetcher{payloads: map[models.Resource]string{
		models.ResourceAccounts:     `[{"id": 1, "libelle": "Caisse principale", "solde": "150000"}]`,
		models.ResourceThirdParties: `[{"id": 1}, {"id": 2}]`,
	}}
	logger := logging.NewMockLogger()
	c := New(f, logger)

	snap, err := c.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, c.Snapshot())
	assert.Equal(t, 1, snap.Len(models.ResourceAccounts))
	assert.Equal(t, 2, snap.Len(models.ResourceThirdParties))
	for _, r := range models.AllResources {
		assert.True(t, snap.Loaded(r), "resource %s", r)
		assert.Equal(t, 1, f.calls[r])
	}
	assert.True(t, logger.HasEntry("INFO", "Data cache loaded"))
}

func TestCache_FailedLoadKeepsSnapshot(t *testing.T) {
	f := &stubFetcher{payloads: map[models.Resource]string{
		models.ResourceAccounts: `[{"id": 1}]`,
	}}
	c := New(f, nil)
	before, err := c.Reload(context.Background())
	require.NoError(t, err)

	f.payloads[models.ResourceAccounts] = `[{"id": 1}, {"id": 2}]`
	f.errs = map[models.Resource]error{models.ResourceTransactions: errors.New("connection refused")}

	_, err = c.Reload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transactions")
	assert.Same(t, before, c.Snapshot())
	assert.Equal(t, 1, c.Snapshot().Len(models.ResourceAccounts))
}

func TestCache_LoadDoesNotInstall(t *testing.T) {
	f := &stubFetcher{payloads: map[models.Resource]string{
		models.ResourceCategories: `[{"id": 1, "nom": "Ventes"}]`,
	}}
	c := New(f, nil)

	next, err := c.Load(context.Background(), models.ResourceCategories)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Len(models.ResourceCategories))
	assert.Equal(t, 0, c.Snapshot().Len(models.ResourceCategories))
	assert.False(t, next.Loaded(models.ResourceAccounts))

	c.Install(next)
	assert.Same(t, next, c.Snapshot())
}

func TestCache_PartialReloadCarriesOtherResources(t *testing.T) {
	f := &stubFetcher{payloads: map[models.Resource]string{
		models.ResourceAccounts:     `[{"id": 1}]`,
		models.ResourceTransactions: `[{"id": 1}]`,
	}}
	c := New(f, nil)
	_, err := c.Reload(context.Background())
	require.NoError(t, err)

	f.payloads[models.ResourceTransactions] = `[{"id": 1}, {"id": 2}]`
	snap, err := c.Reload(context.Background(), models.ResourceTransactions)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len(models.ResourceTransactions))
	assert.Equal(t, 1, snap.Len(models.ResourceAccounts))
	assert.Equal(t, 1, f.calls[models.ResourceAccounts])
}

func TestCache_DuplicateResourcesFetchedOnce(t *testing.T) {
	f := &stubFetcher{payloads: map[models.Resource]string{
		models.ResourceAccounts: `[{"id": 1}, {"id": 2}]`,
	}}
	c := New(f, nil)

	snap, err := c.Reload(context.Background(),
		models.ResourceAccounts, models.ResourceAccounts, models.ResourceCategories, models.ResourceAccounts)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len(models.ResourceAccounts))
	assert.Equal(t, 1, f.calls[models.ResourceAccounts])
	assert.Equal(t, 1, f.calls[models.ResourceCategories])
	assert.False(t, snap.Loaded(models.ResourceTransactions))
}

// gatedFetcher decodes the payload current at call time, then blocks on the resource gate.
type gatedFetcher struct {
	*stubFetcher
	gates   map[models.Resource]chan struct{}
	entered chan models.Resource
}

func newGatedFetcher(payloads map[models.Resource]string) *gatedFetcher {
	return &gatedFetcher{
		stubFetcher: &stubFetcher{payloads: payloads},
		gates:       make(map[models.Resource]chan struct{}),
		entered:     make(chan models.Resource, 1),
	}
}

func (g *gatedFetcher) Fetch(ctx context.Context, r models.Resource, out any) error {
	err := g.stubFetcher.Fetch(ctx, r, out)
	g.mu.Lock()
	gate := g.gates[r]
	delete(g.gates, r)
	g.mu.Unlock()
	if gate != nil {
		g.entered <- r
		<-gate
	}
	return err
}

func (g *gatedFetcher) hold(r models.Resource) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate := make(chan struct{})
	g.gates[r] = gate
	return gate
}

func (g *gatedFetcher) setPayload(r models.Resource, payload string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payloads[r] = payload
}

func TestCache_OverlappingReloads(t *testing.T) {
	tests := []struct {
		name         string
		later        []models.Resource
		wantAccounts int
	}{
		// The held accounts load is still the latest one for accounts.
		{name: "later partial reload of another resource", later: []models.Resource{models.ResourceThirdParties}, wantAccounts: 2},
		// The full reload started after the held one and wins everywhere.
		{name: "later full reload", later: nil, wantAccounts: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatedFetcher(map[models.Resource]string{
				models.ResourceAccounts:     `[{"id": 1}]`,
				models.ResourceThirdParties: `[{"id": 1}]`,
			})
			c := New(f, nil)
			ctx := context.Background()
			_, err := c.Reload(ctx)
			require.NoError(t, err)

			f.setPayload(models.ResourceAccounts, `[{"id": 1}, {"id": 2}]`)
			gate := f.hold(models.ResourceAccounts)
			done := make(chan error, 1)
			go func() {
				_, err := c.Reload(ctx, models.ResourceAccounts)
				done <- err
			}()
			<-f.entered

			f.setPayload(models.ResourceAccounts, `[{"id": 1}, {"id": 2}, {"id": 3}]`)
			f.setPayload(models.ResourceThirdParties, `[{"id": 1}, {"id": 2}]`)
			newest, err := c.Reload(ctx, tt.later...)
			require.NoError(t, err)
			assert.Equal(t, 2, newest.Len(models.ResourceThirdParties))

			close(gate)
			require.NoError(t, <-done)

			snap := c.Snapshot()
			assert.Equal(t, 2, snap.Len(models.ResourceThirdParties), "third parties from the newest reload")
			assert.Equal(t, tt.wantAccounts, snap.Len(models.ResourceAccounts))
		})
	}
}

func TestCache_InstallDropsSupersededSnapshot(t *testing.T) {
	f := &stubFetcher{payloads: map[models.Resource]string{models.ResourceCategories: `[{"id": 1}]`}}
	c := New(f, nil)
	ctx := context.Background()

	older, err := c.Load(ctx, models.ResourceCategories)
	require.NoError(t, err)
	f.payloads[models.ResourceCategories] = `[{"id": 1}, {"id": 2}]`
	newer, err := c.Reload(ctx, models.ResourceCategories)
	require.NoError(t, err)

	assert.Same(t, newer, c.Install(older))
	assert.Equal(t, 2, c.Snapshot().Len(models.ResourceCategories))
}

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.json"),
		[]byte(`[{"id": 1, "type": "caisse", "solde": 100}]`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "categories.json"),
		[]byte(`{"success": true, "data": [{"id": 2, "nom": "Loyer"}]}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transactions.json"),
		[]byte(`not json`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "third_parties.csv"),
		[]byte("id,raison_sociale,type,solde\n1,Acme,client,100\n"), 0600))

	f, err := NewDirFetcher("file://" + dir)
	require.NoError(t, err)
	ctx := context.Background()

	var accounts []models.Account
	require.NoError(t, f.Fetch(ctx, models.ResourceAccounts, &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, models.Text("caisse"), accounts[0].Type)

	var cats []models.Category
	require.NoError(t, f.Fetch(ctx, models.ResourceCategories, &cats))
	assert.Equal(t, models.Text("Loyer"), cats[0].Nom)

	var parties []models.ThirdParty
	require.NoError(t, f.Fetch(ctx, models.ResourceThirdParties, &parties))
	require.Len(t, parties, 1)
	assert.Equal(t, models.Text("Acme"), parties[0].RaisonSociale)
	assert.True(t, parties[0].Solde.Valid)

	empty, err := NewDirFetcher(t.TempDir())
	require.NoError(t, err)
	var none []models.Account
	require.NoError(t, empty.Fetch(ctx, models.ResourceAccounts, &none))
	assert.Empty(t, none)

	var txs []models.Transaction
	assert.Error(t, f.Fetch(ctx, models.ResourceTransactions, &txs))

	_, err = NewDirFetcher(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
