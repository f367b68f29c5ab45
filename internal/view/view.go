package view

import (
	"context"
	"io"
	"sync"
	"time"

	"yamo/treasury/internal/apperror"
	"yamo/treasury/internal/datacache"
	"yamo/treasury/internal/debounce"
	"yamo/treasury/internal/filter"
	"yamo/treasury/internal/filterstate"
	"yamo/treasury/internal/logging"
	"yamo/treasury/internal/models"
)

// RenderFunc receives every successfully computed page. Pages may arrive out of order
// from different goroutines: consumers drop pages whose Revision is not newer than the
// last one drawn. A RenderFunc must not call back into the View before returning.
type RenderFunc func(Page)

// NotifyFunc reports a failure the user should see, such as a failed reload.
type NotifyFunc func(error)

// ViewOption configures a View.
type ViewOption func(*View)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) ViewOption {
	return func(v *View) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithDebouncer replaces the search debouncer.
func WithDebouncer(d *debounce.Debouncer) ViewOption {
	return func(v *View) {
		if d != nil {
			v.debouncer = d
		}
	}
}

// WithStore shares a filter state store.
func WithStore(s *filterstate.Store) ViewOption {
	return func(v *View) {
		if s != nil {
			v.store = s
		}
	}
}

// OnRender sets the render callback.
func OnRender(fn RenderFunc) ViewOption {
	return func(v *View) { v.render = fn }
}

// OnNotify sets the notification callback.
func OnNotify(fn NotifyFunc) ViewOption {
	return func(v *View) { v.notify = fn }
}

// WithResources limits reloads to the given resources. All resources are reloaded by default.
func WithResources(resources ...models.Resource) ViewOption {
	return func(v *View) { v.resources = resources }
}

// View is the context of one active section: its filter state, the data cache it reads,
// the debounced search and the last page computed. Facet changes recompute synchronously,
// query changes after the debounce delay.
type View struct {
	mu        sync.Mutex
	binding   Binding
	cache     *datacache.Cache
	store     *filterstate.Store
	debouncer *debounce.Debouncer
	logger    logging.Logger
	render    RenderFunc
	notify    NotifyFunc
	resources []models.Resource

	page      Page
	revision  uint64
	reloadSeq uint64
	installed uint64
}

// New returns a view of binding over cache.
func New(binding Binding, cache *datacache.Cache, opts ...ViewOption) *View {
	v := &View{
		binding:   binding,
		cache:     cache,
		store:     filterstate.New(),
		debouncer: debounce.New(debounce.DefaultDelay),
		logger:    logging.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.WithField(logging.FieldSection, binding.Name())
	v.page = Page{Section: binding.Name(), Title: binding.Title(), Badges: map[string]int{}}
	return v
}

// Section returns the section name.
func (v *View) Section() string {
	return v.binding.Name()
}

// Binding returns the compiled section.
func (v *View) Binding() Binding {
	return v.binding
}

// Activate starts the view: filter state and query are reset, the cache is reloaded and
// the page recomputed. When the reload fails the page is computed from the cached data
// and the error is returned.
func (v *View) Activate(ctx context.Context) error {
	v.debouncer.Cancel()
	v.store.Reset(v.Section())
	v.logger.Info("View activated")

	err := v.Reload(ctx)
	if err != nil {
		v.refresh()
	}
	return err
}

// ToggleFacetValue selects or deselects a facet value and recomputes.
func (v *View) ToggleFacetValue(facet, value string) Page {
	v.store.Toggle(v.Section(), facet, value)
	return v.refresh()
}

// RemoveFacetValue deselects a facet value and recomputes.
func (v *View) RemoveFacetValue(facet, value string) Page {
	v.store.Remove(v.Section(), facet, value)
	return v.refresh()
}

// ClearSection deselects every facet value and recomputes.
func (v *View) ClearSection() Page {
	v.store.Clear(v.Section())
	return v.refresh()
}

// SetQuery stores the query as typed and recomputes once typing pauses. A newer call
// cancels the pending recompute.
func (v *View) SetQuery(text string) {
	v.store.SetQuery(v.Section(), text)
	v.debouncer.Schedule(func() { v.refresh() })
}

// ApplyQuery stores the query and recomputes immediately, dropping any pending search.
func (v *View) ApplyQuery(text string) Page {
	v.debouncer.Cancel()
	v.store.SetQuery(v.Section(), text)
	return v.refresh()
}

// Query returns the query as typed.
func (v *View) Query() string {
	return v.store.Query(v.Section())
}

// Store returns the filter state store.
func (v *View) Store() *filterstate.Store {
	return v.store
}

// Reload fetches fresh data, then installs it and recomputes as one step. On failure the
// user is notified and the previous data and page stay in place.
func (v *View) Reload(ctx context.Context) error {
	v.mu.Lock()
	v.reloadSeq++
	seq := v.reloadSeq
	v.mu.Unlock()

	start := time.Now()
	next, err := v.cache.Load(ctx, v.resources...)
	if err != nil {
		v.logger.WithError(err).Warn("Data cache reload failed, keeping previous data")
		if v.notify != nil {
			v.notify(err)
		}
		return err
	}

	v.mu.Lock()
	if seq < v.installed {
		v.mu.Unlock()
		v.logger.Debug("Dropping superseded reload", logging.F(logging.FieldRevision, seq))
		return nil
	}
	v.installed = seq
	v.cache.Install(next)
	page, ok := v.recomputeLocked()
	v.mu.Unlock()

	v.logger.Debug("Data cache reloaded", logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	if ok {
		v.emit(page)
	}
	return nil
}

// Mutate runs a create, update or delete against the backend, then reloads the cache.
func (v *View) Mutate(ctx context.Context, mutation func(context.Context) error) error {
	if err := mutation(ctx); err != nil {
		v.logger.WithError(err).Warn("Mutation failed")
		if v.notify != nil {
			v.notify(err)
		}
		return err
	}
	return v.Reload(ctx)
}

// Page returns the last successfully computed page.
func (v *View) Page() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// Facets returns the facets of the section with their values and current selection.
func (v *View) Facets() []Facet {
	facets := v.binding.Facets(v.cache.Snapshot())
	for i := range facets {
		facets[i].Selected = v.store.Selected(v.Section(), facets[i].Name)
	}
	return facets
}

// WriteCSV exports the entities matching the current filter state.
func (v *View) WriteCSV(w io.Writer, delimiter rune) error {
	section := v.Section()
	return v.binding.WriteCSV(w, v.cache.Snapshot(), v.store.Selection(section), v.store.Query(section), delimiter)
}

// ExportCSV writes the entities matching the current filter state to a CSV file.
func (v *View) ExportCSV(path string, delimiter rune) error {
	section := v.Section()
	return v.binding.WriteCSVFile(path, v.cache.Snapshot(), v.store.Selection(section), v.store.Query(section), delimiter, v.logger)
}

// Close drops any pending search.
func (v *View) Close() {
	v.debouncer.Cancel()
}

func (v *View) refresh() Page {
	v.mu.Lock()
	page, ok := v.recomputeLocked()
	v.mu.Unlock()

	if ok {
		v.emit(page)
	}
	return page
}

func (v *View) emit(page Page) {
	if v.render != nil {
		v.render(page)
	}
}

// recomputeLocked evaluates the section against the installed snapshot. A failing
// evaluation is logged and leaves the previous page.
func (v *View) recomputeLocked() (Page, bool) {
	section := v.Section()
	sel := v.store.Selection(section)
	query := v.store.Query(section)

	page, err := v.evaluate(sel, query)
	if err != nil {
		v.logger.WithError(err).Error("Filter evaluation failed, keeping previous page",
			logging.F(logging.FieldQuery, query))
		return v.page, false
	}

	v.revision++
	page.Revision = v.revision
	page.Badges = v.store.Badges(section)
	v.page = page

	v.logger.Debug("Section filtered",
		logging.F(logging.FieldCount, page.Aggregate.Filtered),
		logging.F(logging.FieldTotal, page.Aggregate.Total),
		logging.F(logging.FieldRevision, page.Revision))
	return page, true
}

func (v *View) evaluate(sel filter.Selection, query string) (page Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &apperror.EngineError{Section: v.Section(), Cause: r}
		}
	}()
	return v.binding.Evaluate(v.cache.Snapshot(), sel, query), nil
}
